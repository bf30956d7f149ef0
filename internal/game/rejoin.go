// internal/game/rejoin.go
//
// Reconnection protocol. A player who dropped mid-match rejoins with the
// room code and the identity it held when the room was formed. The server
// is the authority on whether the round they left silently expired while
// they were gone: if so, the room is fast-forwarded exactly one stage and
// the forced advance joins the same two-party barrier as a normal one, so
// the opponent is only notified once both sides have registered readiness
// for it.

package game

import (
	"context"
	"encoding/json"
	"time"
)

// RejoinResult is everything the transport needs to answer a rejoin: the
// rejoiner's restored view, and optionally the opponent's refreshed view
// when the barrier released on this reconnect.
type RejoinResult struct {
	Board         []string
	Round         Round
	TimeLeft      int // seconds remaining in the current round
	Words         []Word
	OpponentWords []Word
	Solutions     json.RawMessage

	OpponentID     string
	NotifyOpponent bool
	OpponentView   View
}

// Rejoin restores a dropped player's seat in the room.
//
// Returns (nil, nil) when the player is already present — a duplicate
// rejoin is absorbed without touching the room.
func (c *Coordinator) Rejoin(ctx context.Context, code, playerID string) (*RejoinResult, error) {
	room, err := c.rooms.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if !room.HasPlayer(playerID) {
		return nil, ErrNotInRoom
	}
	if room.HasPresence(playerID) {
		return nil, nil
	}

	opponentID, _ := room.Opponent(playerID)
	elapsed := c.now().Sub(room.RoundStartTime)
	roundOver := room.CurrentRound.Timed() && elapsed >= RoundDuration

	res := &RejoinResult{Board: room.Board, OpponentID: opponentID}

	if roundOver {
		// The round ended while the player was away. Advance server-side
		// regardless of whether the opponent explicitly signaled, but let
		// the advance count toward the barrier so an opponent who did
		// signal gets released by this reconnect.
		fresh, err := c.markDone(ctx, code, room.CurrentRound, playerID)
		if err != nil {
			return nil, err
		}
		var n int64
		if fresh {
			if n, err = c.bumpReady(ctx, code); err != nil {
				return nil, err
			}
		} else if n, err = c.readyCount(ctx, code); err != nil {
			return nil, err
		}
		room.CurrentRound = room.CurrentRound.Next()
		room.RoundStartTime = c.now()
		room.AddPresence(playerID)
		if err := c.rooms.Save(ctx, code, room); err != nil {
			return nil, err
		}
		if err := c.resetBarrier(ctx, code); err != nil {
			return nil, err
		}
		res.TimeLeft = int(RoundDuration / time.Second)
		res.NotifyOpponent = n >= playersPerRoom && opponentID != ""

		c.log.Info().Str("room", code).Str("player", playerID).
			Stringer("round", room.CurrentRound).Msg("rejoin fast-forwarded room")
	} else {
		room.AddPresence(playerID)
		if err := c.rooms.Save(ctx, code, room); err != nil {
			return nil, err
		}

		// Both sides may have finished the stage while this player was
		// away, leaving a satisfied barrier nobody could release. The
		// reconnect is the moment presence is whole again, so it performs
		// the pending advance.
		n, err := c.readyCount(ctx, code)
		if err != nil {
			return nil, err
		}
		pending := n >= playersPerRoom && len(room.SocketIDs) >= playersPerRoom
		if pending {
			claimed, err := c.claimAdvance(ctx, code, room.CurrentRound)
			if err != nil {
				return nil, err
			}
			pending = claimed
		}
		if pending {
			room.CurrentRound = room.CurrentRound.Next()
			room.RoundStartTime = c.now()
			if err := c.rooms.Save(ctx, code, room); err != nil {
				return nil, err
			}
			if err := c.resetBarrier(ctx, code); err != nil {
				return nil, err
			}
			res.TimeLeft = int(RoundDuration / time.Second)
			res.NotifyOpponent = opponentID != ""

			c.log.Info().Str("room", code).Str("player", playerID).
				Stringer("round", room.CurrentRound).Msg("rejoin released deferred advance")
		} else {
			remaining := int((RoundDuration - elapsed) / time.Second)
			if remaining < 0 {
				remaining = 0
			}
			res.TimeLeft = remaining
		}
	}

	if err := c.st.HSet(ctx, connsKey, map[string]string{playerID: code}); err != nil {
		return nil, err
	}

	res.Round = room.CurrentRound
	res.Words, res.OpponentWords, err = c.words.Views(ctx, room.CurrentRound, playerID, opponentID)
	if err != nil {
		return nil, err
	}
	res.Solutions = c.solutions(ctx, code)

	if res.NotifyOpponent {
		view, err := c.viewFor(ctx, code, room.CurrentRound, opponentID, playerID)
		if err != nil {
			return nil, err
		}
		view.Solutions = res.Solutions
		res.OpponentView = view
	}
	return res, nil
}
