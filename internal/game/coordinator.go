// internal/game/coordinator.go
//
// Round coordinator: the four-stage state machine and the two-party
// readiness barrier that advances it.
//
// Synchronization model: the two players' handlers never share a lock.
// Each stage-completion signal is deduplicated with a per-(stage, player)
// marker (HSETNX), then counted with an atomic increment. Exactly one
// handler observes the counter reach two and performs the single
// round-advance write of the room record; everyone else simply waits.

package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/boogle/go-server/internal/store"
)

// playersPerRoom is the barrier width: a round never advances on one signal.
const playersPerRoom = 2

// emptySolutions is returned when no solver output was recorded for a room.
var emptySolutions = json.RawMessage("[]")

// View is one side's personalized picture of a stage.
type View struct {
	Round         Round
	Words         []Word
	OpponentWords []Word
	Solutions     json.RawMessage
}

// Advance is the outcome of a barrier release: the new stage plus a view
// per player id.
type Advance struct {
	Round Round
	Views map[string]View
}

// Coordinator drives rooms through the stage sequence.
type Coordinator struct {
	st    store.Store
	rooms *Registry
	words *Ledger
	now   func() time.Time
	log   zerolog.Logger
}

// NewCoordinator wires a Coordinator over the shared store.
func NewCoordinator(st store.Store, rooms *Registry, words *Ledger, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		st:    st,
		rooms: rooms,
		words: words,
		now:   time.Now,
		log:   log,
	}
}

// Rooms exposes the registry backing this coordinator.
func (c *Coordinator) Rooms() *Registry { return c.rooms }

// CreateRoom opens a fresh room for creatorID. Tallies left over from a
// previous match under the same identity are purged first, so re-creating
// after an abandoned room is safe.
func (c *Coordinator) CreateRoom(ctx context.Context, creatorID string) (string, *Room, error) {
	if err := c.words.Purge(ctx, creatorID); err != nil {
		return "", nil, fmt.Errorf("purge stale tallies: %w", err)
	}
	return c.rooms.Create(ctx, creatorID)
}

// Words exposes the ledger backing this coordinator.
func (c *Coordinator) Words() *Ledger { return c.words }

// markDone claims the stage-completion marker for (stage, player).
// Reports false for a retransmitted signal; duplicates never reach the
// counter.
func (c *Coordinator) markDone(ctx context.Context, code string, stage Round, playerID string) (bool, error) {
	field := fmt.Sprintf("%d:%s", stage, playerID)
	fresh, err := c.st.HSetNX(ctx, doneKey(code), field, "1")
	if err != nil {
		return false, fmt.Errorf("mark done: %w", err)
	}
	return fresh, nil
}

// bumpReady counts one readiness signal and returns the post-increment
// value. Call only after the signal's payload is durably recorded, so the
// handler that observes the barrier release always sees both payloads.
func (c *Coordinator) bumpReady(ctx context.Context, code string) (int64, error) {
	n, err := c.st.Incr(ctx, readyKey(code))
	if err != nil {
		return 0, fmt.Errorf("count ready: %w", err)
	}
	return n, nil
}

func (c *Coordinator) readyCount(ctx context.Context, code string) (int64, error) {
	raw, err := c.st.Get(ctx, readyKey(code))
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read ready count: %w", err)
	}
	n, _ := strconv.ParseInt(raw, 10, 64)
	return n, nil
}

// resetBarrier clears the readiness counter after an advance. The counter
// must be gone before any signal for the new stage can be counted.
func (c *Coordinator) resetBarrier(ctx context.Context, code string) error {
	return c.st.Del(ctx, readyKey(code))
}

// claimAdvance takes the single-writer slot for the transition out of
// stage. A satisfied counter can be observed by more than one handler (a
// retransmission, or a reconnect racing the original signaler), so the
// room-blob write itself needs its own once-per-stage claim.
func (c *Coordinator) claimAdvance(ctx context.Context, code string, stage Round) (bool, error) {
	claimed, err := c.st.HSetNX(ctx, doneKey(code), fmt.Sprintf("advance:%d", stage), "1")
	if err != nil {
		return false, fmt.Errorf("claim advance: %w", err)
	}
	return claimed, nil
}

// recordPayload persists the words a player hands over when finishing a
// stage. Finishing PLAY lands the raw list under the player's own key;
// finishing CLEAN_UP lands the finalized list under the opponent's
// challenge key, where the opponent's verdicts will accumulate. CHALLENGE
// verdicts were already persisted live, one judgment at a time.
func (c *Coordinator) recordPayload(ctx context.Context, entering Round, playerID, opponentID string, words []string) error {
	switch entering {
	case RoundCleanUp:
		return c.words.RecordCounts(ctx, playerID, words)
	case RoundChallenge:
		return c.words.RecordCounts(ctx, ChallengeKey(opponentID), words)
	}
	return nil
}

// solutions loads the solver output for a room, defaulting to an empty
// list when none was recorded.
func (c *Coordinator) solutions(ctx context.Context, code string) json.RawMessage {
	raw, err := c.st.HGet(ctx, solutionsKey, code)
	if err != nil {
		return emptySolutions
	}
	return json.RawMessage(raw)
}

// viewFor assembles one player's picture of a stage, attaching solutions
// only once the match reaches RESULT.
func (c *Coordinator) viewFor(ctx context.Context, code string, round Round, selfID, opponentID string) (View, error) {
	words, oppWords, err := c.words.Views(ctx, round, selfID, opponentID)
	if err != nil {
		return View{}, err
	}
	v := View{Round: round, Words: words, OpponentWords: oppWords}
	if round == RoundResult {
		v.Solutions = c.solutions(ctx, code)
	}
	return v, nil
}

// NextRound handles one "I am done with this stage" signal.
//
// Returns nil when the caller should simply wait: the signal was stale,
// was a retransmission with nothing pending, or the opponent has not
// finished (or is not connected). Returns the Advance exactly once per
// stage pair, from whichever handler both satisfies the barrier and wins
// the advance claim — which may be a resend releasing an advance that was
// deferred while a player was away.
func (c *Coordinator) NextRound(ctx context.Context, code, playerID string, stage Round, words []string) (*Advance, error) {
	room, err := c.rooms.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if !room.HasPlayer(playerID) {
		return nil, ErrNotInRoom
	}
	// RESULT is terminal; completion signals there have nothing to advance.
	if room.CurrentRound == RoundResult {
		return nil, nil
	}
	// A signal for a stage the room already left is a retransmission of an
	// acknowledged advance; absorb it.
	if stage != room.CurrentRound {
		c.log.Debug().Str("room", code).Stringer("stage", stage).
			Stringer("current", room.CurrentRound).Msg("stale stage signal ignored")
		return nil, nil
	}

	opponentID, ok := room.Opponent(playerID)
	if !ok {
		// Single-player room; nothing to rendezvous with.
		return nil, nil
	}

	fresh, err := c.markDone(ctx, code, stage, playerID)
	if err != nil {
		return nil, err
	}

	entering := stage.Next()
	var n int64
	if fresh {
		if err := c.recordPayload(ctx, entering, playerID, opponentID, words); err != nil {
			return nil, err
		}
		if n, err = c.bumpReady(ctx, code); err != nil {
			return nil, err
		}
	} else {
		// Retransmission: the payload already landed, but the pair may
		// still be waiting on an advance that was deferred while a player
		// was absent. Read the counter so the resend can release it.
		if n, err = c.readyCount(ctx, code); err != nil {
			return nil, err
		}
	}
	if n < playersPerRoom {
		return nil, nil
	}

	// Re-read for the freshest presence list before taking the advance.
	room, err = c.rooms.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if len(room.SocketIDs) < playersPerRoom {
		// Counter is satisfied but a player is gone; a later resend or the
		// rejoin path will complete this advance.
		return nil, nil
	}

	claimed, err := c.claimAdvance(ctx, code, stage)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, nil
	}

	return c.advance(ctx, code, room, entering)
}

// advance performs the single-writer transition into the given stage and
// assembles both players' views.
func (c *Coordinator) advance(ctx context.Context, code string, room *Room, entering Round) (*Advance, error) {
	room.CurrentRound = entering
	room.RoundStartTime = c.now()
	if err := c.rooms.Save(ctx, code, room); err != nil {
		return nil, err
	}
	if err := c.resetBarrier(ctx, code); err != nil {
		return nil, err
	}

	adv := &Advance{Round: entering, Views: make(map[string]View, len(room.Players))}
	for _, p := range room.Players {
		opp, _ := room.Opponent(p.ID)
		v, err := c.viewFor(ctx, code, entering, p.ID, opp)
		if err != nil {
			return nil, err
		}
		adv.Views[p.ID] = v
	}

	c.log.Info().Str("room", code).Stringer("round", entering).Msg("round advanced")
	return adv, nil
}

// SetSolutions records the solver output for a room verbatim. Incomplete
// payloads are dropped rather than persisted.
func (c *Coordinator) SetSolutions(ctx context.Context, code string, solution json.RawMessage) error {
	if code == "" || len(solution) == 0 {
		return nil
	}
	return c.st.HSet(ctx, solutionsKey, map[string]string{code: string(solution)})
}

// EndRoom tears down a room and every record hanging off it: the room
// record, both players' tallies (all variants), solutions, barrier state,
// and the connection index entries.
func (c *Coordinator) EndRoom(ctx context.Context, code string) error {
	room, err := c.rooms.Get(ctx, code)
	if err != nil && !errors.Is(err, ErrRoomNotFound) {
		return err
	}

	if room != nil {
		ids := make([]string, 0, len(room.Players))
		for _, p := range room.Players {
			ids = append(ids, p.ID)
		}
		if len(ids) > 0 {
			if err := c.words.Purge(ctx, ids...); err != nil {
				return err
			}
			if err := c.st.HDel(ctx, connsKey, ids...); err != nil {
				return err
			}
		}
	}

	if err := c.st.Del(ctx, readyKey(code), doneKey(code)); err != nil {
		return err
	}
	if err := c.st.HDel(ctx, solutionsKey, code); err != nil {
		return err
	}
	if err := c.rooms.Cancel(ctx, code); err != nil {
		return err
	}

	c.log.Info().Str("room", code).Msg("room closed")
	return nil
}

// Disconnect prunes a dropped connection from its room's presence list.
// The room itself survives so the player can rejoin; teardown only happens
// through EndRoom or Cancel.
func (c *Coordinator) Disconnect(ctx context.Context, playerID string) error {
	code, err := c.st.HGet(ctx, connsKey, playerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("resolve connection: %w", err)
	}
	if err := c.st.HDel(ctx, connsKey, playerID); err != nil {
		return err
	}

	room, err := c.rooms.Get(ctx, code)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			return nil
		}
		return err
	}
	room.RemovePresence(playerID)
	if err := c.rooms.Save(ctx, code, room); err != nil {
		return err
	}

	c.log.Info().Str("room", code).Str("player", playerID).
		Int("present", len(room.SocketIDs)).Msg("player disconnected")
	return nil
}
