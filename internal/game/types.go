// internal/game/types.go
//
// Core type definitions for the versus-match engine.
// Defines:
//   - Round: the linear stage sequence WAIT → PLAY → CLEAN_UP → CHALLENGE → RESULT.
//   - Room: the record coordinating one match between two players.
//   - Word: a single checklist entry handed to clients.
//
// The Round ordinals are wire values shared with the web client and must
// not be renumbered.

package game

import "time"

// Round is one stage of a match.
type Round int

const (
	RoundWait      Round = -1 // room exists, second player absent
	RoundPlay      Round = 0  // both players hunt for words
	RoundCleanUp   Round = 1  // each player reviews their own list
	RoundChallenge Round = 2  // each player judges the opponent's list
	RoundResult    Round = 3  // verdicts and solutions, terminal
)

// RoundDuration is the fixed length of each timed stage.
const RoundDuration = 180 * time.Second

// Timed reports whether the stage is subject to the round timer.
// WAIT has no timer and RESULT never expires.
func (r Round) Timed() bool {
	return r >= RoundPlay && r < RoundResult
}

// Next returns the following stage. RESULT is terminal.
func (r Round) Next() Round {
	if r >= RoundResult {
		return RoundResult
	}
	return r + 1
}

func (r Round) String() string {
	switch r {
	case RoundWait:
		return "wait"
	case RoundPlay:
		return "play"
	case RoundCleanUp:
		return "clean_up"
	case RoundChallenge:
		return "challenge"
	case RoundResult:
		return "result"
	}
	return "unknown"
}

// Player is a player slot identified by its connection id at join time.
type Player struct {
	ID string `json:"id"`
}

// Word is one checklist entry.
type Word struct {
	Word    string `json:"word"`
	Checked bool   `json:"checked"`
}

// Room is the aggregate record for one match. It is serialized wholesale
// into the shared store; the coordinator keeps mutation single-writer by
// gating the round-advance write behind the readiness counter.
type Room struct {
	Players        []Player  `json:"players"`
	Board          []string  `json:"board"`
	CurrentRound   Round     `json:"currentRound"`
	RoundStartTime time.Time `json:"roundStartTime"`
	SocketIDs      []Player  `json:"socketIds"`
}

// HasPlayer reports whether id occupies one of the player slots.
func (r *Room) HasPlayer(id string) bool {
	for _, p := range r.Players {
		if p.ID == id {
			return true
		}
	}
	return false
}

// Opponent returns the other player's id.
func (r *Room) Opponent(id string) (string, bool) {
	for _, p := range r.Players {
		if p.ID != id {
			return p.ID, true
		}
	}
	return "", false
}

// IsFull reports whether both player slots are taken.
func (r *Room) IsFull() bool {
	return len(r.Players) >= 2
}

// HasPresence reports whether id is currently connected.
func (r *Room) HasPresence(id string) bool {
	for _, p := range r.SocketIDs {
		if p.ID == id {
			return true
		}
	}
	return false
}

// AddPresence registers id as connected. Duplicates are ignored.
func (r *Room) AddPresence(id string) {
	if r.HasPresence(id) {
		return
	}
	r.SocketIDs = append(r.SocketIDs, Player{ID: id})
}

// RemovePresence drops id from the connected set.
func (r *Room) RemovePresence(id string) {
	out := r.SocketIDs[:0]
	for _, p := range r.SocketIDs {
		if p.ID != id {
			out = append(out, p)
		}
	}
	r.SocketIDs = out
}
