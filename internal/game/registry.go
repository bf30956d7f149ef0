// internal/game/registry.go
//
// Room registry: creation, lookup, join, and teardown of room records.
// Rooms are stored as whole serialized records in the shared store; the
// stored timestamp round-trips as RFC 3339 so elapsed-time math on rejoin
// works on a real instant.

package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/boogle/go-server/internal/board"
	"github.com/boogle/go-server/internal/store"
)

// codeAttempts bounds collision retries during code generation.
const codeAttempts = 16

// Registry manages room records in the shared store.
type Registry struct {
	st       store.Store
	newBoard func() []string
	newCode  func() string
	now      func() time.Time
}

// NewRegistry constructs a Registry with the default board and code
// generators.
func NewRegistry(st store.Store) *Registry {
	return &Registry{
		st:       st,
		newBoard: board.Generate,
		newCode:  board.NewCode,
		now:      time.Now,
	}
}

// Create generates a fresh room for creatorID and registers the creator as
// its first player and only connection. Stale tallies under the creator's
// identity are the ledger's concern; the coordinator purges them before
// calling here.
func (r *Registry) Create(ctx context.Context, creatorID string) (string, *Room, error) {
	room := &Room{
		Players:      []Player{{ID: creatorID}},
		Board:        r.newBoard(),
		CurrentRound: RoundWait,
		SocketIDs:    []Player{{ID: creatorID}},
	}
	blob, err := json.Marshal(room)
	if err != nil {
		return "", nil, fmt.Errorf("marshal room: %w", err)
	}

	// HSetNX makes the code unique against the live set; regenerate on the
	// (rare) collision.
	var code string
	for i := 0; ; i++ {
		code = r.newCode()
		ok, err := r.st.HSetNX(ctx, roomsKey, code, string(blob))
		if err != nil {
			return "", nil, fmt.Errorf("store room: %w", err)
		}
		if ok {
			break
		}
		if i >= codeAttempts {
			return "", nil, errors.New("room code space exhausted")
		}
	}

	if err := r.st.HSet(ctx, connsKey, map[string]string{creatorID: code}); err != nil {
		return "", nil, fmt.Errorf("index connection: %w", err)
	}
	return code, room, nil
}

// Get loads a room by code. Returns ErrRoomNotFound for unknown codes.
func (r *Registry) Get(ctx context.Context, code string) (*Room, error) {
	if code == "" {
		return nil, ErrRoomNotFound
	}
	blob, err := r.st.HGet(ctx, roomsKey, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("load room: %w", err)
	}
	var room Room
	if err := json.Unmarshal([]byte(blob), &room); err != nil {
		return nil, fmt.Errorf("decode room: %w", err)
	}
	return &room, nil
}

// Save replaces the stored record for code wholesale.
func (r *Registry) Save(ctx context.Context, code string, room *Room) error {
	blob, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("marshal room: %w", err)
	}
	if err := r.st.HSet(ctx, roomsKey, map[string]string{code: string(blob)}); err != nil {
		return fmt.Errorf("store room: %w", err)
	}
	return nil
}

// Cancel deletes the room record. Unknown codes are not an error.
func (r *Registry) Cancel(ctx context.Context, code string) error {
	return r.st.HDel(ctx, roomsKey, code)
}

// JoinResult is the outcome of a successful (or self) join.
type JoinResult struct {
	Room *Room
	// SelfJoin is set when the joiner already holds the creator slot; the
	// room was left untouched.
	SelfJoin bool
}

// Join seats joinerID as the second player, flips the room into PLAY, and
// stamps the round start time. Fails with ErrRoomNotFound or ErrRoomFull.
// A creator joining its own room is a no-op.
func (r *Registry) Join(ctx context.Context, code, joinerID string) (*JoinResult, error) {
	room, err := r.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if room.HasPlayer(joinerID) {
		return &JoinResult{Room: room, SelfJoin: true}, nil
	}
	if room.IsFull() {
		return nil, ErrRoomFull
	}

	room.Players = append(room.Players, Player{ID: joinerID})
	room.CurrentRound = RoundPlay
	room.RoundStartTime = r.now()
	room.AddPresence(joinerID)

	if err := r.Save(ctx, code, room); err != nil {
		return nil, err
	}
	if err := r.st.HSet(ctx, connsKey, map[string]string{joinerID: code}); err != nil {
		return nil, fmt.Errorf("index connection: %w", err)
	}
	return &JoinResult{Room: room}, nil
}
