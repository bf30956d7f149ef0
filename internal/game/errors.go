// internal/game/errors.go

package game

import "errors"

var (
	// ErrRoomNotFound is returned when no live room exists for a code.
	ErrRoomNotFound = errors.New("room not found")

	// ErrRoomFull is returned when both player slots are already taken.
	ErrRoomFull = errors.New("room full")

	// ErrNotInRoom is returned when a player id does not occupy a slot of
	// the room it is acting on.
	ErrNotInRoom = errors.New("player not in room")
)
