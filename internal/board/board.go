// internal/board/board.go
//
// Letter-grid and room-code generation.
// Responsibilities:
//   - Generate the 4x4 board a room is created with (16 letter tiles).
//   - Generate short shareable room codes.
//
// Notes:
//   - Dice faces follow the classic 16-die set, including the "Qu" face.
//   - Each tile picks a die and a face independently, so the same die may
//     contribute more than one tile.
//   - Codes are 6 characters over [0-9A-Z]; uniqueness against the live
//     room set is enforced by the registry, not here.

package board

import "math/rand"

// Size is the number of tiles on a board.
const Size = 16

// CodeLength is the length of a room code.
const CodeLength = 6

var dice = [Size][6]string{
	{"A", "A", "E", "E", "G", "N"},
	{"E", "L", "R", "T", "T", "Y"},
	{"A", "O", "O", "T", "T", "W"},
	{"A", "B", "B", "J", "O", "O"},
	{"E", "H", "R", "T", "V", "W"},
	{"C", "I", "M", "O", "T", "U"},
	{"D", "I", "S", "T", "T", "Y"},
	{"E", "I", "O", "S", "S", "T"},
	{"D", "E", "L", "R", "V", "Y"},
	{"A", "C", "H", "O", "P", "S"},
	{"H", "I", "M", "N", "Qu", "U"},
	{"E", "E", "I", "N", "S", "U"},
	{"E", "E", "G", "H", "N", "W"},
	{"A", "F", "F", "K", "P", "S"},
	{"H", "L", "N", "N", "R", "Z"},
	{"D", "E", "I", "L", "R", "X"},
}

const codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Generate rolls a fresh 16-tile board.
func Generate() []string {
	tiles := make([]string, Size)
	for i := range tiles {
		die := dice[rand.Intn(len(dice))]
		tiles[i] = die[rand.Intn(len(die))]
	}
	return tiles
}

// NewCode returns a 6-character room code.
func NewCode() string {
	b := make([]byte, CodeLength)
	for i := range b {
		b[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(b)
}

// Faces reports whether tile is a face that can appear on some die.
// Used by tests; the server itself never validates tiles.
func Faces() map[string]struct{} {
	set := make(map[string]struct{})
	for _, die := range dice {
		for _, f := range die {
			set[f] = struct{}{}
		}
	}
	return set
}
