// internal/ws/events.go
//
// Wire protocol for the event channel. Every frame is a JSON envelope
// {type, data}; inbound payloads are decoded into the structs below and
// outbound payloads marshaled from them. Field names match the web
// client's expectations exactly.

package ws

import "encoding/json"

// Message is the envelope every frame travels in.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Inbound event names (client → server).
const (
	evInCreateRoom       = "create_room"
	evInJoinRoom         = "join_room"
	evInCancelRoom       = "cancel_room"
	evInAppendWord       = "append_word"
	evInUpdateWordStatus = "update_word_status"
	evInEditWord         = "edit_word"
	evInSolution         = "solution"
	evInNextRound        = "go_to_next_round"
	evInRejoinRoom       = "rejoin_room"
	evInEndRoom          = "end_room"
)

// Outbound event names (server → client).
const (
	evOutConnected           = "connected"
	evOutRoomCreated         = "roomCreated"
	evOutRoomCanceled        = "roomCanceled"
	evOutRoomNotFound        = "roomNotFound"
	evOutFullRoom            = "fullRoom"
	evOutRoomJoiningError    = "roomJoiningError"
	evOutRoomDoesNotExist    = "roomDoesNotExist"
	evOutJoinedRoom          = "joinedRoom"
	evOutInitializeNextRound = "initializeNextRound"
	evOutWordAppended        = "wordAppended"
	evOutGoToNextRound       = "goToNextRound"
	evOutRejoinedRoom        = "rejoinedRoom"
	evOutOpponentReconnected = "opponentReconnected"
)

// Inbound payloads.

type joinRoomData struct {
	RoomCode string `json:"roomCode"`
}

type cancelRoomData struct {
	RoomCode string `json:"roomCode"`
}

type appendWordData struct {
	RoomCode string `json:"roomCode"`
	UserID   string `json:"userId"`
	Word     string `json:"word"`
}

type updateWordStatusData struct {
	Key    string `json:"key"`
	Word   string `json:"word"`
	Status bool   `json:"status"`
}

type editWordData struct {
	UserID   string `json:"userId"`
	PrevWord string `json:"prevWord"`
	Word     string `json:"word"`
}

type solutionData struct {
	RoomCode string          `json:"roomCode"`
	Solution json.RawMessage `json:"solution"`
}

type nextRoundData struct {
	RoomCode string   `json:"roomCode"`
	Stage    int      `json:"stage"`
	UserID   string   `json:"userId"`
	Words    []string `json:"words"`
}

type rejoinRoomData struct {
	RoomCode string `json:"roomCode"`
	UserID   string `json:"userId"`
}

type endRoomData struct {
	RoomCode string `json:"roomCode"`
	UserID   string `json:"userId"`
}

// Outbound payloads.

type connectedData struct {
	UserID string `json:"userId"`
}

type roomCreatedData struct {
	RoomCode string `json:"roomCode"`
	UserID   string `json:"userId"`
	IsPlayer bool   `json:"isPlayer"`
}

type fullRoomData struct {
	IsPlayer bool `json:"isPlayer"`
}

type roomJoiningErrorData struct {
	Error string `json:"error"`
}

type joinedRoomData struct {
	RoomCode string   `json:"roomCode"`
	UserID   string   `json:"userId"`
	IsPlayer bool     `json:"isPlayer"`
	Board    []string `json:"board"`
}

type initializeNextRoundData struct {
	Board []string `json:"board"`
}

type wordAppendedData struct {
	UserID string `json:"userId"`
	Word   string `json:"word"`
}

type goToNextRoundData struct {
	Stage         int             `json:"stage"`
	Words         []wordData      `json:"words"`
	OpponentWords []wordData      `json:"opponentWords"`
	Solutions     json.RawMessage `json:"solutions,omitempty"`
}

type rejoinedRoomData struct {
	Board         []string        `json:"board"`
	Words         []wordData      `json:"words"`
	OpponentWords []wordData      `json:"opponentWords"`
	Solutions     json.RawMessage `json:"solutions"`
	Round         int             `json:"round"`
	TimeLeft      int             `json:"timeLeft"`
}

type opponentReconnectedData struct {
	Board         []string        `json:"board"`
	Words         []wordData      `json:"words"`
	OpponentWords []wordData      `json:"opponentWords"`
	Solutions     json.RawMessage `json:"solutions"`
	Round         int             `json:"round"`
}

// wordData mirrors game.Word on the wire.
type wordData struct {
	Word    string `json:"word"`
	Checked bool   `json:"checked"`
}

// encode builds a wire frame; marshal failures are programming errors and
// yield a nil frame the sender drops.
func encode(eventType string, data any) []byte {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil
		}
		raw = b
	}
	frame, err := json.Marshal(Message{Type: eventType, Data: raw})
	if err != nil {
		return nil
	}
	return frame
}
