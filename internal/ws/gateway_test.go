package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boogle/go-server/internal/game"
	"github.com/boogle/go-server/internal/store"
)

func newGatewayServer(t *testing.T) *httptest.Server {
	t.Helper()
	st := store.NewMemoryStore()
	rooms := game.NewRegistry(st)
	words := game.NewLedger(st, 0)
	coord := game.NewCoordinator(st, rooms, words, zerolog.Nop())
	gw := NewGateway(NewHub(), coord, zerolog.Nop())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWS(gw, w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// recvEvent reads frames until one with the wanted type arrives.
func recvEvent(t *testing.T, conn *websocket.Conn, want string) json.RawMessage {
	t.Helper()
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %q", want)
		var msg Message
		require.NoError(t, json.Unmarshal(raw, &msg))
		if msg.Type == want {
			return msg.Data
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, eventType string, data any) {
	t.Helper()
	frame := encode(eventType, data)
	require.NotNil(t, frame)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
}

func TestGatewayMatchLifecycle(t *testing.T) {
	srv := newGatewayServer(t)

	// Creator connects and opens a room.
	c1 := dial(t, srv)
	var hello connectedData
	require.NoError(t, json.Unmarshal(recvEvent(t, c1, evOutConnected), &hello))
	id1 := hello.UserID
	require.NotEmpty(t, id1)

	send(t, c1, evInCreateRoom, nil)
	var created roomCreatedData
	require.NoError(t, json.Unmarshal(recvEvent(t, c1, evOutRoomCreated), &created))
	assert.Equal(t, id1, created.UserID)
	assert.True(t, created.IsPlayer)
	assert.Len(t, created.RoomCode, 6)

	// Second player connects and joins.
	c2 := dial(t, srv)
	require.NoError(t, json.Unmarshal(recvEvent(t, c2, evOutConnected), &hello))
	id2 := hello.UserID

	send(t, c2, evInJoinRoom, joinRoomData{RoomCode: created.RoomCode})
	var joined joinedRoomData
	require.NoError(t, json.Unmarshal(recvEvent(t, c2, evOutJoinedRoom), &joined))
	assert.Equal(t, created.RoomCode, joined.RoomCode)
	assert.Len(t, joined.Board, 16)

	// The waiting creator gets the starting board.
	var init initializeNextRoundData
	require.NoError(t, json.Unmarshal(recvEvent(t, c1, evOutInitializeNextRound), &init))
	assert.Equal(t, joined.Board, init.Board)

	// A found word is echoed to the opponent, not the sender.
	send(t, c2, evInAppendWord, appendWordData{RoomCode: created.RoomCode, UserID: id2, Word: "CAT"})
	var appended wordAppendedData
	require.NoError(t, json.Unmarshal(recvEvent(t, c1, evOutWordAppended), &appended))
	assert.Equal(t, "CAT", appended.Word)
	assert.Equal(t, id2, appended.UserID)

	// Both finish the hunt; both get the next stage.
	send(t, c1, evInNextRound, nextRoundData{RoomCode: created.RoomCode, Stage: 0, UserID: id1, Words: []string{"DOG"}})
	send(t, c2, evInNextRound, nextRoundData{RoomCode: created.RoomCode, Stage: 0, UserID: id2, Words: []string{"CAT"}})

	var next1, next2 goToNextRoundData
	require.NoError(t, json.Unmarshal(recvEvent(t, c1, evOutGoToNextRound), &next1))
	require.NoError(t, json.Unmarshal(recvEvent(t, c2, evOutGoToNextRound), &next2))
	assert.Equal(t, 1, next1.Stage)
	assert.Equal(t, 1, next2.Stage)
	assert.Equal(t, []wordData{{Word: "DOG", Checked: true}}, next1.Words)
	assert.Equal(t, []wordData{{Word: "CAT", Checked: true}}, next2.Words)
}

func TestGatewayJoinUnknownRoom(t *testing.T) {
	srv := newGatewayServer(t)

	c := dial(t, srv)
	recvEvent(t, c, evOutConnected)

	send(t, c, evInJoinRoom, joinRoomData{RoomCode: "NOPE42"})
	recvEvent(t, c, evOutRoomNotFound)
}

func TestGatewayRejoinAfterDrop(t *testing.T) {
	srv := newGatewayServer(t)

	c1 := dial(t, srv)
	var hello connectedData
	require.NoError(t, json.Unmarshal(recvEvent(t, c1, evOutConnected), &hello))

	send(t, c1, evInCreateRoom, nil)
	var created roomCreatedData
	require.NoError(t, json.Unmarshal(recvEvent(t, c1, evOutRoomCreated), &created))

	c2 := dial(t, srv)
	require.NoError(t, json.Unmarshal(recvEvent(t, c2, evOutConnected), &hello))
	id2 := hello.UserID
	send(t, c2, evInJoinRoom, joinRoomData{RoomCode: created.RoomCode})
	recvEvent(t, c2, evOutJoinedRoom)
	recvEvent(t, c1, evOutInitializeNextRound)

	// The second player drops; give the server a moment to prune presence.
	c2.Close()
	time.Sleep(200 * time.Millisecond)

	c3 := dial(t, srv)
	recvEvent(t, c3, evOutConnected)
	send(t, c3, evInRejoinRoom, rejoinRoomData{RoomCode: created.RoomCode, UserID: id2})

	var rejoined rejoinedRoomData
	require.NoError(t, json.Unmarshal(recvEvent(t, c3, evOutRejoinedRoom), &rejoined))
	assert.Len(t, rejoined.Board, 16)
	assert.Equal(t, 0, rejoined.Round)
	assert.Greater(t, rejoined.TimeLeft, 170)
}

func TestGatewayFailedRejoinKeepsBinding(t *testing.T) {
	srv := newGatewayServer(t)

	c1 := dial(t, srv)
	var hello connectedData
	require.NoError(t, json.Unmarshal(recvEvent(t, c1, evOutConnected), &hello))
	id1 := hello.UserID

	send(t, c1, evInCreateRoom, nil)
	var created roomCreatedData
	require.NoError(t, json.Unmarshal(recvEvent(t, c1, evOutRoomCreated), &created))

	// A second connection claims the creator's identity against a room
	// that does not exist. It is rejected and must not steal the id.
	c2 := dial(t, srv)
	recvEvent(t, c2, evOutConnected)
	send(t, c2, evInRejoinRoom, rejoinRoomData{RoomCode: "NOPE42", UserID: id1})
	recvEvent(t, c2, evOutRoomDoesNotExist)

	// Targeted sends still reach the legitimate creator.
	c3 := dial(t, srv)
	recvEvent(t, c3, evOutConnected)
	send(t, c3, evInJoinRoom, joinRoomData{RoomCode: created.RoomCode})
	recvEvent(t, c3, evOutJoinedRoom)
	recvEvent(t, c1, evOutInitializeNextRound)
}

func TestGatewayCancelRoom(t *testing.T) {
	srv := newGatewayServer(t)

	c := dial(t, srv)
	recvEvent(t, c, evOutConnected)
	send(t, c, evInCreateRoom, nil)
	var created roomCreatedData
	require.NoError(t, json.Unmarshal(recvEvent(t, c, evOutRoomCreated), &created))

	send(t, c, evInCancelRoom, cancelRoomData{RoomCode: created.RoomCode})
	recvEvent(t, c, evOutRoomCanceled)

	// The code is unusable afterwards.
	c2 := dial(t, srv)
	recvEvent(t, c2, evOutConnected)
	send(t, c2, evInJoinRoom, joinRoomData{RoomCode: created.RoomCode})
	recvEvent(t, c2, evOutRoomNotFound)
}
