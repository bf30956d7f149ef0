// internal/ws/gateway.go
//
// Event router: maps inbound events onto the game layer and game results
// onto outbound events. All failure handling follows the same policy —
// expected outcomes (unknown room, full room) become named events for the
// requesting connection, store failures become a generic joining error,
// and malformed payloads are dropped. Nothing here can take down the
// opponent's connection or another room.

package ws

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/boogle/go-server/internal/game"
)

// opTimeout bounds a single store round-trip burst.
const opTimeout = 5 * time.Second

// Gateway bridges the hub and the round coordinator.
type Gateway struct {
	hub   *Hub
	coord *game.Coordinator
	log   zerolog.Logger
}

// NewGateway constructs a Gateway.
func NewGateway(hub *Hub, coord *game.Coordinator, log zerolog.Logger) *Gateway {
	return &Gateway{hub: hub, coord: coord, log: log}
}

// Hub exposes the connection hub (used by the HTTP layer and tests).
func (g *Gateway) Hub() *Hub { return g.hub }

// handle dispatches one decoded frame from a connection.
func (g *Gateway) handle(c *Client, msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	switch msg.Type {
	case evInCreateRoom:
		g.createRoom(ctx, c)
	case evInJoinRoom:
		g.joinRoom(ctx, c, msg.Data)
	case evInCancelRoom:
		g.cancelRoom(ctx, c, msg.Data)
	case evInAppendWord:
		g.appendWord(ctx, c, msg.Data)
	case evInUpdateWordStatus:
		g.updateWordStatus(ctx, c, msg.Data)
	case evInEditWord:
		g.editWord(ctx, c, msg.Data)
	case evInSolution:
		g.setSolution(ctx, c, msg.Data)
	case evInNextRound:
		g.nextRound(ctx, c, msg.Data)
	case evInRejoinRoom:
		g.rejoinRoom(ctx, c, msg.Data)
	case evInEndRoom:
		g.endRoom(ctx, c, msg.Data)
	default:
		g.log.Debug().Str("type", msg.Type).Msg("unknown event dropped")
	}
}

// disconnected is called when a connection's read pump exits.
func (g *Gateway) disconnected(c *Client) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := g.coord.Disconnect(ctx, c.id); err != nil {
		g.log.Error().Err(err).Str("conn", c.id).Msg("disconnect cleanup failed")
	}
}

func (g *Gateway) createRoom(ctx context.Context, c *Client) {
	code, _, err := g.coord.CreateRoom(ctx, c.id)
	if err != nil {
		g.log.Error().Err(err).Str("conn", c.id).Msg("create room failed")
		c.sendEvent(evOutRoomJoiningError, roomJoiningErrorData{Error: "room creation failed"})
		return
	}
	g.hub.joinRoom(c, code)
	c.sendEvent(evOutRoomCreated, roomCreatedData{RoomCode: code, UserID: c.id, IsPlayer: true})
	g.log.Info().Str("room", code).Str("player", c.id).Msg("room created")
}

func (g *Gateway) joinRoom(ctx context.Context, c *Client, raw json.RawMessage) {
	var data joinRoomData
	if json.Unmarshal(raw, &data) != nil || data.RoomCode == "" {
		return
	}
	res, err := g.coord.Rooms().Join(ctx, data.RoomCode, c.id)
	switch {
	case errors.Is(err, game.ErrRoomNotFound):
		c.sendEvent(evOutRoomNotFound, nil)
		return
	case errors.Is(err, game.ErrRoomFull):
		c.sendEvent(evOutFullRoom, fullRoomData{IsPlayer: false})
		return
	case err != nil:
		g.log.Error().Err(err).Str("room", data.RoomCode).Msg("join failed")
		c.sendEvent(evOutRoomJoiningError, roomJoiningErrorData{Error: "join failed"})
		return
	}
	if res.SelfJoin {
		return
	}

	g.hub.joinRoom(c, data.RoomCode)
	c.sendEvent(evOutJoinedRoom, joinedRoomData{
		RoomCode: data.RoomCode,
		UserID:   c.id,
		IsPlayer: true,
		Board:    res.Room.Board,
	})

	// The waiting creator learns the match is starting.
	creator := res.Room.Players[0].ID
	g.hub.SendTo(creator, encode(evOutInitializeNextRound, initializeNextRoundData{Board: res.Room.Board}))
	g.log.Info().Str("room", data.RoomCode).Str("player", c.id).Msg("player joined")
}

func (g *Gateway) cancelRoom(ctx context.Context, c *Client, raw json.RawMessage) {
	var data cancelRoomData
	if json.Unmarshal(raw, &data) != nil || data.RoomCode == "" {
		return
	}
	if err := g.coord.Rooms().Cancel(ctx, data.RoomCode); err != nil {
		g.log.Error().Err(err).Str("room", data.RoomCode).Msg("cancel failed")
		return
	}
	c.sendEvent(evOutRoomCanceled, nil)
}

func (g *Gateway) appendWord(ctx context.Context, c *Client, raw json.RawMessage) {
	var data appendWordData
	if json.Unmarshal(raw, &data) != nil || data.UserID == "" || data.Word == "" {
		return
	}
	if err := g.coord.Words().Append(ctx, data.UserID, data.Word); err != nil {
		g.log.Error().Err(err).Str("player", data.UserID).Msg("append word failed")
		return
	}
	g.hub.Broadcast(data.RoomCode, c, encode(evOutWordAppended, wordAppendedData{
		UserID: data.UserID,
		Word:   data.Word,
	}))
}

func (g *Gateway) updateWordStatus(ctx context.Context, c *Client, raw json.RawMessage) {
	var data updateWordStatusData
	if json.Unmarshal(raw, &data) != nil || data.Key == "" || data.Word == "" {
		return
	}
	if err := g.coord.Words().SetJudgment(ctx, data.Key, data.Word, data.Status); err != nil {
		g.log.Error().Err(err).Str("key", data.Key).Msg("update word status failed")
	}
}

func (g *Gateway) editWord(ctx context.Context, c *Client, raw json.RawMessage) {
	var data editWordData
	if json.Unmarshal(raw, &data) != nil || data.UserID == "" {
		return
	}
	if err := g.coord.Words().Edit(ctx, data.UserID, data.PrevWord, data.Word); err != nil {
		g.log.Error().Err(err).Str("player", data.UserID).Msg("edit word failed")
	}
}

func (g *Gateway) setSolution(ctx context.Context, c *Client, raw json.RawMessage) {
	var data solutionData
	if json.Unmarshal(raw, &data) != nil {
		return
	}
	if err := g.coord.SetSolutions(ctx, data.RoomCode, data.Solution); err != nil {
		g.log.Error().Err(err).Str("room", data.RoomCode).Msg("set solutions failed")
	}
}

func (g *Gateway) nextRound(ctx context.Context, c *Client, raw json.RawMessage) {
	var data nextRoundData
	if json.Unmarshal(raw, &data) != nil || data.RoomCode == "" || data.UserID == "" {
		return
	}
	adv, err := g.coord.NextRound(ctx, data.RoomCode, data.UserID, game.Round(data.Stage), data.Words)
	switch {
	case errors.Is(err, game.ErrRoomNotFound):
		c.sendEvent(evOutRoomNotFound, nil)
		return
	case errors.Is(err, game.ErrNotInRoom):
		g.log.Debug().Str("room", data.RoomCode).Str("player", data.UserID).Msg("signal from non-player ignored")
		return
	case err != nil:
		g.log.Error().Err(err).Str("room", data.RoomCode).Msg("next round failed")
		c.sendEvent(evOutRoomJoiningError, roomJoiningErrorData{Error: "round transition failed"})
		return
	}
	if adv == nil {
		// Barrier not released yet; the other handler will emit for both.
		return
	}
	for id, view := range adv.Views {
		g.hub.SendTo(id, encode(evOutGoToNextRound, goToNextRoundData{
			Stage:         int(view.Round),
			Words:         toWire(view.Words),
			OpponentWords: toWire(view.OpponentWords),
			Solutions:     view.Solutions,
		}))
	}
}

func (g *Gateway) rejoinRoom(ctx context.Context, c *Client, raw json.RawMessage) {
	var data rejoinRoomData
	if json.Unmarshal(raw, &data) != nil || data.RoomCode == "" || data.UserID == "" {
		return
	}

	res, err := g.coord.Rejoin(ctx, data.RoomCode, data.UserID)
	switch {
	case errors.Is(err, game.ErrRoomNotFound):
		c.sendEvent(evOutRoomDoesNotExist, nil)
		return
	case errors.Is(err, game.ErrNotInRoom):
		c.sendEvent(evOutRoomDoesNotExist, nil)
		return
	case err != nil:
		g.log.Error().Err(err).Str("room", data.RoomCode).Msg("rejoin failed")
		c.sendEvent(evOutRoomJoiningError, roomJoiningErrorData{Error: "rejoin failed"})
		return
	}
	if res == nil {
		// Already present; duplicate rejoin absorbed.
		return
	}

	// Only a validated rejoin adopts the identity the player held before
	// the drop; a bogus claim must not displace the connection that owns
	// the id.
	g.hub.bind(c, data.UserID)
	g.hub.joinRoom(c, data.RoomCode)
	c.sendEvent(evOutRejoinedRoom, rejoinedRoomData{
		Board:         res.Board,
		Words:         toWire(res.Words),
		OpponentWords: toWire(res.OpponentWords),
		Solutions:     res.Solutions,
		Round:         int(res.Round),
		TimeLeft:      res.TimeLeft,
	})

	if res.NotifyOpponent {
		g.hub.SendTo(res.OpponentID, encode(evOutOpponentReconnected, opponentReconnectedData{
			Board:         res.Board,
			Words:         toWire(res.OpponentView.Words),
			OpponentWords: toWire(res.OpponentView.OpponentWords),
			Solutions:     res.OpponentView.Solutions,
			Round:         int(res.OpponentView.Round),
		}))
	}
	g.log.Info().Str("room", data.RoomCode).Str("player", data.UserID).Msg("player rejoined")
}

func (g *Gateway) endRoom(ctx context.Context, c *Client, raw json.RawMessage) {
	var data endRoomData
	if json.Unmarshal(raw, &data) != nil || data.RoomCode == "" {
		return
	}
	if err := g.coord.EndRoom(ctx, data.RoomCode); err != nil {
		g.log.Error().Err(err).Str("room", data.RoomCode).Msg("end room failed")
	}
}

// toWire converts checklist entries for the wire, never as null.
func toWire(words []game.Word) []wordData {
	out := make([]wordData, 0, len(words))
	for _, w := range words {
		out = append(out, wordData{Word: w.Word, Checked: w.Checked})
	}
	return out
}
