// internal/ws/client.go
//
// One WebSocket connection: read pump (decode + dispatch), write pump
// (serialize + keepalive pings), and a per-connection rate limiter on
// inbound frames.

package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 256

	// Word games generate bursts while a player types out a find streak.
	framesPerSecond = 20
	frameBurst      = 60
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Browser origin policy is enforced by the HTTP layer's CORS config.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one connected participant.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
	log     zerolog.Logger

	// id is the connection identity: a UUID at accept time, replaced by
	// the player's original id when the connection rejoins a room. Only
	// the read-pump goroutine mutates it (via hub.bind).
	id       string
	roomCode string
}

// ServeWS upgrades an HTTP request into a game connection and starts its
// pumps. The client is greeted with its identity so it can create or join
// a room.
func ServeWS(gw *Gateway, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		gw.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &Client{
		hub:     gw.hub,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		limiter: rate.NewLimiter(framesPerSecond, frameBurst),
		log:     gw.log,
		id:      uuid.New().String(),
	}
	gw.hub.add(c)

	c.sendEvent(evOutConnected, connectedData{UserID: c.id})
	gw.log.Info().Str("conn", c.id).Msg("connection accepted")

	go c.writePump()
	go c.readPump(gw)
}

// enqueue hands a frame to the write pump, dropping it if the peer is too
// slow to keep the buffer drained.
func (c *Client) enqueue(frame []byte) {
	select {
	case c.send <- frame:
	default:
		c.log.Warn().Str("conn", c.id).Msg("send buffer full, frame dropped")
	}
}

// sendEvent marshals and enqueues an event for this connection.
func (c *Client) sendEvent(eventType string, data any) {
	if frame := encode(eventType, data); frame != nil {
		c.enqueue(frame)
	}
}

func (c *Client) readPump(gw *Gateway) {
	defer func() {
		gw.disconnected(c)
		c.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug().Err(err).Str("conn", c.id).Msg("read error")
			}
			return
		}

		if !c.limiter.Allow() {
			c.log.Warn().Str("conn", c.id).Msg("rate limit exceeded, frame dropped")
			continue
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Type == "" {
			c.log.Debug().Str("conn", c.id).Msg("malformed frame dropped")
			continue
		}
		gw.handle(c, msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
