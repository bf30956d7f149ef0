// internal/ws/hub.go
//
// The set of active connections, indexed by player identity and grouped by
// room for broadcasts. The hub only routes frames; game state lives in the
// shared store so any instance can serve any connection.

package ws

import "sync"

// Hub tracks live connections.
type Hub struct {
	mu sync.RWMutex

	// clients by current identity (UUID at accept, player id after rejoin)
	clients map[string]*Client

	// room-code broadcast groups
	rooms map[string]map[*Client]bool
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[*Client]bool),
	}
}

// add registers a freshly accepted connection under its identity.
func (h *Hub) add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
}

// remove unregisters a connection and leaves its room group.
func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.id] == c {
		delete(h.clients, c.id)
	}
	h.leaveLocked(c)
	close(c.send)
}

// bind re-indexes a connection under a new identity. Used when a rejoining
// connection adopts the player id it held before the drop. If another
// connection already owns that identity it is displaced from the index
// (last rejoin wins).
func (h *Hub) bind(c *Client, id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.id == id {
		return
	}
	if h.clients[c.id] == c {
		delete(h.clients, c.id)
	}
	c.id = id
	h.clients[id] = c
}

// joinRoom moves the connection into a room's broadcast group.
func (h *Hub) joinRoom(c *Client, code string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c)
	c.roomCode = code
	group, ok := h.rooms[code]
	if !ok {
		group = make(map[*Client]bool)
		h.rooms[code] = group
	}
	group[c] = true
}

// leaveLocked removes the connection from its current group. Caller holds mu.
func (h *Hub) leaveLocked(c *Client) {
	if c.roomCode == "" {
		return
	}
	if group, ok := h.rooms[c.roomCode]; ok {
		delete(group, c)
		if len(group) == 0 {
			delete(h.rooms, c.roomCode)
		}
	}
	c.roomCode = ""
}

// SendTo delivers a frame to the connection currently bound to id.
// Reports whether a live connection was found.
func (h *Hub) SendTo(id string, frame []byte) bool {
	if frame == nil {
		return false
	}
	h.mu.RLock()
	c, ok := h.clients[id]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	c.enqueue(frame)
	return true
}

// Broadcast delivers a frame to every connection in a room group except
// the sender.
func (h *Hub) Broadcast(code string, except *Client, frame []byte) {
	if frame == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[code] {
		if c != except {
			c.enqueue(frame)
		}
	}
}
