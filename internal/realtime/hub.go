// Package realtime delivers execution status updates to connected
// clients over websocket rooms keyed by wallet address. The room key is
// a client-supplied identifier, not a security boundary; a disconnected
// client misses events and reconciles through the executions endpoint.
package realtime

import (
	"encoding/json"
	"net/http"
	"sync"

	"applet_portal/internal/domain"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Event names exchanged over the socket.
const (
	EventJoinRoom        = "join_room"        // Client subscribes to a wallet topic
	EventExecutionUpdate = "execution_update" // Server pushes an execution snapshot
)

// Envelope is the wire format for socket messages in both directions.
type Envelope struct {
	Event string          `json:"event"` // Event name
	Data  json.RawMessage `json:"data"`  // Event payload
}

// Hub tracks connected clients and their room memberships and fans
// execution updates out to room members. It implements the execution
// service's Publisher contract.
type Hub struct {
	mu       sync.RWMutex
	rooms    map[string]map[*client]bool // Room name to members
	upgrader websocket.Upgrader
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]map[*client]bool),
		upgrader: websocket.Upgrader{
			// The portal trusts client-supplied identity, so origins are open too
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the connection and runs the client loops.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithField("error", err.Error()).Warn("Websocket upgrade failed")
		return
	}
	c := newClient(h, conn)
	logrus.Info("Socket connected")
	go c.writePump()
	c.readPump()
}

// Publish sends the execution snapshot to every member of the wallet's
// room. Delivery is at-most-once: members with a full send buffer are
// skipped rather than blocking the publisher.
func (h *Hub) Publish(walletAddress string, execution *domain.Execution) {
	payload, err := json.Marshal(execution)
	if err != nil {
		logrus.WithField("error", err.Error()).Error("Failed to encode execution update")
		return
	}
	msg, err := json.Marshal(Envelope{Event: EventExecutionUpdate, Data: payload})
	if err != nil {
		logrus.WithField("error", err.Error()).Error("Failed to encode envelope")
		return
	}

	h.mu.RLock()
	members := h.rooms[walletAddress]
	for c := range members {
		select {
		case c.send <- msg:
		default:
			// Slow consumer; drop the event for this member
		}
	}
	h.mu.RUnlock()
}

// RoomSize reports how many clients are subscribed to a wallet topic.
func (h *Hub) RoomSize(walletAddress string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[walletAddress])
}

// join subscribes a client to a room
func (h *Hub) join(c *client, room string) {
	if room == "" {
		return
	}
	h.mu.Lock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*client]bool)
	}
	h.rooms[room][c] = true
	c.rooms[room] = true
	h.mu.Unlock()
	logrus.WithField("room", room).Info("Socket joined room")
}

// drop unsubscribes a client from all of its rooms
func (h *Hub) drop(c *client) {
	h.mu.Lock()
	for room := range c.rooms {
		delete(h.rooms[room], c)
		if len(h.rooms[room]) == 0 {
			delete(h.rooms, room)
		}
	}
	h.mu.Unlock()
}
