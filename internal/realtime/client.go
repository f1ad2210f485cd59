package realtime

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second // Time allowed to write a message
	pongWait       = 60 * time.Second // Time allowed to read the next pong
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096 // Inbound messages are only join_room envelopes
	sendBuffer     = 16   // Outbound queue per client before events drop
)

// client is one websocket connection and its room memberships.
type client struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte     // Buffered outbound queue
	rooms map[string]bool // Rooms this client joined
}

func newClient(h *Hub, conn *websocket.Conn) *client {
	return &client{
		hub:   h,
		conn:  conn,
		send:  make(chan []byte, sendBuffer),
		rooms: make(map[string]bool),
	}
}

// readPump consumes inbound envelopes until the connection closes, then
// unregisters the client so listeners do not accumulate.
func (c *client) readPump() {
	defer func() {
		c.hub.drop(c)
		close(c.send)
		c.conn.Close()
		logrus.Info("Socket disconnected")
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			logrus.WithField("error", err.Error()).Warn("Bad socket message")
			continue
		}
		if env.Event == EventJoinRoom {
			var room string
			if err := json.Unmarshal(env.Data, &room); err != nil {
				logrus.WithField("error", err.Error()).Warn("Bad join_room payload")
				continue
			}
			c.hub.join(c, room)
		}
	}
}

// writePump drains the send queue and keeps the connection alive.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
