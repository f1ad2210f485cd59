package client

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"applet_portal/internal/domain"
	"applet_portal/internal/realtime"

	"github.com/gorilla/websocket"
)

// Socket is an explicitly owned connection to the portal's realtime
// surface with a connect/close lifecycle. Execution updates arrive on
// the Updates channel; a full channel drops events, matching the
// at-most-once channel semantics (history reconciles via the API).
type Socket struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	updates chan domain.Execution
	done    chan struct{}
	closed  bool
}

// DialSocket connects to the portal socket endpoint (ws://host/ws).
func DialSocket(ctx context.Context, url string) (*Socket, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	s := &Socket{
		conn:    conn,
		updates: make(chan domain.Execution, 16),
		done:    make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

// JoinRoom subscribes to execution updates for the wallet address.
func (s *Socket) JoinRoom(walletAddress string) error {
	payload, err := json.Marshal(walletAddress)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(realtime.Envelope{
		Event: realtime.EventJoinRoom,
		Data:  payload,
	})
}

// Updates streams execution snapshots pushed by the server.
func (s *Socket) Updates() <-chan domain.Execution {
	return s.updates
}

// Done closes when the connection has shut down.
func (s *Socket) Done() <-chan struct{} {
	return s.done
}

// Close shuts the connection down.
func (s *Socket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	_ = s.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
	return s.conn.Close()
}

// readLoop decodes envelopes until the connection drops
func (s *Socket) readLoop() {
	defer func() {
		close(s.done)
		close(s.updates)
	}()
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		var env realtime.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			continue
		}
		if env.Event != realtime.EventExecutionUpdate {
			continue
		}
		var execution domain.Execution
		if err := json.Unmarshal(env.Data, &execution); err != nil {
			continue
		}
		select {
		case s.updates <- execution:
		default:
			// Consumer is behind; drop the event
		}
	}
}
