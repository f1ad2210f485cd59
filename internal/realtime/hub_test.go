package realtime

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"applet_portal/internal/domain"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func joinRoom(t *testing.T, hub *Hub, conn *websocket.Conn, room string, want int) {
	t.Helper()
	payload, err := json.Marshal(room)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Envelope{Event: EventJoinRoom, Data: payload}))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.RoomSize(room) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("room %s never reached %d members", room, want)
}

func TestPublishReachesRoomMembers(t *testing.T) {
	hub := NewHub()
	server := httptest.NewServer(hub)
	defer server.Close()

	conn := dialHub(t, server)
	joinRoom(t, hub, conn, "0xABC", 1)

	hub.Publish("0xABC", &domain.Execution{ID: "exec-1", Status: domain.StatusSuccess})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, EventExecutionUpdate, env.Event)

	var execution domain.Execution
	require.NoError(t, json.Unmarshal(env.Data, &execution))
	assert.Equal(t, "exec-1", execution.ID)
	assert.Equal(t, domain.StatusSuccess, execution.Status)
}

func TestPublishSkipsOtherRooms(t *testing.T) {
	hub := NewHub()
	server := httptest.NewServer(hub)
	defer server.Close()

	member := dialHub(t, server)
	joinRoom(t, hub, member, "0xABC", 1)
	outsider := dialHub(t, server)
	joinRoom(t, hub, outsider, "0xDEF", 1)

	hub.Publish("0xABC", &domain.Execution{ID: "exec-1", Status: domain.StatusPending})

	require.NoError(t, outsider.SetReadDeadline(time.Now().Add(200 * time.Millisecond)))
	_, _, err := outsider.ReadMessage()
	assert.Error(t, err) // No message for the other room, read times out

	require.NoError(t, member.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, raw, err := member.ReadMessage()
	require.NoError(t, err)
	var env Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, EventExecutionUpdate, env.Event)
}

func TestDisconnectLeavesRooms(t *testing.T) {
	hub := NewHub()
	server := httptest.NewServer(hub)
	defer server.Close()

	conn := dialHub(t, server)
	joinRoom(t, hub, conn, "0xABC", 1)
	require.NoError(t, conn.Close())

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.RoomSize("0xABC") == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("room still has members after disconnect")
}

func TestPublishToEmptyRoomIsNoop(t *testing.T) {
	hub := NewHub()
	// Must not panic or block without any subscriber
	hub.Publish("0xNOBODY", &domain.Execution{ID: "exec-1", Status: domain.StatusPending})
	assert.Zero(t, hub.RoomSize("0xNOBODY"))
}
