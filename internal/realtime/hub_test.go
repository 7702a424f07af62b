package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwtsvc "campusshuttle/internal/pkg/jwt"
)

func newTestServer(t *testing.T) (*Hub, *httptest.Server, *jwtsvc.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub()
	j := jwtsvc.New("test-secret", time.Hour)

	r := gin.New()
	NewHandler(hub, j).RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return hub, srv, j
}

func dial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// Give the server a moment to register the connection and join the
	// user room before anything is published.
	time.Sleep(100 * time.Millisecond)
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev Event
	require.NoError(t, json.Unmarshal(raw, &ev))
	return ev
}

func assertNoEvent(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestHandshake_RejectsBadToken(t *testing.T) {
	_, srv, _ := newTestServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=not-a-token"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	assert.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandshake_RejectsMissingToken(t *testing.T) {
	_, srv, _ := newTestServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	assert.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPushNotification_UnicastToUserRoomOnly(t *testing.T) {
	hub, srv, j := newTestServer(t)

	tokenA, err := j.GenerateToken(1, "student")
	require.NoError(t, err)
	tokenB, err := j.GenerateToken(2, "student")
	require.NoError(t, err)

	connA := dial(t, srv, tokenA)
	connB := dial(t, srv, tokenB)

	hub.PushNotification(1, map[string]any{"title": "Booking Submitted"})

	ev := readEvent(t, connA)
	assert.Equal(t, EventNotification, ev.Type)

	assertNoEvent(t, connB)
}

func TestPublishShuttleAvailability_BroadcastToAll(t *testing.T) {
	hub, srv, j := newTestServer(t)

	tokenA, _ := j.GenerateToken(1, "student")
	tokenB, _ := j.GenerateToken(2, "driver")

	connA := dial(t, srv, tokenA)
	connB := dial(t, srv, tokenB)

	hub.PublishShuttleAvailability(5, 3)

	for _, conn := range []*websocket.Conn{connA, connB} {
		ev := readEvent(t, conn)
		assert.Equal(t, EventShuttleAvailability, ev.Type)

		payload, ok := ev.Payload.(map[string]any)
		require.True(t, ok)
		assert.EqualValues(t, 5, payload["shuttleId"])
		assert.EqualValues(t, 3, payload["availableSeats"])
	}
}

func TestPublishShuttleLocation_MulticastToRoomMembers(t *testing.T) {
	hub, srv, j := newTestServer(t)

	tokenA, _ := j.GenerateToken(1, "driver")
	tokenB, _ := j.GenerateToken(2, "student")

	connA := dial(t, srv, tokenA)
	connB := dial(t, srv, tokenB)

	require.NoError(t, connA.WriteJSON(map[string]any{"type": "join:shuttle", "shuttle_id": 9}))
	time.Sleep(100 * time.Millisecond)

	hub.PublishShuttleLocation(9, map[string]any{"shuttleId": 9, "lat": 51.1, "lng": 71.4})

	ev := readEvent(t, connA)
	assert.Equal(t, EventShuttleLocation, ev.Type)

	assertNoEvent(t, connB)
}

func TestLeaveShuttle_StopsLocationEvents(t *testing.T) {
	hub, srv, j := newTestServer(t)

	token, _ := j.GenerateToken(1, "driver")
	conn := dial(t, srv, token)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "join:shuttle", "shuttle_id": 4}))
	time.Sleep(100 * time.Millisecond)

	hub.PublishShuttleLocation(4, map[string]any{"shuttleId": 4})
	ev := readEvent(t, conn)
	assert.Equal(t, EventShuttleLocation, ev.Type)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "leave:shuttle", "shuttle_id": 4}))
	time.Sleep(100 * time.Millisecond)

	hub.PublishShuttleLocation(4, map[string]any{"shuttleId": 4})
	assertNoEvent(t, conn)
}

func TestPublish_NoConnectionsIsANoOp(t *testing.T) {
	hub := NewHub()

	// Nothing connected; best-effort delivery means these simply do nothing.
	hub.PushNotification(42, map[string]any{"title": "x"})
	hub.PublishBookingStatusChange(42, 1, "confirmed")
	hub.PublishShuttleAvailability(1, 0)
	hub.PublishShuttleLocation(1, nil)
}
