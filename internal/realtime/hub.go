package realtime

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024
)

// connection represents a single websocket client.
type connection struct {
	userID int64
	conn   *websocket.Conn
	send   chan []byte
	rooms  map[string]bool
}

// Hub manages all active websocket connections and their room
// memberships. It is constructed once in main and passed to every
// component that publishes events; there is no package-level instance.
//
// Delivery is at-most-once, best-effort: nothing is queued or redelivered,
// a disconnected or slow recipient simply misses the event. Durable state
// lives in the notification store, not here.
type Hub struct {
	mu          sync.RWMutex
	connections map[*connection]bool
	rooms       map[string]map[*connection]bool
}

func NewHub() *Hub {
	return &Hub{
		connections: make(map[*connection]bool),
		rooms:       make(map[string]map[*connection]bool),
	}
}

func (h *Hub) register(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c] = true
	h.joinLocked(c, UserRoom(c.userID))
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.connections[c] {
		return
	}
	delete(h.connections, c)
	for room := range c.rooms {
		h.leaveLocked(c, room)
	}
	close(c.send)
}

func (h *Hub) joinLocked(c *connection, room string) {
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*connection]bool)
		h.rooms[room] = members
	}
	members[c] = true
	c.rooms[room] = true
}

func (h *Hub) leaveLocked(c *connection, room string) {
	delete(c.rooms, room)
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

func (h *Hub) join(c *connection, room string) {
	h.mu.Lock()
	h.joinLocked(c, room)
	h.mu.Unlock()
}

func (h *Hub) leave(c *connection, room string) {
	h.mu.Lock()
	h.leaveLocked(c, room)
	h.mu.Unlock()
}

// emitToRoom sends an event to every member of the room.
func (h *Hub) emitToRoom(room string, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("realtime: marshal %s event failed: %v", event.Type, err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[room] {
		h.deliver(c, event.Type, data)
	}
}

// emitToAll sends an event to every connected client.
func (h *Hub) emitToAll(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("realtime: marshal %s event failed: %v", event.Type, err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.connections {
		h.deliver(c, event.Type, data)
	}
}

func (h *Hub) deliver(c *connection, eventType string, data []byte) {
	select {
	case c.send <- data:
	default:
		// Client too slow — drop the event rather than block a publisher.
		log.Printf("realtime: dropped %s event for user %d", eventType, c.userID)
	}
}

// PushNotification unicasts a persisted notification to its recipient.
func (h *Hub) PushNotification(userID int64, payload interface{}) {
	h.emitToRoom(UserRoom(userID), Event{Type: EventNotification, Payload: payload})
}

// PublishBookingStatusChange unicasts a lifecycle change to the student.
func (h *Hub) PublishBookingStatusChange(userID, bookingID int64, status string) {
	h.emitToRoom(UserRoom(userID), Event{
		Type: EventBookingStatusChange,
		Payload: map[string]interface{}{
			"bookingId": bookingID,
			"status":    status,
		},
	})
}

// PublishShuttleAvailability broadcasts the new seat count to all clients.
func (h *Hub) PublishShuttleAvailability(shuttleID int64, availableSeats int) {
	h.emitToAll(Event{
		Type: EventShuttleAvailability,
		Payload: map[string]interface{}{
			"shuttleId":      shuttleID,
			"availableSeats": availableSeats,
		},
	})
}

// PublishShuttleLocation multicasts a position update to the shuttle room.
func (h *Hub) PublishShuttleLocation(shuttleID int64, payload interface{}) {
	h.emitToRoom(ShuttleRoom(shuttleID), Event{Type: EventShuttleLocation, Payload: payload})
}

// ServeConn registers an authenticated connection and runs its read/write
// loops. Blocks until the client disconnects.
func (h *Hub) ServeConn(conn *websocket.Conn, userID int64) {
	c := &connection{
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, 256),
		rooms:  make(map[string]bool),
	}

	h.register(c)

	go h.writePump(c)
	h.readPump(c)
}

type clientMessage struct {
	Type      string `json:"type"`
	ShuttleID int64  `json:"shuttle_id"`
}

func (h *Hub) readPump(c *connection) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case msgJoinShuttle:
			if msg.ShuttleID > 0 {
				h.join(c, ShuttleRoom(msg.ShuttleID))
			}
		case msgLeaveShuttle:
			if msg.ShuttleID > 0 {
				h.leave(c, ShuttleRoom(msg.ShuttleID))
			}
		}
	}
}

func (h *Hub) writePump(c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
