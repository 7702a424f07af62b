package realtime

import "fmt"

// Server-to-client event names.
const (
	EventNotification        = "notification"
	EventBookingStatusChange = "booking_status_change"
	EventShuttleAvailability = "shuttle_availability"
	EventShuttleLocation     = "shuttle_location"
)

// Client-to-server message types.
const (
	msgJoinShuttle  = "join:shuttle"
	msgLeaveShuttle = "leave:shuttle"
)

// Event is the wire format pushed to clients.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// UserRoom is joined automatically after a successful handshake and
// receives that user's unicast events.
func UserRoom(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}

// ShuttleRoom is joined explicitly (e.g. a driver app tracking its own
// shuttle) and receives that shuttle's location events.
func ShuttleRoom(shuttleID int64) string {
	return fmt.Sprintf("shuttle:%d", shuttleID)
}
