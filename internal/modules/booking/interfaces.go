package booking

import "context"

// NotificationSender persists and pushes booking notifications. Send
// failures are logged by the service and never fail the booking
// operation.
type NotificationSender interface {
	NotifyBookingSubmitted(ctx context.Context, studentID, bookingID int64, shuttleName string) error
	NotifyNewBookingRequest(ctx context.Context, driverID, bookingID int64) error
	NotifyBookingConfirmed(ctx context.Context, studentID, bookingID int64, shuttleName string) error
	NotifyBookingCanceled(ctx context.Context, studentID, bookingID int64, shuttleName string) error
	NotifyTripCompleted(ctx context.Context, studentID, bookingID int64, shuttleName string) error
	NotifyRatingReceived(ctx context.Context, driverID, bookingID int64, rating int) error
}

// RealtimePublisher pushes best-effort events after a unit of work
// commits.
type RealtimePublisher interface {
	PublishBookingStatusChange(userID, bookingID int64, status string)
	PublishShuttleAvailability(shuttleID int64, availableSeats int)
}
