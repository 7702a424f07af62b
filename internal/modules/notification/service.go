package notification

import (
	"context"
	"fmt"

	"campusshuttle/internal/domain"
	"campusshuttle/internal/repository"
)

const listLimit = 50

// Pusher delivers a persisted notification over the realtime channel.
// Delivery is best-effort; the hub drops events for slow or absent
// clients.
type Pusher interface {
	PushNotification(userID int64, payload interface{})
}

type Service struct {
	repo   *repository.NotificationRepository
	pusher Pusher
}

func NewService(repo *repository.NotificationRepository, pusher Pusher) *Service {
	return &Service{repo: repo, pusher: pusher}
}

// Create persists the notification unconditionally and then pushes it to
// the recipient's room. A failed push never rolls back persistence or the
// request that triggered it.
func (s *Service) Create(ctx context.Context, userID int64, title, message string, typ domain.NotificationType, relatedItemID *int64, refModel domain.RefModel) (*domain.Notification, error) {
	if refModel == "" {
		refModel = domain.RefBooking
	}

	n := &domain.Notification{
		UserID:        userID,
		Title:         title,
		Message:       message,
		IsRead:        false,
		Type:          typ,
		RelatedItemID: relatedItemID,
		RefModel:      refModel,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}

	if s.pusher != nil {
		s.pusher.PushNotification(userID, n)
	}
	return n, nil
}

func (s *Service) List(ctx context.Context, userID int64) ([]domain.Notification, int64, error) {
	list, err := s.repo.ListByUser(ctx, userID, listLimit)
	if err != nil {
		return nil, 0, err
	}

	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		unread = 0
	}
	return list, unread, nil
}

func (s *Service) MarkRead(ctx context.Context, notificationID, userID int64) (*domain.Notification, error) {
	return s.repo.MarkRead(ctx, notificationID, userID)
}

// MarkAllRead flips every unread notification in one bulk operation. It is
// intentionally silent on the realtime channel.
func (s *Service) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *Service) NotifyBookingSubmitted(ctx context.Context, studentID, bookingID int64, shuttleName string) error {
	_, err := s.Create(ctx, studentID,
		"Booking Submitted",
		fmt.Sprintf("Your booking request for %s has been submitted and is pending confirmation.", shuttleName),
		domain.NotifBooking, &bookingID, domain.RefBooking)
	return err
}

func (s *Service) NotifyNewBookingRequest(ctx context.Context, driverID, bookingID int64) error {
	_, err := s.Create(ctx, driverID,
		"New Booking Request",
		"You have a new booking request for your shuttle.",
		domain.NotifTrip, &bookingID, domain.RefBooking)
	return err
}

func (s *Service) NotifyBookingConfirmed(ctx context.Context, studentID, bookingID int64, shuttleName string) error {
	_, err := s.Create(ctx, studentID,
		"Booking Confirmed",
		fmt.Sprintf("Your booking for %s has been confirmed.", shuttleName),
		domain.NotifBooking, &bookingID, domain.RefBooking)
	return err
}

func (s *Service) NotifyBookingCanceled(ctx context.Context, studentID, bookingID int64, shuttleName string) error {
	_, err := s.Create(ctx, studentID,
		"Booking Canceled",
		fmt.Sprintf("Your booking for %s has been canceled.", shuttleName),
		domain.NotifBooking, &bookingID, domain.RefBooking)
	return err
}

func (s *Service) NotifyTripCompleted(ctx context.Context, studentID, bookingID int64, shuttleName string) error {
	_, err := s.Create(ctx, studentID,
		"Trip Completed",
		fmt.Sprintf("Your trip with %s has been completed. Please rate your experience.", shuttleName),
		domain.NotifBooking, &bookingID, domain.RefBooking)
	return err
}

func (s *Service) NotifyRatingReceived(ctx context.Context, driverID, bookingID int64, rating int) error {
	_, err := s.Create(ctx, driverID,
		"New Rating Received",
		fmt.Sprintf("You received a %d-star rating for your trip.", rating),
		domain.NotifFeedback, &bookingID, domain.RefBooking)
	return err
}
