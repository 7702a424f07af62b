package booking

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"campusshuttle/internal/domain"
	"campusshuttle/internal/pkg/cache"
	"campusshuttle/internal/repository"
)

// Service orchestrates the booking lifecycle: every composite operation
// (booking write + seat ledger mutation) runs inside a single transaction,
// and notifications plus realtime events go out only after commit.
type Service struct {
	db       *gorm.DB
	shuttles *repository.ShuttleRepository
	bookings *repository.BookingRepository
	users    *repository.UserRepository
	notifs   NotificationSender
	realtime RealtimePublisher

	// Opportunistic name cache for display assembly; misses fall through
	// to the database.
	userNames *cache.Store[string]
}

func NewService(
	db *gorm.DB,
	shuttles *repository.ShuttleRepository,
	bookings *repository.BookingRepository,
	users *repository.UserRepository,
	notifs NotificationSender,
	realtime RealtimePublisher,
	userNameTTL time.Duration,
) *Service {
	return &Service{
		db:        db,
		shuttles:  shuttles,
		bookings:  bookings,
		users:     users,
		notifs:    notifs,
		realtime:  realtime,
		userNames: cache.New[string](userNameTTL),
	}
}

// CreateBooking reserves a seat and inserts the pending booking as one
// unit of work. On any failure inside the transaction the seat reservation
// and the booking insert roll back together; no partial state is ever
// observable.
func (s *Service) CreateBooking(ctx context.Context, studentID int64, req CreateBookingRequest) (*BookingDetails, error) {
	if !req.TripTime.After(time.Now()) {
		return nil, ErrTripTimePast
	}

	var (
		b       *domain.Booking
		shuttle *domain.Shuttle
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sh, err := s.shuttles.ReserveSeat(tx, req.ShuttleID)
		if err != nil {
			return err
		}
		if sh.DriverID == nil {
			return ErrNoDriver
		}

		route := req.Route
		if route == "" {
			route = sh.Route
		}

		nb := &domain.Booking{
			ShuttleID:       sh.ID,
			StudentID:       studentID,
			DriverID:        *sh.DriverID,
			Status:          domain.BookingPending,
			BookingTime:     time.Now(),
			TripTime:        req.TripTime,
			PickupLocation:  req.PickupLocation,
			DropoffLocation: req.DropoffLocation,
			Route:           route,
		}
		if err := s.bookings.CreateTx(tx, nb); err != nil {
			return err
		}

		b = nb
		shuttle = sh
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifs != nil {
		if err := s.notifs.NotifyBookingSubmitted(ctx, studentID, b.ID, shuttle.Name); err != nil {
			log.Printf("booking: submit notification failed for booking %d: %v", b.ID, err)
		}
		if err := s.notifs.NotifyNewBookingRequest(ctx, b.DriverID, b.ID); err != nil {
			log.Printf("booking: driver notification failed for booking %d: %v", b.ID, err)
		}
	}
	if s.realtime != nil {
		s.realtime.PublishShuttleAvailability(shuttle.ID, shuttle.AvailableSeats)
	}

	return s.details(ctx, *b, shuttle.Name), nil
}

// UpdateBookingStatus drives the booking state machine. When the
// transition's seat effect says so, the seat goes back to the shuttle in
// the same transaction as the status flip.
func (s *Service) UpdateBookingStatus(ctx context.Context, bookingID int64, newStatus domain.BookingStatus) (*BookingDetails, error) {
	if !newStatus.Valid() {
		return nil, domain.ErrInvalidTransition
	}

	var (
		b       *domain.Booking
		shuttle *domain.Shuttle
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cur, err := s.bookings.GetForUpdate(tx, bookingID)
		if err != nil {
			return err
		}

		effect, err := domain.Transition(cur.Status, newStatus)
		if err != nil {
			return err
		}

		if err := s.bookings.UpdateStatusTx(tx, cur.ID, cur.Status, newStatus); err != nil {
			return err
		}

		if effect == domain.SeatReleaseOne {
			sh, err := s.shuttles.ReleaseSeat(tx, cur.ShuttleID)
			if err != nil {
				if errors.Is(err, repository.ErrShuttleNotFound) {
					// The shuttle was removed after the booking was made;
					// the cancellation still goes through, there is just
					// no counter to return the seat to.
					log.Printf("booking: seat release skipped, shuttle %d is gone", cur.ShuttleID)
				} else {
					return err
				}
			} else {
				shuttle = sh
			}
		}

		cur.Status = newStatus
		b = cur
		return nil
	})
	if err != nil {
		return nil, err
	}

	shuttleName := s.shuttleName(ctx, b.ShuttleID)
	if s.notifs != nil {
		var nerr error
		switch newStatus {
		case domain.BookingConfirmed:
			nerr = s.notifs.NotifyBookingConfirmed(ctx, b.StudentID, b.ID, shuttleName)
		case domain.BookingCanceled:
			nerr = s.notifs.NotifyBookingCanceled(ctx, b.StudentID, b.ID, shuttleName)
		case domain.BookingCompleted:
			nerr = s.notifs.NotifyTripCompleted(ctx, b.StudentID, b.ID, shuttleName)
		}
		if nerr != nil {
			log.Printf("booking: status notification failed for booking %d: %v", b.ID, nerr)
		}
	}
	if s.realtime != nil {
		s.realtime.PublishBookingStatusChange(b.StudentID, b.ID, string(newStatus))
		if shuttle != nil {
			s.realtime.PublishShuttleAvailability(shuttle.ID, shuttle.AvailableSeats)
		}
	}

	return s.details(ctx, *b, shuttleName), nil
}

// AddBookingRating stores a one-time rating on a completed booking. This
// is a single-row update with no seat effect, so it runs outside any
// multi-entity transaction.
func (s *Service) AddBookingRating(ctx context.Context, bookingID, requesterID int64, rating int, feedback *string) (*BookingDetails, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrRatingRange
	}

	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != domain.BookingCompleted {
		return nil, ErrNotCompleted
	}
	if b.StudentID != requesterID {
		return nil, ErrNotOwner
	}
	if b.Rating != nil {
		return nil, ErrAlreadyRated
	}

	if err := s.bookings.SetRating(ctx, bookingID, rating, feedback); err != nil {
		return nil, err
	}
	b.Rating = &rating
	if feedback != nil {
		b.Feedback = feedback
	}

	if s.notifs != nil {
		if err := s.notifs.NotifyRatingReceived(ctx, b.DriverID, b.ID, rating); err != nil {
			log.Printf("booking: rating notification failed for booking %d: %v", b.ID, err)
		}
	}

	return s.details(ctx, *b, s.shuttleName(ctx, b.ShuttleID)), nil
}

func (s *Service) GetByID(ctx context.Context, bookingID int64) (*BookingDetails, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return s.details(ctx, *b, s.shuttleName(ctx, b.ShuttleID)), nil
}

func (s *Service) ListAll(ctx context.Context) ([]BookingDetails, error) {
	rows, err := s.bookings.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.detailsList(ctx, rows)
}

func (s *Service) ListByStudent(ctx context.Context, studentID int64) ([]BookingDetails, error) {
	rows, err := s.bookings.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return s.detailsList(ctx, rows)
}

func (s *Service) ListByDriver(ctx context.Context, driverID int64) ([]BookingDetails, error) {
	rows, err := s.bookings.ListByDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}
	return s.detailsList(ctx, rows)
}

// details assembles the display object for one booking with explicit
// lookups; there is no lazy populate anywhere.
func (s *Service) details(ctx context.Context, b domain.Booking, shuttleName string) *BookingDetails {
	return &BookingDetails{
		ID:              b.ID,
		ShuttleID:       b.ShuttleID,
		ShuttleName:     shuttleName,
		StudentID:       b.StudentID,
		StudentName:     s.userName(ctx, b.StudentID),
		DriverID:        b.DriverID,
		DriverName:      s.userName(ctx, b.DriverID),
		Status:          b.Status,
		BookingTime:     b.BookingTime,
		TripTime:        b.TripTime,
		PickupLocation:  b.PickupLocation,
		DropoffLocation: b.DropoffLocation,
		Route:           b.Route,
		Rating:          b.Rating,
		Feedback:        b.Feedback,
	}
}

// detailsList batches the shuttle and user name lookups for a page of
// bookings into two queries.
func (s *Service) detailsList(ctx context.Context, rows []domain.Booking) ([]BookingDetails, error) {
	shuttleIDs := make([]int64, 0, len(rows))
	userIDs := make([]int64, 0, 2*len(rows))
	for _, b := range rows {
		shuttleIDs = append(shuttleIDs, b.ShuttleID)
		userIDs = append(userIDs, b.StudentID, b.DriverID)
	}

	shuttleNames, err := s.shuttles.NamesByIDs(ctx, shuttleIDs)
	if err != nil {
		return nil, err
	}
	userNames, err := s.users.NamesByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	out := make([]BookingDetails, 0, len(rows))
	for _, b := range rows {
		out = append(out, BookingDetails{
			ID:              b.ID,
			ShuttleID:       b.ShuttleID,
			ShuttleName:     shuttleNames[b.ShuttleID],
			StudentID:       b.StudentID,
			StudentName:     userNames[b.StudentID],
			DriverID:        b.DriverID,
			DriverName:      userNames[b.DriverID],
			Status:          b.Status,
			BookingTime:     b.BookingTime,
			TripTime:        b.TripTime,
			PickupLocation:  b.PickupLocation,
			DropoffLocation: b.DropoffLocation,
			Route:           b.Route,
			Rating:          b.Rating,
			Feedback:        b.Feedback,
		})
	}
	return out, nil
}

func (s *Service) userName(ctx context.Context, userID int64) string {
	if name, ok := s.userNames.Get(userID); ok {
		return name
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return ""
	}
	s.userNames.Set(userID, u.Name)
	return u.Name
}

func (s *Service) shuttleName(ctx context.Context, shuttleID int64) string {
	sh, err := s.shuttles.GetByID(ctx, shuttleID)
	if err != nil {
		// Keep the original fallback copy for notifications about a
		// shuttle that no longer exists.
		return "the shuttle"
	}
	return sh.Name
}
