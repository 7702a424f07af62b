package domain

import (
	"errors"
	"fmt"
	"time"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCanceled  BookingStatus = "canceled"
	BookingCompleted BookingStatus = "completed"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCanceled, BookingCompleted:
		return true
	}
	return false
}

// SeatEffect tells the caller what the seat ledger must do as part of the
// same unit of work as the status change.
type SeatEffect int

const (
	SeatNone SeatEffect = iota
	SeatReleaseOne
)

var (
	ErrSameStatus        = errors.New("booking already has the requested status")
	ErrInvalidTransition = errors.New("invalid booking status transition")
)

// transitions is the allowed lifecycle graph. canceled and completed are
// terminal.
var transitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCanceled},
	BookingConfirmed: {BookingCanceled, BookingCompleted},
}

// Transition validates current -> next and reports the seat effect.
// Requesting the status a booking already holds is an error, never a
// silent no-op.
func Transition(current, next BookingStatus) (SeatEffect, error) {
	if current == next {
		return SeatNone, ErrSameStatus
	}
	for _, allowed := range transitions[current] {
		if next == allowed {
			if next == BookingCanceled {
				return SeatReleaseOne, nil
			}
			return SeatNone, nil
		}
	}
	return SeatNone, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, next)
}

// Booking is never physically deleted; canceled and completed rows are
// kept for history.
type Booking struct {
	ID        int64         `gorm:"primaryKey" json:"id"`
	ShuttleID int64         `gorm:"index;not null" json:"shuttle_id"`
	StudentID int64         `gorm:"index;not null" json:"student_id"`
	DriverID  int64         `gorm:"index;not null" json:"driver_id"`
	Status    BookingStatus `gorm:"not null;default:pending" json:"status"`

	BookingTime     time.Time `gorm:"not null" json:"booking_time"`
	TripTime        time.Time `gorm:"not null" json:"trip_time"`
	PickupLocation  string    `gorm:"not null" json:"pickup_location"`
	DropoffLocation string    `gorm:"not null" json:"dropoff_location"`
	Route           string    `gorm:"not null" json:"route"`

	Rating   *int    `gorm:"check:rating >= 1 AND rating <= 5" json:"rating,omitempty"`
	Feedback *string `json:"feedback,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Booking) TableName() string { return "bookings" }
