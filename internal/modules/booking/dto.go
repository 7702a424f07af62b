package booking

import (
	"time"

	"campusshuttle/internal/domain"
)

type CreateBookingRequest struct {
	ShuttleID       int64     `json:"shuttle_id" binding:"required"`
	TripTime        time.Time `json:"trip_time" binding:"required"`
	PickupLocation  string    `json:"pickup_location" binding:"required"`
	DropoffLocation string    `json:"dropoff_location" binding:"required"`
	Route           string    `json:"route"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type RateBookingRequest struct {
	Rating   int     `json:"rating" binding:"required"`
	Feedback *string `json:"feedback"`
}

// BookingDetails is the display object assembled by the orchestrator via
// explicit query-time joins.
type BookingDetails struct {
	ID          int64  `json:"id"`
	ShuttleID   int64  `json:"shuttle_id"`
	ShuttleName string `json:"shuttle_name"`
	StudentID   int64  `json:"student_id"`
	StudentName string `json:"student_name"`
	DriverID    int64  `json:"driver_id"`
	DriverName  string `json:"driver_name"`

	Status          domain.BookingStatus `json:"status"`
	BookingTime     time.Time            `json:"booking_time"`
	TripTime        time.Time            `json:"trip_time"`
	PickupLocation  string               `json:"pickup_location"`
	DropoffLocation string               `json:"dropoff_location"`
	Route           string               `json:"route"`

	Rating   *int    `json:"rating,omitempty"`
	Feedback *string `json:"feedback,omitempty"`
}
