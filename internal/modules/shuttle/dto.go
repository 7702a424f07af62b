package shuttle

import (
	"time"

	"campusshuttle/internal/domain"
)

type CreateShuttleRequest struct {
	Name     string `json:"name" binding:"required"`
	Capacity int    `json:"capacity" binding:"required,gt=0"`
	Route    string `json:"route" binding:"required"`
}

type AssignDriverRequest struct {
	DriverID int64 `json:"driver_id" binding:"required"`
}

type SetAvailabilityRequest struct {
	AvailableSeats *int `json:"available_seats" binding:"required"`
}

type SetActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

type UpdateLocationRequest struct {
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
}

// ShuttleDetails is the shuttle as clients see it, with the driver's
// name resolved for display.
type ShuttleDetails struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Capacity       int       `json:"capacity"`
	AvailableSeats int       `json:"available_seats"`
	Route          string    `json:"route"`
	IsActive       bool      `json:"is_active"`
	DriverID       *int64    `json:"driver_id,omitempty"`
	DriverName     string    `json:"driver_name,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func toDetails(s domain.Shuttle, driverName string) ShuttleDetails {
	return ShuttleDetails{
		ID:             s.ID,
		Name:           s.Name,
		Capacity:       s.Capacity,
		AvailableSeats: s.AvailableSeats,
		Route:          s.Route,
		IsActive:       s.IsActive,
		DriverID:       s.DriverID,
		DriverName:     driverName,
		CreatedAt:      s.CreatedAt,
	}
}
