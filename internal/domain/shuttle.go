package domain

import "time"

// Shuttle carries the seat counter. AvailableSeats is mutated exclusively
// by the repository's seat ledger operations, under a row lock, and always
// stays within [0, Capacity].
type Shuttle struct {
	ID             int64  `gorm:"primaryKey" json:"id"`
	Name           string `gorm:"not null" json:"name"`
	Capacity       int    `gorm:"not null;check:capacity > 0" json:"capacity"`
	AvailableSeats int    `gorm:"not null;check:available_seats >= 0" json:"available_seats"`
	Route          string `gorm:"not null" json:"route"`
	IsActive       bool   `gorm:"default:true" json:"is_active"`
	DriverID       *int64 `gorm:"index" json:"driver_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Shuttle) TableName() string { return "shuttles" }
