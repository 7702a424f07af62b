package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"campusshuttle/internal/database"
	"campusshuttle/internal/domain"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Connect(":memory:")
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func seedShuttle(t *testing.T, db *gorm.DB, capacity, seats int, active bool) *domain.Shuttle {
	t.Helper()
	s := domain.Shuttle{
		Name:           "Campus Loop",
		Capacity:       capacity,
		AvailableSeats: seats,
		Route:          "A - B",
		IsActive:       active,
	}
	require.NoError(t, db.Create(&s).Error)
	return &s
}

func TestReserveSeat_DecrementsUntilEmpty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewShuttleRepository(db)
	s := seedShuttle(t, db, 2, 2, true)

	err := db.Transaction(func(tx *gorm.DB) error {
		got, err := repo.ReserveSeat(tx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.AvailableSeats)

		got, err = repo.ReserveSeat(tx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.AvailableSeats)

		_, err = repo.ReserveSeat(tx, s.ID)
		assert.ErrorIs(t, err, ErrNoSeats)
		return nil
	})
	require.NoError(t, err)

	var cur domain.Shuttle
	require.NoError(t, db.First(&cur, s.ID).Error)
	assert.Equal(t, 0, cur.AvailableSeats)
}

func TestReserveSeat_Guards(t *testing.T) {
	db := setupTestDB(t)
	repo := NewShuttleRepository(db)

	inactive := seedShuttle(t, db, 5, 5, false)
	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := repo.ReserveSeat(tx, inactive.ID)
		assert.ErrorIs(t, err, ErrShuttleInactive)

		_, err = repo.ReserveSeat(tx, 9999)
		assert.ErrorIs(t, err, ErrShuttleNotFound)
		return nil
	})
	require.NoError(t, err)

	// The guard failure must not have touched the counter.
	var cur domain.Shuttle
	require.NoError(t, db.First(&cur, inactive.ID).Error)
	assert.Equal(t, 5, cur.AvailableSeats)
}

func TestReleaseSeat_ClampedAtCapacity(t *testing.T) {
	db := setupTestDB(t)
	repo := NewShuttleRepository(db)
	s := seedShuttle(t, db, 2, 1, true)

	err := db.Transaction(func(tx *gorm.DB) error {
		got, err := repo.ReleaseSeat(tx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.AvailableSeats)

		// Duplicate release is a no-op, not an overflow.
		got, err = repo.ReleaseSeat(tx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.AvailableSeats)
		return nil
	})
	require.NoError(t, err)

	var cur domain.Shuttle
	require.NoError(t, db.First(&cur, s.ID).Error)
	assert.Equal(t, 2, cur.AvailableSeats)
}

func TestReleaseSeat_MissingShuttle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewShuttleRepository(db)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := repo.ReleaseSeat(tx, 9999)
		assert.ErrorIs(t, err, ErrShuttleNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestUpdateStatusTx_CompareAndSwap(t *testing.T) {
	db := setupTestDB(t)
	bookings := NewBookingRepository(db)

	s := seedShuttle(t, db, 5, 5, true)
	b := domain.Booking{
		ShuttleID:       s.ID,
		StudentID:       1,
		DriverID:        2,
		Status:          domain.BookingPending,
		BookingTime:     time.Now(),
		TripTime:        time.Now().Add(time.Hour),
		PickupLocation:  "A",
		DropoffLocation: "B",
		Route:           "A - B",
	}
	require.NoError(t, db.Create(&b).Error)

	err := db.Transaction(func(tx *gorm.DB) error {
		// Guard mismatch: the row is pending, not confirmed.
		err := bookings.UpdateStatusTx(tx, b.ID, domain.BookingConfirmed, domain.BookingCompleted)
		assert.ErrorIs(t, err, ErrBookingNotFound)

		return bookings.UpdateStatusTx(tx, b.ID, domain.BookingPending, domain.BookingConfirmed)
	})
	require.NoError(t, err)

	var cur domain.Booking
	require.NoError(t, db.First(&cur, b.ID).Error)
	assert.Equal(t, domain.BookingConfirmed, cur.Status)
}
