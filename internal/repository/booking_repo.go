package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campusshuttle/internal/domain"
)

var ErrBookingNotFound = errors.New("booking not found")

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// CreateTx inserts the booking inside the caller's transaction so the
// insert commits or aborts together with the seat reservation.
func (r *BookingRepository) CreateTx(tx *gorm.DB, b *domain.Booking) error {
	return tx.Create(b).Error
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var b domain.Booking
	if err := r.db.WithContext(ctx).First(&b, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

// GetForUpdate loads the booking under a row lock so concurrent status
// transitions on the same booking serialize.
func (r *BookingRepository) GetForUpdate(tx *gorm.DB, id int64) (*domain.Booking, error) {
	var b domain.Booking
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&b, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

// UpdateStatusTx flips the status inside the caller's transaction. The
// WHERE clause re-checks the expected current status so a concurrent
// transition aborts instead of being silently overwritten.
func (r *BookingRepository) UpdateStatusTx(tx *gorm.DB, bookingID int64, from, to domain.BookingStatus) error {
	res := tx.Model(&domain.Booking{}).
		Where("id = ? AND status = ?", bookingID, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrBookingNotFound
	}
	return nil
}

func (r *BookingRepository) SetRating(ctx context.Context, bookingID int64, rating int, feedback *string) error {
	cols := map[string]any{"rating": rating}
	if feedback != nil {
		cols["feedback"] = feedback
	}
	res := r.db.WithContext(ctx).Model(&domain.Booking{}).
		Where("id = ?", bookingID).
		Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrBookingNotFound
	}
	return nil
}

func (r *BookingRepository) ListAll(ctx context.Context) ([]domain.Booking, error) {
	var out []domain.Booking
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error
	return out, err
}

func (r *BookingRepository) ListByStudent(ctx context.Context, studentID int64) ([]domain.Booking, error) {
	var out []domain.Booking
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *BookingRepository) ListByDriver(ctx context.Context, driverID int64) ([]domain.Booking, error) {
	var out []domain.Booking
	err := r.db.WithContext(ctx).
		Where("driver_id = ?", driverID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}
