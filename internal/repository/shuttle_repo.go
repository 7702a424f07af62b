package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campusshuttle/internal/domain"
)

var (
	ErrShuttleNotFound = errors.New("shuttle not found")
	ErrShuttleInactive = errors.New("shuttle is not active")
	ErrNoSeats         = errors.New("no available seats on this shuttle")
)

type ShuttleRepository struct {
	db *gorm.DB
}

func NewShuttleRepository(db *gorm.DB) *ShuttleRepository {
	return &ShuttleRepository{db: db}
}

func (r *ShuttleRepository) Create(ctx context.Context, s *domain.Shuttle) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *ShuttleRepository) GetByID(ctx context.Context, id int64) (*domain.Shuttle, error) {
	var s domain.Shuttle
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShuttleNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *ShuttleRepository) List(ctx context.Context) ([]domain.Shuttle, error) {
	var out []domain.Shuttle
	err := r.db.WithContext(ctx).Order("id").Find(&out).Error
	return out, err
}

// ListAvailable returns active shuttles that still have bookable seats.
func (r *ShuttleRepository) ListAvailable(ctx context.Context) ([]domain.Shuttle, error) {
	var out []domain.Shuttle
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND available_seats > 0", true).
		Order("id").
		Find(&out).Error
	return out, err
}

// NamesByIDs resolves shuttle display names in one query for the explicit
// booking joins.
func (r *ShuttleRepository) NamesByIDs(ctx context.Context, ids []int64) (map[int64]string, error) {
	out := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []struct {
		ID   int64
		Name string
	}
	err := r.db.WithContext(ctx).Model(&domain.Shuttle{}).
		Select("id", "name").
		Where("id IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row.Name
	}
	return out, nil
}

func (r *ShuttleRepository) AssignDriver(ctx context.Context, shuttleID, driverID int64) error {
	return r.updateColumns(ctx, shuttleID, map[string]any{"driver_id": driverID})
}

func (r *ShuttleRepository) SetActive(ctx context.Context, shuttleID int64, active bool) error {
	return r.updateColumns(ctx, shuttleID, map[string]any{"is_active": active})
}

// SetAvailability is the administrative override of the seat counter. The
// booking path never uses it; see ReserveSeat/ReleaseSeat.
func (r *ShuttleRepository) SetAvailability(ctx context.Context, shuttleID int64, seats int) error {
	return r.updateColumns(ctx, shuttleID, map[string]any{"available_seats": seats})
}

func (r *ShuttleRepository) updateColumns(ctx context.Context, shuttleID int64, cols map[string]any) error {
	tx := r.db.WithContext(ctx).Model(&domain.Shuttle{}).Where("id = ?", shuttleID).Updates(cols)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrShuttleNotFound
	}
	return nil
}

// ReserveSeat atomically takes one seat. It must run inside the caller's
// transaction: the SELECT ... FOR UPDATE serializes concurrent reserves on
// the same shuttle, so the seat counter never loses an update and never
// goes below zero.
func (r *ShuttleRepository) ReserveSeat(tx *gorm.DB, shuttleID int64) (*domain.Shuttle, error) {
	var s domain.Shuttle
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&s, shuttleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShuttleNotFound
		}
		return nil, err
	}

	if !s.IsActive {
		return nil, ErrShuttleInactive
	}
	if s.AvailableSeats <= 0 {
		return nil, ErrNoSeats
	}

	res := tx.Model(&domain.Shuttle{}).
		Where("id = ? AND available_seats > 0", shuttleID).
		UpdateColumn("available_seats", gorm.Expr("available_seats - 1"))
	if res.Error != nil {
		return nil, translateSeatError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNoSeats
	}

	s.AvailableSeats--
	return &s, nil
}

// ReleaseSeat returns one seat, clamped at capacity so a duplicate release
// can never push the counter past the fleet size.
func (r *ShuttleRepository) ReleaseSeat(tx *gorm.DB, shuttleID int64) (*domain.Shuttle, error) {
	var s domain.Shuttle
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&s, shuttleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShuttleNotFound
		}
		return nil, err
	}

	if s.AvailableSeats >= s.Capacity {
		return &s, nil
	}

	res := tx.Model(&domain.Shuttle{}).
		Where("id = ? AND available_seats < capacity", shuttleID).
		UpdateColumn("available_seats", gorm.Expr("available_seats + 1"))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected > 0 {
		s.AvailableSeats++
	}
	return &s, nil
}

// translateSeatError maps a PostgreSQL check-constraint violation on the
// seat counter to the domain error. The row lock makes this unreachable in
// practice; the constraint is the storage-level backstop.
func translateSeatError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23514" {
		return ErrNoSeats
	}
	return err
}
