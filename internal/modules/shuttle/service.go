package shuttle

import (
	"context"
	"errors"
	"time"

	"campusshuttle/internal/domain"
	"campusshuttle/internal/pkg/cache"
	"campusshuttle/internal/repository"
)

// RealtimePublisher is the slice of the websocket hub the shuttle module
// needs: seat counters go to everyone, location pings only to the
// shuttle's room.
type RealtimePublisher interface {
	PublishShuttleAvailability(shuttleID int64, availableSeats int)
	PublishShuttleLocation(shuttleID int64, payload interface{})
}

type Service struct {
	shuttles *repository.ShuttleRepository
	users    *repository.UserRepository
	realtime RealtimePublisher

	// byID caches shuttle reads. Writes invalidate; seat mutations made
	// by the booking flow bypass this service entirely, so the short TTL
	// bounds how stale a cached counter can get.
	byID *cache.Store[domain.Shuttle]
}

func NewService(
	shuttles *repository.ShuttleRepository,
	users *repository.UserRepository,
	realtime RealtimePublisher,
	cacheTTL time.Duration,
) *Service {
	return &Service{
		shuttles: shuttles,
		users:    users,
		realtime: realtime,
		byID:     cache.New[domain.Shuttle](cacheTTL),
	}
}

// Create registers a shuttle with every seat free.
func (s *Service) Create(ctx context.Context, req CreateShuttleRequest) (*ShuttleDetails, error) {
	sh := domain.Shuttle{
		Name:           req.Name,
		Capacity:       req.Capacity,
		AvailableSeats: req.Capacity,
		Route:          req.Route,
		IsActive:       true,
	}
	if err := s.shuttles.Create(ctx, &sh); err != nil {
		return nil, err
	}
	d := toDetails(sh, "")
	return &d, nil
}

func (s *Service) GetByID(ctx context.Context, shuttleID int64) (*ShuttleDetails, error) {
	sh, err := s.lookup(ctx, shuttleID)
	if err != nil {
		return nil, err
	}
	d := toDetails(*sh, s.driverName(ctx, sh.DriverID))
	return &d, nil
}

func (s *Service) List(ctx context.Context) ([]ShuttleDetails, error) {
	rows, err := s.shuttles.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.detailsList(ctx, rows)
}

// ListAvailable returns active shuttles that still have seats.
func (s *Service) ListAvailable(ctx context.Context) ([]ShuttleDetails, error) {
	rows, err := s.shuttles.ListAvailable(ctx)
	if err != nil {
		return nil, err
	}
	return s.detailsList(ctx, rows)
}

// AssignDriver attaches an approved driver to the shuttle. Users without
// a driver profile, and drivers pending approval, are rejected.
func (s *Service) AssignDriver(ctx context.Context, shuttleID, driverID int64) (*ShuttleDetails, error) {
	if _, err := s.lookup(ctx, shuttleID); err != nil {
		return nil, err
	}

	profile, err := s.users.GetDriverProfile(ctx, driverID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrNotDriver
		}
		return nil, err
	}
	if !profile.IsApproved {
		return nil, ErrDriverNotApproved
	}

	if err := s.shuttles.AssignDriver(ctx, shuttleID, driverID); err != nil {
		return nil, err
	}
	s.byID.Invalidate(shuttleID)

	return s.GetByID(ctx, shuttleID)
}

// SetAvailability overrides the seat counter, clamping requests to the
// shuttle's capacity range, and broadcasts the new count.
func (s *Service) SetAvailability(ctx context.Context, shuttleID int64, seats int) (*ShuttleDetails, error) {
	sh, err := s.lookup(ctx, shuttleID)
	if err != nil {
		return nil, err
	}
	if seats < 0 || seats > sh.Capacity {
		return nil, ErrSeatsOutOfRange
	}

	if err := s.shuttles.SetAvailability(ctx, shuttleID, seats); err != nil {
		return nil, err
	}
	s.byID.Invalidate(shuttleID)

	if s.realtime != nil {
		s.realtime.PublishShuttleAvailability(shuttleID, seats)
	}

	return s.GetByID(ctx, shuttleID)
}

func (s *Service) SetActive(ctx context.Context, shuttleID int64, active bool) (*ShuttleDetails, error) {
	if _, err := s.lookup(ctx, shuttleID); err != nil {
		return nil, err
	}
	if err := s.shuttles.SetActive(ctx, shuttleID, active); err != nil {
		return nil, err
	}
	s.byID.Invalidate(shuttleID)

	return s.GetByID(ctx, shuttleID)
}

// UpdateLocation relays a driver's position to the shuttle's room. Only
// the driver assigned to the shuttle may report for it. Positions are
// ephemeral; nothing is persisted.
func (s *Service) UpdateLocation(ctx context.Context, shuttleID, driverID int64, req UpdateLocationRequest) error {
	sh, err := s.lookup(ctx, shuttleID)
	if err != nil {
		return err
	}
	if sh.DriverID == nil || *sh.DriverID != driverID {
		return ErrNotAssignedDriver
	}

	if s.realtime != nil {
		s.realtime.PublishShuttleLocation(shuttleID, map[string]interface{}{
			"shuttleId": shuttleID,
			"latitude":  req.Latitude,
			"longitude": req.Longitude,
			"timestamp": time.Now().UTC(),
		})
	}
	return nil
}

func (s *Service) lookup(ctx context.Context, shuttleID int64) (*domain.Shuttle, error) {
	if sh, ok := s.byID.Get(shuttleID); ok {
		return &sh, nil
	}
	sh, err := s.shuttles.GetByID(ctx, shuttleID)
	if err != nil {
		return nil, err
	}
	s.byID.Set(shuttleID, *sh)
	return sh, nil
}

func (s *Service) driverName(ctx context.Context, driverID *int64) string {
	if driverID == nil {
		return ""
	}
	names, err := s.users.NamesByIDs(ctx, []int64{*driverID})
	if err != nil {
		return ""
	}
	return names[*driverID]
}

func (s *Service) detailsList(ctx context.Context, rows []domain.Shuttle) ([]ShuttleDetails, error) {
	driverIDs := make([]int64, 0, len(rows))
	for _, sh := range rows {
		if sh.DriverID != nil {
			driverIDs = append(driverIDs, *sh.DriverID)
		}
	}
	names, err := s.users.NamesByIDs(ctx, driverIDs)
	if err != nil {
		return nil, err
	}

	out := make([]ShuttleDetails, 0, len(rows))
	for _, sh := range rows {
		name := ""
		if sh.DriverID != nil {
			name = names[*sh.DriverID]
		}
		out = append(out, toDetails(sh, name))
	}
	return out, nil
}
