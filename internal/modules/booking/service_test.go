package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"campusshuttle/internal/database"
	"campusshuttle/internal/domain"
	"campusshuttle/internal/repository"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Connect(":memory:")
	require.NoError(t, err)

	// A single connection keeps the in-memory database alive and makes
	// concurrent transactions queue on the pool.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeNotifier) record(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeNotifier) NotifyBookingSubmitted(_ context.Context, studentID, bookingID int64, _ string) error {
	f.record("submitted:%d:%d", studentID, bookingID)
	return nil
}

func (f *fakeNotifier) NotifyNewBookingRequest(_ context.Context, driverID, bookingID int64) error {
	f.record("new_request:%d:%d", driverID, bookingID)
	return nil
}

func (f *fakeNotifier) NotifyBookingConfirmed(_ context.Context, studentID, bookingID int64, _ string) error {
	f.record("confirmed:%d:%d", studentID, bookingID)
	return nil
}

func (f *fakeNotifier) NotifyBookingCanceled(_ context.Context, studentID, bookingID int64, _ string) error {
	f.record("canceled:%d:%d", studentID, bookingID)
	return nil
}

func (f *fakeNotifier) NotifyTripCompleted(_ context.Context, studentID, bookingID int64, _ string) error {
	f.record("completed:%d:%d", studentID, bookingID)
	return nil
}

func (f *fakeNotifier) NotifyRatingReceived(_ context.Context, driverID, bookingID int64, rating int) error {
	f.record("rating:%d:%d:%d", driverID, bookingID, rating)
	return nil
}

func (f *fakeNotifier) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeRealtime struct {
	mu            sync.Mutex
	statusChanges []string
	availability  []int
}

func (f *fakeRealtime) PublishBookingStatusChange(userID, bookingID int64, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusChanges = append(f.statusChanges, fmt.Sprintf("%d:%d:%s", userID, bookingID, status))
}

func (f *fakeRealtime) PublishShuttleAvailability(_ int64, availableSeats int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.availability = append(f.availability, availableSeats)
}

func newTestService(t *testing.T) (*Service, *gorm.DB, *fakeNotifier, *fakeRealtime) {
	t.Helper()
	db := setupTestDB(t)
	notifs := &fakeNotifier{}
	rt := &fakeRealtime{}
	svc := NewService(
		db,
		repository.NewShuttleRepository(db),
		repository.NewBookingRepository(db),
		repository.NewUserRepository(db),
		notifs,
		rt,
		time.Minute,
	)
	return svc, db, notifs, rt
}

func createUser(t *testing.T, db *gorm.DB, name string, role domain.Role) int64 {
	t.Helper()
	u := domain.User{Name: name, Email: fmt.Sprintf("%s-%d@campus.test", role, time.Now().UnixNano()), Role: role}
	require.NoError(t, db.Create(&u).Error)
	return u.ID
}

func createShuttle(t *testing.T, db *gorm.DB, capacity, seats int, active bool, driverID *int64) *domain.Shuttle {
	t.Helper()
	s := domain.Shuttle{
		Name:           "Campus Loop",
		Capacity:       capacity,
		AvailableSeats: seats,
		Route:          "North Gate - Library",
		IsActive:       active,
		DriverID:       driverID,
	}
	require.NoError(t, db.Create(&s).Error)
	return &s
}

func insertBooking(t *testing.T, db *gorm.DB, shuttleID, studentID, driverID int64, status domain.BookingStatus) *domain.Booking {
	t.Helper()
	b := domain.Booking{
		ShuttleID:       shuttleID,
		StudentID:       studentID,
		DriverID:        driverID,
		Status:          status,
		BookingTime:     time.Now(),
		TripTime:        time.Now().Add(2 * time.Hour),
		PickupLocation:  "North Gate",
		DropoffLocation: "Library",
		Route:           "North Gate - Library",
	}
	require.NoError(t, db.Create(&b).Error)
	return &b
}

func reloadShuttle(t *testing.T, db *gorm.DB, id int64) *domain.Shuttle {
	t.Helper()
	var s domain.Shuttle
	require.NoError(t, db.First(&s, id).Error)
	return &s
}

func createReq(shuttleID int64) CreateBookingRequest {
	return CreateBookingRequest{
		ShuttleID:       shuttleID,
		TripTime:        time.Now().Add(2 * time.Hour),
		PickupLocation:  "North Gate",
		DropoffLocation: "Library",
	}
}

// Scenario: a one-seat shuttle takes exactly one booking; the second
// request is rejected with an exhaustion error.
func TestCreateBooking_LastSeat(t *testing.T) {
	svc, db, notifs, rt := newTestService(t)
	ctx := context.Background()

	student := createUser(t, db, "Aliya", domain.RoleStudent)
	driver := createUser(t, db, "Marat", domain.RoleDriver)
	shuttle := createShuttle(t, db, 1, 1, true, &driver)

	details, err := svc.CreateBooking(ctx, student, createReq(shuttle.ID))
	require.NoError(t, err)
	assert.Equal(t, domain.BookingPending, details.Status)
	assert.Equal(t, "Campus Loop", details.ShuttleName)
	assert.Equal(t, "Aliya", details.StudentName)
	assert.Equal(t, "Marat", details.DriverName)
	assert.Equal(t, "North Gate - Library", details.Route)

	assert.Equal(t, 0, reloadShuttle(t, db, shuttle.ID).AvailableSeats)
	assert.Contains(t, notifs.snapshot(), fmt.Sprintf("submitted:%d:%d", student, details.ID))
	assert.Contains(t, notifs.snapshot(), fmt.Sprintf("new_request:%d:%d", driver, details.ID))
	assert.Equal(t, []int{0}, rt.availability)

	_, err = svc.CreateBooking(ctx, student, createReq(shuttle.ID))
	assert.ErrorIs(t, err, repository.ErrNoSeats)
	assert.Equal(t, 0, reloadShuttle(t, db, shuttle.ID).AvailableSeats)
}

func TestCreateBooking_ShuttleNotFound(t *testing.T) {
	svc, db, _, _ := newTestService(t)
	student := createUser(t, db, "Aliya", domain.RoleStudent)

	_, err := svc.CreateBooking(context.Background(), student, createReq(9999))
	assert.ErrorIs(t, err, repository.ErrShuttleNotFound)
}

func TestCreateBooking_InactiveShuttle(t *testing.T) {
	svc, db, _, _ := newTestService(t)
	student := createUser(t, db, "Aliya", domain.RoleStudent)
	driver := createUser(t, db, "Marat", domain.RoleDriver)
	shuttle := createShuttle(t, db, 10, 10, false, &driver)

	_, err := svc.CreateBooking(context.Background(), student, createReq(shuttle.ID))
	assert.ErrorIs(t, err, repository.ErrShuttleInactive)
	assert.Equal(t, 10, reloadShuttle(t, db, shuttle.ID).AvailableSeats)
}

// A shuttle without a driver aborts the unit of work after the seat was
// provisionally taken; the rollback must return it.
func TestCreateBooking_NoDriverRollsBackSeat(t *testing.T) {
	svc, db, notifs, _ := newTestService(t)
	student := createUser(t, db, "Aliya", domain.RoleStudent)
	shuttle := createShuttle(t, db, 5, 5, true, nil)

	_, err := svc.CreateBooking(context.Background(), student, createReq(shuttle.ID))
	assert.ErrorIs(t, err, ErrNoDriver)

	assert.Equal(t, 5, reloadShuttle(t, db, shuttle.ID).AvailableSeats)
	assert.Empty(t, notifs.snapshot())

	var count int64
	require.NoError(t, db.Model(&domain.Booking{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateBooking_PastTripTimeRejected(t *testing.T) {
	svc, db, _, _ := newTestService(t)
	student := createUser(t, db, "Aliya", domain.RoleStudent)
	driver := createUser(t, db, "Marat", domain.RoleDriver)
	shuttle := createShuttle(t, db, 5, 5, true, &driver)

	req := createReq(shuttle.ID)
	req.TripTime = time.Now().Add(-time.Hour)

	_, err := svc.CreateBooking(context.Background(), student, req)
	assert.ErrorIs(t, err, ErrTripTimePast)
	assert.Equal(t, 5, reloadShuttle(t, db, shuttle.ID).AvailableSeats)
}

func TestCreateBooking_ExplicitRouteOverridesShuttle(t *testing.T) {
	svc, db, _, _ := newTestService(t)
	student := createUser(t, db, "Aliya", domain.RoleStudent)
	driver := createUser(t, db, "Marat", domain.RoleDriver)
	shuttle := createShuttle(t, db, 5, 5, true, &driver)

	req := createReq(shuttle.ID)
	req.Route = "Dorms Express"

	details, err := svc.CreateBooking(context.Background(), student, req)
	require.NoError(t, err)
	assert.Equal(t, "Dorms Express", details.Route)
}

// Scenario: confirming a pending booking changes no seat counts and
// notifies the student.
func TestUpdateStatus_Confirm(t *testing.T) {
	svc, db, notifs, rt := newTestService(t)
	ctx := context.Background()

	student := createUser(t, db, "Aliya", domain.RoleStudent)
	driver := createUser(t, db, "Marat", domain.RoleDriver)
	shuttle := createShuttle(t, db, 5, 4, true, &driver)
	b := insertBooking(t, db, shuttle.ID, student, driver, domain.BookingPending)

	details, err := svc.UpdateBookingStatus(ctx, b.ID, domain.BookingConfirmed)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, details.Status)

	assert.Equal(t, 4, reloadShuttle(t, db, shuttle.ID).AvailableSeats)
	assert.Contains(t, notifs.snapshot(), fmt.Sprintf("confirmed:%d:%d", student, b.ID))
	assert.Equal(t, []string{fmt.Sprintf("%d:%d:confirmed", student, b.ID)}, rt.statusChanges)
	assert.Empty(t, rt.availability)
}

// Scenario: canceling a confirmed booking returns exactly one seat.
func TestUpdateStatus_CancelReturnsSeat(t *testing.T) {
	svc, db, notifs, rt := newTestService(t)
	ctx := context.Background()

	student := createUser(t, db, "Aliya", domain.RoleStudent)
	driver := createUser(t, db, "Marat", domain.RoleDriver)
	shuttle := createShuttle(t, db, 1, 0, true, &driver)
	b := insertBooking(t, db, shuttle.ID, student, driver, domain.BookingConfirmed)

	details, err := svc.UpdateBookingStatus(ctx, b.ID, domain.BookingCanceled)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCanceled, details.Status)

	assert.Equal(t, 1, reloadShuttle(t, db, shuttle.ID).AvailableSeats)
	assert.Contains(t, notifs.snapshot(), fmt.Sprintf("canceled:%d:%d", student, b.ID))
	assert.Equal(t, []int{1}, rt.availability)
}

// Scenario: requesting the status a booking already holds is an error and
// mutates nothing.
func TestUpdateStatus_SameStatusRejected(t *testing.T) {
	svc, db, notifs, rt := newTestService(t)
	ctx := context.Background()

	student := createUser(t, db, "Aliya", domain.RoleStudent)
	driver := createUser(t, db, "Marat", domain.RoleDriver)
	shuttle := createShuttle(t, db, 5, 3, true, &driver)
	b := insertBooking(t, db, shuttle.ID, student, driver, domain.BookingConfirmed)

	_, err := svc.UpdateBookingStatus(ctx, b.ID, domain.BookingConfirmed)
	assert.ErrorIs(t, err, domain.ErrSameStatus)

	var cur domain.Booking
	require.NoError(t, db.First(&cur, b.ID).Error)
	assert.Equal(t, domain.BookingConfirmed, cur.Status)
	assert.Equal(t, 3, reloadShuttle(t, db, shuttle.ID).AvailableSeats)
	assert.Empty(t, notifs.snapshot())
	assert.Empty(t, rt.statusChanges)
}

func TestUpdateStatus_CancelingCanceledRejected(t *testing.T) {
	svc, db, _, _ := newTestService(t)
	ctx := context.Background()

	student := createUser(t, db, "Aliya", domain.RoleStudent)
	driver := createUser(t, db, "Marat", domain.RoleDriver)
	shuttle := createShuttle(t, db, 5, 3, true, &driver)
	b := insertBooking(t, db, shuttle.ID, student, driver, domain.BookingCanceled)

	_, err := svc.UpdateBookingStatus(ctx, b.ID, domain.BookingCanceled)
	assert.ErrorIs(t, err, domain.ErrSameStatus)
	assert.Equal(t, 3, reloadShuttle(t, db, shuttle.ID).AvailableSeats)
}

func TestUpdateStatus_InvalidTransitions(t *testing.T) {
	svc, db, _, _ := newTestService(t)
	ctx := context.Background()

	student := createUser(t, db, "Aliya", domain.RoleStudent)
	driver := createUser(t, db, "Marat", domain.RoleDriver)
	shuttle := createShuttle(t, db, 5, 3, true, &driver)

	pending := insertBooking(t, db, shuttle.ID, student, driver, domain.BookingPending)
	_, err := svc.UpdateBookingStatus(ctx, pending.ID, domain.BookingCompleted)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	completed := insertBooking(t, db, shuttle.ID, student, driver, domain.BookingCompleted)
	_, err = svc.UpdateBookingStatus(ctx, completed.ID, domain.BookingCanceled)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, 3, reloadShuttle(t, db, shuttle.ID).AvailableSeats)
}

func TestUpdateStatus_NotFound(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.UpdateBookingStatus(context.Background(), 12345, domain.BookingConfirmed)
	assert.ErrorIs(t, err, repository.ErrBookingNotFound)
}

// Canceling survives the shuttle having been deleted; the seat return is
// skipped because there is nothing to return it to.
func TestUpdateStatus_CancelWithMissingShuttle(t *testing.T) {
	svc, db, _, _ := newTestService(t)
	ctx := context.Background()

	student := createUser(t, db, "Aliya", domain.RoleStudent)
	driver := createUser(t, db, "Marat", domain.RoleDriver)
	b := insertBooking(t, db, 777, student, driver, domain.BookingPending)

	details, err := svc.UpdateBookingStatus(ctx, b.ID, domain.BookingCanceled)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCanceled, details.Status)
	assert.Equal(t, "the shuttle", details.ShuttleName)
}

// Scenario: rating guards — range, ownership, completed-only, write-once.
func TestAddBookingRating(t *testing.T) {
	svc, db, notifs, _ := newTestService(t)
	ctx := context.Background()

	student := createUser(t, db, "Aliya", domain.RoleStudent)
	other := createUser(t, db, "Dana", domain.RoleStudent)
	driver := createUser(t, db, "Marat", domain.RoleDriver)
	shuttle := createShuttle(t, db, 5, 3, true, &driver)
	b := insertBooking(t, db, shuttle.ID, student, driver, domain.BookingCompleted)

	_, err := svc.AddBookingRating(ctx, b.ID, student, 6, nil)
	assert.ErrorIs(t, err, ErrRatingRange)

	_, err = svc.AddBookingRating(ctx, b.ID, student, 0, nil)
	assert.ErrorIs(t, err, ErrRatingRange)

	_, err = svc.AddBookingRating(ctx, b.ID, other, 4, nil)
	assert.ErrorIs(t, err, ErrNotOwner)

	pending := insertBooking(t, db, shuttle.ID, student, driver, domain.BookingPending)
	_, err = svc.AddBookingRating(ctx, pending.ID, student, 4, nil)
	assert.ErrorIs(t, err, ErrNotCompleted)

	feedback := "Smooth ride"
	details, err := svc.AddBookingRating(ctx, b.ID, student, 4, &feedback)
	require.NoError(t, err)
	require.NotNil(t, details.Rating)
	assert.Equal(t, 4, *details.Rating)
	assert.Contains(t, notifs.snapshot(), fmt.Sprintf("rating:%d:%d:4", driver, b.ID))

	// Rating is write-once.
	_, err = svc.AddBookingRating(ctx, b.ID, student, 5, nil)
	assert.ErrorIs(t, err, ErrAlreadyRated)

	var cur domain.Booking
	require.NoError(t, db.First(&cur, b.ID).Error)
	require.NotNil(t, cur.Rating)
	assert.Equal(t, 4, *cur.Rating)
}

func TestAddBookingRating_NotFound(t *testing.T) {
	svc, db, _, _ := newTestService(t)
	student := createUser(t, db, "Aliya", domain.RoleStudent)

	_, err := svc.AddBookingRating(context.Background(), 9999, student, 4, nil)
	assert.ErrorIs(t, err, repository.ErrBookingNotFound)
}

// With k seats and N > k concurrent requests, exactly k succeed and the
// rest fail with the exhaustion error; the counter ends at zero.
func TestCreateBooking_ConcurrentExhaustion(t *testing.T) {
	svc, db, _, _ := newTestService(t)
	ctx := context.Background()

	driver := createUser(t, db, "Marat", domain.RoleDriver)
	shuttle := createShuttle(t, db, 3, 3, true, &driver)

	const n = 8
	students := make([]int64, n)
	for i := range students {
		students[i] = createUser(t, db, fmt.Sprintf("Student %d", i), domain.RoleStudent)
	}

	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreateBooking(ctx, students[i], createReq(shuttle.ID))
		}(i)
	}
	wg.Wait()

	succeeded, exhausted := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, repository.ErrNoSeats):
			exhausted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 3, succeeded)
	assert.Equal(t, 5, exhausted)

	assert.Equal(t, 0, reloadShuttle(t, db, shuttle.ID).AvailableSeats)

	var count int64
	require.NoError(t, db.Model(&domain.Booking{}).Count(&count).Error)
	assert.EqualValues(t, 3, count)
}

func TestListByStudentAndDriver(t *testing.T) {
	svc, db, _, _ := newTestService(t)
	ctx := context.Background()

	student := createUser(t, db, "Aliya", domain.RoleStudent)
	other := createUser(t, db, "Dana", domain.RoleStudent)
	driver := createUser(t, db, "Marat", domain.RoleDriver)
	shuttle := createShuttle(t, db, 5, 5, true, &driver)

	insertBooking(t, db, shuttle.ID, student, driver, domain.BookingPending)
	insertBooking(t, db, shuttle.ID, student, driver, domain.BookingConfirmed)
	insertBooking(t, db, shuttle.ID, other, driver, domain.BookingPending)

	mine, err := svc.ListByStudent(ctx, student)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	for _, d := range mine {
		assert.Equal(t, "Aliya", d.StudentName)
		assert.Equal(t, "Campus Loop", d.ShuttleName)
		assert.Equal(t, "Marat", d.DriverName)
	}

	byDriver, err := svc.ListByDriver(ctx, driver)
	require.NoError(t, err)
	assert.Len(t, byDriver, 3)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
