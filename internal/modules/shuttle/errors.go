package shuttle

import "errors"

var (
	ErrDriverNotApproved = errors.New("driver is not approved")
	ErrNotDriver         = errors.New("user is not a driver")
	ErrSeatsOutOfRange   = errors.New("available seats out of range")
	ErrNotAssignedDriver = errors.New("driver is not assigned to this shuttle")
)
