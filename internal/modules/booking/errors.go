package booking

import "errors"

var (
	ErrTripTimePast = errors.New("trip time must be in the future")
	ErrNoDriver     = errors.New("shuttle has no assigned driver")
	ErrRatingRange  = errors.New("rating must be between 1 and 5")
	ErrNotCompleted = errors.New("only completed trips can be rated")
	ErrNotOwner     = errors.New("only the booking's student can rate it")
	ErrAlreadyRated = errors.New("booking has already been rated")
)
