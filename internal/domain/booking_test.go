package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransition_AllowedGraph(t *testing.T) {
	cases := []struct {
		name    string
		from    BookingStatus
		to      BookingStatus
		effect  SeatEffect
		wantErr error
	}{
		{"pending to confirmed", BookingPending, BookingConfirmed, SeatNone, nil},
		{"pending to canceled releases seat", BookingPending, BookingCanceled, SeatReleaseOne, nil},
		{"confirmed to canceled releases seat", BookingConfirmed, BookingCanceled, SeatReleaseOne, nil},
		{"confirmed to completed", BookingConfirmed, BookingCompleted, SeatNone, nil},
		{"pending to completed rejected", BookingPending, BookingCompleted, SeatNone, ErrInvalidTransition},
		{"confirmed to pending rejected", BookingConfirmed, BookingPending, SeatNone, ErrInvalidTransition},
		{"canceled is terminal", BookingCanceled, BookingConfirmed, SeatNone, ErrInvalidTransition},
		{"completed is terminal", BookingCompleted, BookingCanceled, SeatNone, ErrInvalidTransition},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			effect, err := Transition(tc.from, tc.to)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.effect, effect)
		})
	}
}

func TestTransition_SameStatusRejected(t *testing.T) {
	for _, s := range []BookingStatus{BookingPending, BookingConfirmed, BookingCanceled, BookingCompleted} {
		effect, err := Transition(s, s)
		assert.ErrorIs(t, err, ErrSameStatus, "status %s", s)
		assert.Equal(t, SeatNone, effect)
	}
}

func TestBookingStatus_Valid(t *testing.T) {
	assert.True(t, BookingConfirmed.Valid())
	assert.False(t, BookingStatus("expired").Valid())
}
