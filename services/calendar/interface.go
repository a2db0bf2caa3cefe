package calendar

import (
	"context"
	"errors"

	"lumident/models"
)

// ErrSlotTaken means the requested interval was reserved by someone else
// between availability display and reservation. Lost races are expected.
var ErrSlotTaken = errors.New("calendar: slot already reserved")

// AdapterError marks a transport-level failure talking to the calendar
// service. It is surfaced immediately, never retried.
type AdapterError struct {
	Err error
}

func (e *AdapterError) Error() string { return "calendar: adapter failure: " + e.Err.Error() }

func (e *AdapterError) Unwrap() error { return e.Err }

// Service reserves appointment slots in the clinic calendar. Reserve must be
// called at most once per booking, strictly after payment verification.
type Service interface {
	Reserve(ctx context.Context, serviceID string, slot models.Slot) (string, error)
}
