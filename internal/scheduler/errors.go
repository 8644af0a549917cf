package scheduler

import (
	"errors"
	"fmt"
)

// ErrConflictViolation signals an attempt to book an occupied (venue, day, time) triple.
// It means the assigner broke its own contract and the run must not be persisted.
var ErrConflictViolation = errors.New("scheduler: booking conflict")

// ConflictError describes the booking that collided with an existing one.
type ConflictError struct {
	Attempted Booking
	Existing  Booking
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s on %s %s already held by %q (attempted by %q)",
		ErrConflictViolation.Error(),
		e.Attempted.Venue,
		e.Attempted.Day,
		e.Attempted.Time,
		e.Existing.CourseCode,
		e.Attempted.CourseCode,
	)
}

// Unwrap allows errors.Is(err, ErrConflictViolation).
func (e *ConflictError) Unwrap() error {
	return ErrConflictViolation
}
