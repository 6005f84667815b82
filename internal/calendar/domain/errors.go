package calendar

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDate is matched by every InvalidDateError.
	ErrInvalidDate = errors.New("calendar: invalid date")
	// ErrLoadFailure is returned when stations cannot be loaded from cache or remote.
	ErrLoadFailure = errors.New("calendar: load failure")
	// ErrBookingNotFound is returned when a reschedule target does not exist.
	ErrBookingNotFound = errors.New("calendar: booking not found")
	// ErrInvalidEdge is returned for an unknown edge selector.
	ErrInvalidEdge = errors.New("calendar: invalid edge selector")
	// ErrNoStationSelected is returned when a view needs a selected station.
	ErrNoStationSelected = errors.New("calendar: no station selected")
)

// InvalidDateError reports unparseable date input.
type InvalidDateError struct {
	Input string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("calendar: invalid date input: %q", e.Input)
}

// Unwrap lets errors.Is match ErrInvalidDate.
func (e *InvalidDateError) Unwrap() error { return ErrInvalidDate }
