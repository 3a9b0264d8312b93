package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrSlotConflict is returned when a requested time interval overlaps an
	// existing booking.
	ErrSlotConflict = errors.New("slot conflict")
	// ErrUpstreamCalendar is returned when the external calendar provider
	// rejected or failed a mirrored write. Transient; the same save may be
	// retried by the user.
	ErrUpstreamCalendar = errors.New("upstream calendar failure")
	// ErrCalendarNotConnected is returned when an action requires a connected
	// external calendar and none is.
	ErrCalendarNotConnected = errors.New("calendar not connected")
	// ErrCalendarTokenExpired is returned when the external calendar
	// authorization is no longer valid and must be renewed.
	ErrCalendarTokenExpired = errors.New("calendar token expired")
)

// ValidationError reports a field that failed validation, either in the edit
// drawer before submit or at the persistence boundary.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
