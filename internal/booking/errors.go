// Package booking implements the availability checker and the reservation
// writer: the two pieces of business logic in front of the reservas table.
// Everything else in the service is routing and persistence around them.
package booking

import (
	"errors"
	"fmt"
)

// ErrValidation marks missing or malformed input. Handlers translate it
// into HTTP 400.
var ErrValidation = errors.New("validation error")

// ErrSlotConflict marks a technician double-booking detected at write
// time. Handlers translate it into HTTP 409.
var ErrSlotConflict = errors.New("technician already booked for this slot")

// NotFoundError reports that a referenced entity does not exist (or does
// not hold the required role). Entity names the failing reference so the
// response can say which one. Handlers translate it into HTTP 404.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Entity)
}

func notFound(entity string) error { return &NotFoundError{Entity: entity} }

func validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
