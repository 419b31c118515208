// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrStatusProtected indicates that a critical status catalog
// entry cannot be deleted, while ErrSlotTaken signals that the filtered
// unique index on (tecnico_id, fecha_hora, activa) rejected an insert.
package repository

import (
	"errors"
	"strings"
)

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrSlotTaken is returned when an insert collides with another active
// reservation for the same technician and date-time. Handlers should
// translate this into an HTTP 409 response.
var ErrSlotTaken = errors.New("technician slot already taken")

// ErrStatusProtected is returned when deleting one of the status catalog
// entries the booking flow depends on (pendiente, confirmada, completada,
// cancelada). Handlers should translate this into an HTTP 409 response.
var ErrStatusProtected = errors.New("status is protected")

// ErrAlreadyRated is returned when a reservation already has a rating.
var ErrAlreadyRated = errors.New("reservation already rated")

// ErrNameExists is returned when a catalog insert or update collides with
// a unique name or plate.
var ErrNameExists = errors.New("name already exists")

// isDuplicate reports whether err is a MySQL duplicate-key error (1062).
// The driver does not expose a typed error for this, so the code is
// matched in the message, same as the email-uniqueness check.
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
