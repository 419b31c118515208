package booking

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/vaporlimpio/reservas-api/internal/model"
	"github.com/vaporlimpio/reservas-api/internal/repository"
)

// Unavailability reasons surfaced to the caller. Conflict detection is
// exact-timestamp only: two bookings one minute apart do not collide.
const (
	ReasonCustomerBooked   = "customer already booked"
	ReasonTechnicianBooked = "technician already booked"
	ReasonCapacityReached  = "capacity reached"
)

// dateTimeLayout is the wire format accepted for fecha_hora. RFC3339 is
// accepted as well for clients that send a zone offset.
const dateTimeLayout = "2006-01-02T15:04:05"

// ParseDateTime parses the date_time wire value, returning a
// validation-tagged error on malformed input.
func ParseDateTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, validationf("date_time is required")
	}
	if t, err := time.Parse(dateTimeLayout, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, validationf("date_time must be ISO-8601 (%s)", dateTimeLayout)
	}
	return t.UTC(), nil
}

// Result is the tri-state outcome of an availability check. When
// Available is false, Reason explains why. ScheduledCount and
// RemainingCapacity expose the current slot load for operator visibility.
type Result struct {
	Available         bool   `json:"available"`
	Reason            string `json:"reason,omitempty"`
	ScheduledCount    int    `json:"scheduled_count"`
	RemainingCapacity int    `json:"remaining_capacity"`
}

// Checker answers "can this customer/technician be booked at this
// date-time?" before any write occurs. Reads are not locked and may be
// stale relative to a concurrently committing write; the writer re-checks
// under its transaction.
type Checker struct {
	users        *repository.UserRepo
	reservations *repository.ReservationRepo
	capacity     int
	log          *zap.Logger
}

// NewChecker constructs a Checker. capacity is the business-configured
// ceiling of concurrent reservations per exact time slot.
func NewChecker(users *repository.UserRepo, reservations *repository.ReservationRepo, capacity int, log *zap.Logger) *Checker {
	return &Checker{users: users, reservations: reservations, capacity: capacity, log: log}
}

// Check runs the availability algorithm:
//
//  1. the customer must exist and hold the customer role,
//  2. the customer must not already hold an active reservation at the slot,
//  3. when given, the technician must exist with the technician role and
//     must not be booked at the slot,
//  4. the system-wide active count at the slot must be below capacity.
//
// Validation failures and unknown references surface as errors; a taken
// slot is a non-error Result with Available=false.
func (c *Checker) Check(ctx context.Context, dateTime string, customerID uint64, technicianID *uint64) (*Result, error) {
	at, err := ParseDateTime(dateTime)
	if err != nil {
		return nil, err
	}
	if customerID == 0 {
		return nil, validationf("customer_id is required")
	}

	if _, err := c.users.GetActiveWithRole(ctx, customerID, model.RoleCustomer); err != nil {
		if err == repository.ErrUserNotFound {
			return nil, notFound("customer")
		}
		return nil, err
	}
	n, err := c.reservations.CountActiveByCustomerAt(ctx, customerID, at)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return c.unavailable(ctx, at, ReasonCustomerBooked)
	}

	if technicianID != nil {
		if _, err := c.users.GetActiveWithRole(ctx, *technicianID, model.RoleTechnician); err != nil {
			if err == repository.ErrUserNotFound {
				return nil, notFound("technician")
			}
			return nil, err
		}
		n, err := c.reservations.CountActiveByTechnicianAt(ctx, *technicianID, at)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return c.unavailable(ctx, at, ReasonTechnicianBooked)
		}
	}

	total, err := c.reservations.CountActiveAt(ctx, at)
	if err != nil {
		return nil, err
	}
	if total >= c.capacity {
		c.log.Debug("slot at capacity",
			zap.Time("slot", at),
			zap.Int("scheduled", total),
			zap.Int("capacity", c.capacity))
		return &Result{Available: false, Reason: ReasonCapacityReached, ScheduledCount: total}, nil
	}
	return &Result{Available: true, ScheduledCount: total, RemainingCapacity: c.capacity - total}, nil
}

// unavailable builds a negative result carrying the current slot load.
func (c *Checker) unavailable(ctx context.Context, at time.Time, reason string) (*Result, error) {
	total, err := c.reservations.CountActiveAt(ctx, at)
	if err != nil {
		return nil, err
	}
	remaining := c.capacity - total
	if remaining < 0 {
		remaining = 0
	}
	return &Result{Available: false, Reason: reason, ScheduledCount: total, RemainingCapacity: remaining}, nil
}
