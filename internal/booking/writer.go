package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vaporlimpio/reservas-api/internal/model"
	"github.com/vaporlimpio/reservas-api/internal/repository"
)

// ConfirmationData is what the notification side needs to confirm a
// booking to the customer without querying the database again.
type ConfirmationData struct {
	ReservationID uint64
	Code          string
	CustomerName  string
	CustomerEmail string
	DateTime      string
	ServiceType   string
	TotalPrice    float64
	Notes         string
}

// Notifier dispatches the post-commit confirmation. Implementations must
// be safe to call from a goroutine; errors are theirs to log because the
// booking already succeeded.
type Notifier interface {
	ReservationBooked(ctx context.Context, data ConfirmationData)
}

// CreateInput carries the fields of POST /v1/reservations. Optional
// references are pointers; DateTime is the raw wire string so that
// parse failures are reported as validation errors here, in one place.
type CreateInput struct {
	CustomerID    uint64
	TechnicianID  *uint64
	VehicleID     *uint64
	ServiceTypeID uint64
	LocationID    uint64
	DateTime      string
	TotalPrice    float64
	StatusID      *uint64
	Notes         *string
}

// Created is the writer's answer: the generated identity plus the display
// fields the 201 response carries.
type Created struct {
	ID              uint64  `json:"id"`
	Code            string  `json:"codigo"`
	CustomerName    string  `json:"customer_name"`
	DateTime        string  `json:"date_time"`
	TotalPrice      float64 `json:"total_price"`
	ServiceTypeName string  `json:"service_type_name"`
}

// Writer persists new reservations. Every precondition check and the
// insert run inside one transaction; each failure aborts the whole write.
// The confirmation notification fires after commit and never affects the
// request outcome.
type Writer struct {
	users        *repository.UserRepo
	statuses     *repository.StatusRepo
	serviceTypes *repository.ServiceTypeRepo
	locations    *repository.LocationRepo
	vehicles     *repository.VehicleRepo
	reservations *repository.ReservationRepo
	notifier     Notifier
	log          *zap.Logger
}

// NewWriter constructs a Writer. notifier may be nil when no notification
// transport is configured.
func NewWriter(
	users *repository.UserRepo,
	statuses *repository.StatusRepo,
	serviceTypes *repository.ServiceTypeRepo,
	locations *repository.LocationRepo,
	vehicles *repository.VehicleRepo,
	reservations *repository.ReservationRepo,
	notifier Notifier,
	log *zap.Logger,
) *Writer {
	if users == nil || statuses == nil || serviceTypes == nil || locations == nil || vehicles == nil || reservations == nil {
		panic("nil repository passed to NewWriter")
	}
	return &Writer{
		users:        users,
		statuses:     statuses,
		serviceTypes: serviceTypes,
		locations:    locations,
		vehicles:     vehicles,
		reservations: reservations,
		notifier:     notifier,
		log:          log,
	}
}

// Create validates every reference, re-checks the technician slot and
// inserts the reservation, all in one transaction. The returned error is
// one of: ErrValidation, *NotFoundError (naming the failing reference),
// ErrSlotConflict, or an untagged internal error.
func (w *Writer) Create(ctx context.Context, in CreateInput) (*Created, error) {
	if in.CustomerID == 0 {
		return nil, validationf("customer_id is required")
	}
	if in.ServiceTypeID == 0 {
		return nil, validationf("service_type_id is required")
	}
	if in.LocationID == 0 {
		return nil, validationf("location_id is required")
	}
	if in.TotalPrice < 0 {
		return nil, validationf("total_price must not be negative")
	}
	at, err := ParseDateTime(in.DateTime)
	if err != nil {
		return nil, err
	}

	tx, err := w.reservations.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	customer, err := w.users.GetActiveWithRoleTx(ctx, tx, in.CustomerID, model.RoleCustomer)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, notFound("customer")
		}
		return nil, err
	}
	if in.TechnicianID != nil {
		if _, err := w.users.GetActiveWithRoleTx(ctx, tx, *in.TechnicianID, model.RoleTechnician); err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return nil, notFound("technician")
			}
			return nil, err
		}
	}

	var status *model.Status
	if in.StatusID != nil {
		status, err = w.statuses.GetByIDTx(ctx, tx, *in.StatusID)
	} else {
		status, err = w.statuses.GetByNameTx(ctx, tx, model.StatusPending)
	}
	if err != nil {
		if errors.Is(err, repository.ErrStatusNotFound) {
			return nil, notFound("status")
		}
		return nil, err
	}

	serviceType, err := w.serviceTypes.GetActiveTx(ctx, tx, in.ServiceTypeID)
	if err != nil {
		if errors.Is(err, repository.ErrServiceTypeNotFound) {
			return nil, notFound("service type")
		}
		return nil, err
	}
	if _, err := w.locations.GetActiveTx(ctx, tx, in.LocationID); err != nil {
		if errors.Is(err, repository.ErrLocationNotFound) {
			return nil, notFound("location")
		}
		return nil, err
	}
	if in.VehicleID != nil {
		if _, err := w.vehicles.GetActiveTx(ctx, tx, *in.VehicleID); err != nil {
			if errors.Is(err, repository.ErrVehicleNotFound) {
				return nil, notFound("vehicle")
			}
			return nil, err
		}
	}

	// Re-check the technician slot at write time. The availability check
	// runs outside any lock, so this closes the window between check and
	// write; the unique index backs it up if two writers still race.
	if in.TechnicianID != nil {
		n, err := w.reservations.CountActiveByTechnicianAtTx(ctx, tx, *in.TechnicianID, at)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, ErrSlotConflict
		}
	}

	active := true
	for _, terminal := range model.TerminalStatuses {
		if status.Name == terminal {
			active = false
		}
	}
	rec := &repository.ReservationRecord{
		Code:          uuid.NewString(),
		CustomerID:    in.CustomerID,
		TechnicianID:  in.TechnicianID,
		VehicleID:     in.VehicleID,
		ServiceTypeID: in.ServiceTypeID,
		LocationID:    in.LocationID,
		StatusID:      status.ID,
		ScheduledAt:   at,
		TotalPrice:    in.TotalPrice,
		Notes:         in.Notes,
		Active:        active,
	}
	if err := w.reservations.CreateTx(ctx, tx, rec); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, ErrSlotConflict
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	created := &Created{
		ID:              rec.ID,
		Code:            rec.Code,
		CustomerName:    customer.Name,
		DateTime:        at.Format(time.RFC3339),
		TotalPrice:      in.TotalPrice,
		ServiceTypeName: serviceType.Name,
	}
	w.log.Info("reservation created",
		zap.Uint64("reservation_id", rec.ID),
		zap.Uint64("customer_id", in.CustomerID),
		zap.Time("slot", at))

	// Confirmation is best effort and must not fail the request.
	if w.notifier != nil {
		data := ConfirmationData{
			ReservationID: rec.ID,
			Code:          rec.Code,
			CustomerName:  customer.Name,
			CustomerEmail: customer.Email,
			DateTime:      at.Format("2006-01-02 15:04"),
			ServiceType:   serviceType.Name,
			TotalPrice:    in.TotalPrice,
		}
		if in.Notes != nil {
			data.Notes = *in.Notes
		}
		go w.notifier.ReservationBooked(context.WithoutCancel(ctx), data)
	}
	return created, nil
}
