package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/vaporlimpio/reservas-api/internal/booking"
	"github.com/vaporlimpio/reservas-api/internal/model"
	"github.com/vaporlimpio/reservas-api/internal/repository"
)

// ReservationHandler serves the reservation endpoints. Creation goes
// through the booking writer; reads and updates hit the repository
// directly.
type ReservationHandler struct {
	Writer       *booking.Writer
	Reservations *repository.ReservationRepo
	Log          *zap.Logger
}

func NewReservationHandler(w *booking.Writer, r *repository.ReservationRepo, log *zap.Logger) *ReservationHandler {
	if w == nil || r == nil {
		panic("nil dependency passed to NewReservationHandler")
	}
	return &ReservationHandler{Writer: w, Reservations: r, Log: log}
}

type createReservationReq struct {
	CustomerID    uint64  `json:"customer_id"`
	TechnicianID  *uint64 `json:"technician_id"`
	VehicleID     *uint64 `json:"vehicle_id"`
	ServiceTypeID uint64  `json:"service_type_id"`
	LocationID    uint64  `json:"location_id"`
	DateTime      string  `json:"date_time"`
	TotalPrice    float64 `json:"total_price"`
	StatusID      *uint64 `json:"status_id"`
	Notes         *string `json:"notes"`
}

// Create answers POST /v1/reservations. Customers always book for
// themselves; the body's customer_id is honored only for admins.
func (h *ReservationHandler) Create(c echo.Context) error {
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	if actorRole(c) != model.RoleAdmin {
		uid, err := getUserID(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
		}
		req.CustomerID = uid
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	created, err := h.Writer.Create(ctx, booking.CreateInput{
		CustomerID:    req.CustomerID,
		TechnicianID:  req.TechnicianID,
		VehicleID:     req.VehicleID,
		ServiceTypeID: req.ServiceTypeID,
		LocationID:    req.LocationID,
		DateTime:      req.DateTime,
		TotalPrice:    req.TotalPrice,
		StatusID:      req.StatusID,
		Notes:         req.Notes,
	})
	if err != nil {
		return writeBookingError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// List answers GET /v1/reservations, scoped by role: admins see all,
// customers their own bookings, technicians their assignments.
func (h *ReservationHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}

	var f repository.ListFilter
	switch actorRole(c) {
	case model.RoleAdmin:
		// unfiltered
	case model.RoleTechnician:
		f.TechnicianID = uid
	default:
		f.CustomerID = uid
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Reservations.List(ctx, f)
	if err != nil {
		h.Log.Error("list reservations failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "count": len(items)})
}

// Get answers GET /v1/reservations/:id. Customers and technicians can
// only see reservations they are part of.
func (h *ReservationHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	d, err := h.Reservations.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		h.Log.Error("get reservation failed", zap.Error(err), zap.Uint64("id", id))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	switch actorRole(c) {
	case model.RoleAdmin:
	case model.RoleTechnician:
		if d.TechnicianID == nil || *d.TechnicianID != uid {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
	default:
		if d.CustomerID != uid {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
	}
	return c.JSON(http.StatusOK, d)
}

type updateReservationReq struct {
	TechnicianID  *uint64  `json:"technician_id"`
	VehicleID     *uint64  `json:"vehicle_id"`
	ServiceTypeID *uint64  `json:"service_type_id"`
	LocationID    *uint64  `json:"location_id"`
	StatusID      *uint64  `json:"status_id"`
	DateTime      *string  `json:"date_time"`
	TotalPrice    *float64 `json:"total_price"`
	Notes         *string  `json:"notes"`
}

// Update answers PUT /v1/reservations/:id with a partial update. Only
// fields present in the body change. References are applied as given
// without re-running the booking checks; the slot index still rejects a
// move onto an occupied technician slot.
func (h *ReservationHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	upd := repository.ReservationUpdate{
		TechnicianID:  req.TechnicianID,
		VehicleID:     req.VehicleID,
		ServiceTypeID: req.ServiceTypeID,
		LocationID:    req.LocationID,
		StatusID:      req.StatusID,
		TotalPrice:    req.TotalPrice,
		Notes:         req.Notes,
	}
	if req.DateTime != nil {
		at, err := booking.ParseDateTime(*req.DateTime)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date_time"})
		}
		upd.ScheduledAt = &at
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Reservations.UpdatePartial(ctx, id, upd); err != nil {
		switch {
		case errors.Is(err, repository.ErrReservationNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		case errors.Is(err, repository.ErrSlotTaken):
			return c.JSON(http.StatusConflict, echo.Map{"error": "technician already booked for this slot"})
		default:
			h.Log.Error("update reservation failed", zap.Error(err), zap.Uint64("id", id))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}

	d, err := h.Reservations.GetDetail(ctx, id)
	if err != nil {
		return c.JSON(http.StatusOK, echo.Map{"message": "updated"})
	}
	return c.JSON(http.StatusOK, d)
}

// Delete answers DELETE /v1/reservations/:id (admin only, hard delete).
func (h *ReservationHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Reservations.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		h.Log.Error("delete reservation failed", zap.Error(err), zap.Uint64("id", id))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
