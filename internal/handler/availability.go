package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/vaporlimpio/reservas-api/internal/booking"
)

// AvailabilityHandler answers slot availability queries.
type AvailabilityHandler struct {
	Checker *booking.Checker
	Log     *zap.Logger
}

func NewAvailabilityHandler(checker *booking.Checker, log *zap.Logger) *AvailabilityHandler {
	if checker == nil {
		panic("nil checker passed to NewAvailabilityHandler")
	}
	return &AvailabilityHandler{Checker: checker, Log: log}
}

// Check answers GET /v1/availability. Query parameters: date_time
// (required), customer_id (required), technician_id (optional). The
// answer is the tri-state result: available, or unavailable with the
// first blocking reason found.
func (h *AvailabilityHandler) Check(c echo.Context) error {
	dateTime := c.QueryParam("date_time")
	if dateTime == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date_time is required"})
	}
	customerID, err := strconv.ParseUint(c.QueryParam("customer_id"), 10, 64)
	if err != nil || customerID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "customer_id is required"})
	}
	var technicianID *uint64
	if raw := c.QueryParam("technician_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "technician_id must be a positive integer"})
		}
		technicianID = &id
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Checker.Check(ctx, dateTime, customerID, technicianID)
	if err != nil {
		return writeBookingError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, res)
}

// writeBookingError maps booking-layer errors onto the HTTP taxonomy:
// validation 400, missing reference 404 (naming the entity), slot
// conflict 409, anything else 500.
func writeBookingError(c echo.Context, log *zap.Logger, err error) error {
	var nf *booking.NotFoundError
	switch {
	case errors.Is(err, booking.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.As(err, &nf):
		return c.JSON(http.StatusNotFound, echo.Map{"error": nf.Error()})
	case errors.Is(err, booking.ErrSlotConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	default:
		log.Error("booking operation failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
