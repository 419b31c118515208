package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/vaporlimpio/reservas-api/internal/model"
	"github.com/vaporlimpio/reservas-api/internal/repository"
)

// RatingHandler serves reservation ratings: a customer scores an own
// reservation once, and anyone can read a technician's scores.
type RatingHandler struct {
	Ratings      *repository.RatingRepo
	Reservations *repository.ReservationRepo
	Log          *zap.Logger
}

func NewRatingHandler(rt *repository.RatingRepo, rs *repository.ReservationRepo, log *zap.Logger) *RatingHandler {
	if rt == nil || rs == nil {
		panic("nil repository passed to NewRatingHandler")
	}
	return &RatingHandler{Ratings: rt, Reservations: rs, Log: log}
}

type rateReq struct {
	Score   uint8   `json:"score"`
	Comment *string `json:"comment"`
}

// Rate answers POST /v1/reservations/:id/rating. The reservation must
// belong to the caller and can only be rated once.
func (h *RatingHandler) Rate(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	var req rateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Score < 1 || req.Score > 5 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "score must be between 1 and 5"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Reservations.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		h.Log.Error("load reservation failed", zap.Error(err), zap.Uint64("id", id))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if res.CustomerID != uid {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	rating := model.Rating{ReservationID: id, Score: req.Score, Comment: req.Comment}
	if err := h.Ratings.Create(ctx, &rating); err != nil {
		if errors.Is(err, repository.ErrAlreadyRated) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "reservation already rated"})
		}
		h.Log.Error("create rating failed", zap.Error(err), zap.Uint64("reservation_id", id))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":             rating.ID,
		"reservation_id": rating.ReservationID,
		"score":          rating.Score,
		"comment":        rating.Comment,
	})
}

// ListForTechnician answers GET /v1/technicians/:id/ratings with every
// score left on that technician's reservations plus the average.
func (h *RatingHandler) ListForTechnician(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Ratings.ListByTechnician(ctx, id)
	if err != nil {
		h.Log.Error("list ratings failed", zap.Error(err), zap.Uint64("technician_id", id))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	var avg float64
	if len(items) > 0 {
		var sum int
		for _, it := range items {
			sum += int(it.Score)
		}
		avg = float64(sum) / float64(len(items))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":   items,
		"count":   len(items),
		"average": avg,
	})
}
