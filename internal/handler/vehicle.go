package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/vaporlimpio/reservas-api/internal/model"
	"github.com/vaporlimpio/reservas-api/internal/repository"
)

// VehicleHandler serves vehicle management. Customers manage their own
// vehicles; admins can list across users.
type VehicleHandler struct {
	Vehicles *repository.VehicleRepo
	Log      *zap.Logger
}

func NewVehicleHandler(v *repository.VehicleRepo, log *zap.Logger) *VehicleHandler {
	if v == nil {
		panic("nil repository passed to NewVehicleHandler")
	}
	return &VehicleHandler{Vehicles: v, Log: log}
}

type vehicleResp struct {
	ID       uint64  `json:"id"`
	UserID   uint64  `json:"user_id"`
	Plate    string  `json:"plate"`
	Brand    *string `json:"brand,omitempty"`
	Model    *string `json:"model,omitempty"`
	Kind     *string `json:"kind,omitempty"`
	IsActive bool    `json:"is_active"`
}

func toVehicleResp(v model.Vehicle) vehicleResp {
	return vehicleResp{ID: v.ID, UserID: v.UserID, Plate: v.Plate, Brand: v.Brand, Model: v.Model, Kind: v.Kind, IsActive: v.IsActive}
}

// List answers GET /v1/vehicles. Customers get their own vehicles;
// admins get everything, optionally narrowed with ?user_id=.
func (h *VehicleHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var items []model.Vehicle
	if actorRole(c) == model.RoleAdmin {
		if raw := c.QueryParam("user_id"); raw != "" {
			owner, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user_id"})
			}
			items, err = h.Vehicles.ListByUser(ctx, owner)
			if err != nil {
				h.Log.Error("list vehicles failed", zap.Error(err))
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
			}
		} else {
			items, err = h.Vehicles.ListAll(ctx)
			if err != nil {
				h.Log.Error("list vehicles failed", zap.Error(err))
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
			}
		}
	} else {
		items, err = h.Vehicles.ListByUser(ctx, uid)
		if err != nil {
			h.Log.Error("list vehicles failed", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
	}

	out := make([]vehicleResp, 0, len(items))
	for _, v := range items {
		out = append(out, toVehicleResp(v))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out, "count": len(out)})
}

type vehicleReq struct {
	Plate string  `json:"plate"`
	Brand *string `json:"brand"`
	Model *string `json:"model"`
	Kind  *string `json:"kind"`
}

// Create answers POST /v1/vehicles for the authenticated customer.
func (h *VehicleHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	var req vehicleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Plate = strings.TrimSpace(req.Plate)
	if req.Plate == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "plate required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	v := model.Vehicle{UserID: uid, Plate: req.Plate, Brand: req.Brand, Model: req.Model, Kind: req.Kind, IsActive: true}
	if err := h.Vehicles.Create(ctx, &v); err != nil {
		if errors.Is(err, repository.ErrNameExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "plate already registered"})
		}
		h.Log.Error("create vehicle failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, toVehicleResp(v))
}

// Update answers PUT /v1/vehicles/:id. The WHERE clause pins the owner,
// so updating another customer's vehicle reads as not found.
func (h *VehicleHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	var req vehicleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Plate = strings.TrimSpace(req.Plate)
	if req.Plate == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "plate required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	v := model.Vehicle{ID: id, UserID: uid, Plate: req.Plate, Brand: req.Brand, Model: req.Model, Kind: req.Kind}
	if err := h.Vehicles.UpdateOwned(ctx, &v); err != nil {
		switch {
		case errors.Is(err, repository.ErrVehicleNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
		case errors.Is(err, repository.ErrNameExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "plate already registered"})
		default:
			h.Log.Error("update vehicle failed", zap.Error(err), zap.Uint64("id", id))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "updated"})
}

// Deactivate answers DELETE /v1/vehicles/:id (soft delete, owner only).
func (h *VehicleHandler) Deactivate(c echo.Context) error {
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

	if err := h.Vehicles.DeactivateOwned(ctx, id, uid); err != nil {
		if errors.Is(err, repository.ErrVehicleNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
		}
		h.Log.Error("deactivate vehicle failed", zap.Error(err), zap.Uint64("id", id))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deactivate failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
