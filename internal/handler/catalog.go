package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/vaporlimpio/reservas-api/internal/model"
	"github.com/vaporlimpio/reservas-api/internal/repository"
)

// CatalogHandler serves the three reference catalogs: service types,
// locations and reservation statuses. Reads are public; writes are
// admin-gated in the router.
type CatalogHandler struct {
	ServiceTypes *repository.ServiceTypeRepo
	Locations    *repository.LocationRepo
	Statuses     *repository.StatusRepo
	Log          *zap.Logger
}

func NewCatalogHandler(st *repository.ServiceTypeRepo, loc *repository.LocationRepo, sts *repository.StatusRepo, log *zap.Logger) *CatalogHandler {
	if st == nil || loc == nil || sts == nil {
		panic("nil repository passed to NewCatalogHandler")
	}
	return &CatalogHandler{ServiceTypes: st, Locations: loc, Statuses: sts, Log: log}
}

// ----- service types -----

type serviceTypeResp struct {
	ID          uint64  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	BasePrice   float64 `json:"base_price"`
	Multiplier  float64 `json:"multiplier"`
	FinalPrice  float64 `json:"final_price"`
	IsActive    bool    `json:"is_active"`
}

func toServiceTypeResp(s model.ServiceType) serviceTypeResp {
	return serviceTypeResp{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		BasePrice:   s.BasePrice,
		Multiplier:  s.Multiplier,
		FinalPrice:  s.FinalPrice(),
		IsActive:    s.IsActive,
	}
}

// ListServiceTypes answers GET /v1/service-types. Public callers see
// active entries; ?all=true includes deactivated ones (admin view).
func (h *CatalogHandler) ListServiceTypes(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	activeOnly := c.QueryParam("all") != "true"
	items, err := h.ServiceTypes.List(ctx, activeOnly)
	if err != nil {
		h.Log.Error("list service types failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]serviceTypeResp, 0, len(items))
	for _, s := range items {
		out = append(out, toServiceTypeResp(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out, "count": len(out)})
}

// GetServiceType answers GET /v1/service-types/:id.
func (h *CatalogHandler) GetServiceType(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.ServiceTypes.GetActive(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrServiceTypeNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service type not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toServiceTypeResp(*s))
}

type serviceTypeReq struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	BasePrice   float64 `json:"base_price"`
	Multiplier  float64 `json:"multiplier"`
}

// CreateServiceType answers POST /v1/service-types.
func (h *CatalogHandler) CreateServiceType(c echo.Context) error {
	var req serviceTypeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.BasePrice < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required, base_price must not be negative"})
	}
	if req.Multiplier <= 0 {
		req.Multiplier = 1
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s := model.ServiceType{
		Name:        req.Name,
		Description: req.Description,
		BasePrice:   req.BasePrice,
		Multiplier:  req.Multiplier,
		IsActive:    true,
	}
	if err := h.ServiceTypes.Create(ctx, &s); err != nil {
		if errors.Is(err, repository.ErrNameExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "service type already exists"})
		}
		h.Log.Error("create service type failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, toServiceTypeResp(s))
}

// UpdateServiceType answers PUT /v1/service-types/:id.
func (h *CatalogHandler) UpdateServiceType(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req serviceTypeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.BasePrice < 0 || req.Multiplier <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, base_price and multiplier required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s := model.ServiceType{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		BasePrice:   req.BasePrice,
		Multiplier:  req.Multiplier,
	}
	if err := h.ServiceTypes.Update(ctx, &s); err != nil {
		switch {
		case errors.Is(err, repository.ErrServiceTypeNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service type not found"})
		case errors.Is(err, repository.ErrNameExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "service type already exists"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "updated"})
}

// DeleteServiceType answers DELETE /v1/service-types/:id (soft delete).
func (h *CatalogHandler) DeleteServiceType(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.ServiceTypes.Deactivate(ctx, id); err != nil {
		if errors.Is(err, repository.ErrServiceTypeNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service type not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- locations -----

type locationResp struct {
	ID       uint64  `json:"id"`
	Name     string  `json:"name"`
	Address  string  `json:"address"`
	District *string `json:"district,omitempty"`
	IsActive bool    `json:"is_active"`
}

func toLocationResp(l model.Location) locationResp {
	return locationResp{ID: l.ID, Name: l.Name, Address: l.Address, District: l.District, IsActive: l.IsActive}
}

// ListLocations answers GET /v1/locations.
func (h *CatalogHandler) ListLocations(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	activeOnly := c.QueryParam("all") != "true"
	items, err := h.Locations.List(ctx, activeOnly)
	if err != nil {
		h.Log.Error("list locations failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]locationResp, 0, len(items))
	for _, l := range items {
		out = append(out, toLocationResp(l))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out, "count": len(out)})
}

// GetLocation answers GET /v1/locations/:id.
func (h *CatalogHandler) GetLocation(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	l, err := h.Locations.GetActive(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrLocationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "location not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toLocationResp(*l))
}

type locationReq struct {
	Name     string  `json:"name"`
	Address  string  `json:"address"`
	District *string `json:"district"`
}

// CreateLocation answers POST /v1/locations.
func (h *CatalogHandler) CreateLocation(c echo.Context) error {
	var req locationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Address = strings.TrimSpace(req.Address)
	if req.Name == "" || req.Address == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and address required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	l := model.Location{Name: req.Name, Address: req.Address, District: req.District, IsActive: true}
	if err := h.Locations.Create(ctx, &l); err != nil {
		if errors.Is(err, repository.ErrNameExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "location already exists"})
		}
		h.Log.Error("create location failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, toLocationResp(l))
}

// UpdateLocation answers PUT /v1/locations/:id.
func (h *CatalogHandler) UpdateLocation(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req locationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Address = strings.TrimSpace(req.Address)
	if req.Name == "" || req.Address == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and address required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	l := model.Location{ID: id, Name: req.Name, Address: req.Address, District: req.District}
	if err := h.Locations.Update(ctx, &l); err != nil {
		switch {
		case errors.Is(err, repository.ErrLocationNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "location not found"})
		case errors.Is(err, repository.ErrNameExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "location already exists"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "updated"})
}

// DeleteLocation answers DELETE /v1/locations/:id (soft delete).
func (h *CatalogHandler) DeleteLocation(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Locations.Deactivate(ctx, id); err != nil {
		if errors.Is(err, repository.ErrLocationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "location not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- reservation statuses -----

type statusResp struct {
	ID          uint64  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Color       *string `json:"color,omitempty"`
}

func toStatusResp(s model.Status) statusResp {
	return statusResp{ID: s.ID, Name: s.Name, Description: s.Description, Color: s.Color}
}

// ListStatuses answers GET /v1/statuses.
func (h *CatalogHandler) ListStatuses(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Statuses.List(ctx)
	if err != nil {
		h.Log.Error("list statuses failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]statusResp, 0, len(items))
	for _, s := range items {
		out = append(out, toStatusResp(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out, "count": len(out)})
}

type statusReq struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
}

// CreateStatus answers POST /v1/statuses.
func (h *CatalogHandler) CreateStatus(c echo.Context) error {
	var req statusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	name := strings.ToLower(strings.TrimSpace(req.Name))
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s := model.Status{Name: name, Description: req.Description, Color: req.Color}
	if err := h.Statuses.Create(ctx, &s); err != nil {
		if errors.Is(err, repository.ErrNameExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "status already exists"})
		}
		h.Log.Error("create status failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, toStatusResp(s))
}

// UpdateStatus answers PUT /v1/statuses/:id.
func (h *CatalogHandler) UpdateStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req statusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	name := strings.ToLower(strings.TrimSpace(req.Name))
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s := model.Status{ID: id, Name: name, Description: req.Description, Color: req.Color}
	if err := h.Statuses.Update(ctx, &s); err != nil {
		switch {
		case errors.Is(err, repository.ErrStatusNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "status not found"})
		case errors.Is(err, repository.ErrNameExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "status already exists"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "updated"})
}

// DeleteStatus answers DELETE /v1/statuses/:id. The lifecycle statuses
// the booking flow depends on cannot be removed.
func (h *CatalogHandler) DeleteStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Statuses.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrStatusNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "status not found"})
		case errors.Is(err, repository.ErrStatusProtected):
			return c.JSON(http.StatusConflict, echo.Map{"error": "status is protected"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}
