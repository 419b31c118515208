package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/vaporlimpio/reservas-api/internal/config"
	"github.com/vaporlimpio/reservas-api/internal/model"
	"github.com/vaporlimpio/reservas-api/internal/repository"
)

// UserAdminHandler serves the admin user management endpoints.
type UserAdminHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
	Log   *zap.Logger
}

func NewUserAdminHandler(cfg config.Config, u *repository.UserRepo, log *zap.Logger) *UserAdminHandler {
	if u == nil {
		panic("nil repository passed to NewUserAdminHandler")
	}
	return &UserAdminHandler{Cfg: cfg, Users: u, Log: log}
}

type adminUserResp struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone,omitempty"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func toAdminUserResp(u model.User) adminUserResp {
	return adminUserResp{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

func validRole(role string) bool {
	return role == model.RoleAdmin || role == model.RoleCustomer || role == model.RoleTechnician
}

// List answers GET /v1/users, optionally filtered by ?role=.
func (h *UserAdminHandler) List(c echo.Context) error {
	role := strings.ToUpper(strings.TrimSpace(c.QueryParam("role")))
	if role != "" && !validRole(role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.List(ctx, role)
	if err != nil {
		h.Log.Error("list users failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]adminUserResp, 0, len(users))
	for _, u := range users {
		out = append(out, toAdminUserResp(u))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out, "count": len(out)})
}

// Get answers GET /v1/users/:id.
func (h *UserAdminHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toAdminUserResp(u))
}

type adminCreateUserReq struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Phone    *string `json:"phone"`
	Role     string  `json:"role"`
}

// Create answers POST /v1/users. Unlike self-registration, an admin may
// create users with any role, ADMIN included.
func (h *UserAdminHandler) Create(c echo.Context) error {
	var req adminCreateUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Role = strings.ToUpper(strings.TrimSpace(req.Role))
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/email/password required"})
	}
	if !validRole(req.Role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Name, req.Email, req.Password, req.Phone, req.Role, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		h.Log.Error("admin create user failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusCreated, echo.Map{"id": uid})
	}
	return c.JSON(http.StatusCreated, toAdminUserResp(u))
}

type adminUpdateUserReq struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
}

// Update answers PUT /v1/users/:id with a partial update.
func (h *UserAdminHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req adminUpdateUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Role != nil {
		r := strings.ToUpper(strings.TrimSpace(*req.Role))
		if !validRole(r) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
		}
		req.Role = &r
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err = h.Users.UpdatePartial(ctx, id, repository.UserUpdate{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Role:     req.Role,
		IsActive: req.IsActive,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		case errors.Is(err, repository.ErrEmailExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		default:
			h.Log.Error("update user failed", zap.Error(err), zap.Uint64("id", id))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusOK, echo.Map{"message": "updated"})
	}
	return c.JSON(http.StatusOK, toAdminUserResp(u))
}

// Deactivate answers DELETE /v1/users/:id. Accounts are deactivated, not
// removed, so reservation history keeps its references.
func (h *UserAdminHandler) Deactivate(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.Deactivate(ctx, id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		h.Log.Error("deactivate user failed", zap.Error(err), zap.Uint64("id", id))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deactivate failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
