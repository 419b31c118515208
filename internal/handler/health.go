package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthHandler reports service liveness and database reachability.
type HealthHandler struct {
	DB *sql.DB
}

func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{DB: db}
}

// Check answers GET /healthz. The database is pinged with a short
// timeout; a failing ping still returns 200 with status degraded so load
// balancers keep routing while operators investigate.
func (h *HealthHandler) Check(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	dbStatus := "up"
	if err := h.DB.PingContext(ctx); err != nil {
		status = "degraded"
		dbStatus = "down"
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":   status,
		"database": dbStatus,
		"time":     time.Now().UTC().Format(time.RFC3339),
	})
}
