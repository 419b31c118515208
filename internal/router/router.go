// Package router wires HTTP routes to handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/vaporlimpio/reservas-api/internal/config"
	"github.com/vaporlimpio/reservas-api/internal/handler"
	"github.com/vaporlimpio/reservas-api/internal/middleware"
	"github.com/vaporlimpio/reservas-api/internal/model"
)

// Handlers collects every handler the router mounts.
type Handlers struct {
	Health       *handler.HealthHandler
	Auth         *handler.AuthHandler
	Availability *handler.AvailabilityHandler
	Reservations *handler.ReservationHandler
	Users        *handler.UserAdminHandler
	Catalog      *handler.CatalogHandler
	Vehicles     *handler.VehicleHandler
	Ratings      *handler.RatingHandler
}

// Register mounts every route. Public catalog reads go through the Redis
// response cache; everything under /v1 shares the rate limiter; write
// and read groups are gated by role.
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	auth := middleware.JWTAuth(cfg.JWTSecret)

	e.GET("/healthz", h.Health.Check)

	v1 := e.Group("/v1", limit)

	// ---- Public reads (cached) ----
	v1.GET("/service-types", h.Catalog.ListServiceTypes, cache)
	v1.GET("/service-types/:id", h.Catalog.GetServiceType, cache)
	v1.GET("/locations", h.Catalog.ListLocations, cache)
	v1.GET("/locations/:id", h.Catalog.GetLocation, cache)
	v1.GET("/statuses", h.Catalog.ListStatuses, cache)
	v1.GET("/technicians/:id/ratings", h.Ratings.ListForTechnician, cache)

	// ---- Auth ----
	v1.POST("/auth/register", h.Auth.Register)
	v1.POST("/auth/login", h.Auth.Login)
	v1.POST("/auth/refresh", h.Auth.Refresh)
	v1.POST("/auth/logout", h.Auth.Logout, auth)
	v1.GET("/me", h.Auth.Me, auth)

	// ---- Booking (any authenticated role) ----
	booked := v1.Group("", auth)
	booked.GET("/availability", h.Availability.Check)
	booked.GET("/reservations", h.Reservations.List)
	booked.GET("/reservations/:id", h.Reservations.Get)

	// Customers and admins create reservations; customers always book
	// for themselves (the handler overrides customer_id from the JWT).
	creators := v1.Group("", auth, middleware.RequireRole(model.RoleCustomer, model.RoleAdmin))
	creators.POST("/reservations", h.Reservations.Create)

	// ---- Customer self-service ----
	customer := v1.Group("", auth, middleware.RequireRole(model.RoleCustomer))
	customer.POST("/reservations/:id/rating", h.Ratings.Rate)
	customer.GET("/vehicles", h.Vehicles.List)
	customer.POST("/vehicles", h.Vehicles.Create)
	customer.PUT("/vehicles/:id", h.Vehicles.Update)
	customer.DELETE("/vehicles/:id", h.Vehicles.Deactivate)

	// ---- Admin ----
	admin := v1.Group("", auth, middleware.RequireRole(model.RoleAdmin))
	admin.PUT("/reservations/:id", h.Reservations.Update)
	admin.DELETE("/reservations/:id", h.Reservations.Delete)

	admin.GET("/users", h.Users.List)
	admin.GET("/users/:id", h.Users.Get)
	admin.POST("/users", h.Users.Create)
	admin.PUT("/users/:id", h.Users.Update)
	admin.DELETE("/users/:id", h.Users.Deactivate)

	admin.POST("/service-types", h.Catalog.CreateServiceType)
	admin.PUT("/service-types/:id", h.Catalog.UpdateServiceType)
	admin.DELETE("/service-types/:id", h.Catalog.DeleteServiceType)

	admin.POST("/locations", h.Catalog.CreateLocation)
	admin.PUT("/locations/:id", h.Catalog.UpdateLocation)
	admin.DELETE("/locations/:id", h.Catalog.DeleteLocation)

	admin.POST("/statuses", h.Catalog.CreateStatus)
	admin.PUT("/statuses/:id", h.Catalog.UpdateStatus)
	admin.DELETE("/statuses/:id", h.Catalog.DeleteStatus)

	admin.GET("/admin/vehicles", h.Vehicles.List)
}
