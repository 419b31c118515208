package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/vaporlimpio/reservas-api/internal/booking"
	"github.com/vaporlimpio/reservas-api/internal/config"
	"github.com/vaporlimpio/reservas-api/internal/database"
	"github.com/vaporlimpio/reservas-api/internal/handler"
	"github.com/vaporlimpio/reservas-api/internal/notify"
	"github.com/vaporlimpio/reservas-api/internal/queue"
	"github.com/vaporlimpio/reservas-api/internal/repository"
	"github.com/vaporlimpio/reservas-api/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer func() { _ = db.Close() }()
	if err := database.Migrate(db); err != nil {
		logger.Fatal("apply migrations", zap.Error(err))
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn("redis unavailable, cache and rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	statuses := repository.NewStatusRepo(db)
	serviceTypes := repository.NewServiceTypeRepo(db)
	locations := repository.NewLocationRepo(db)
	vehicles := repository.NewVehicleRepo(db)
	reservations := repository.NewReservationRepo(db)
	ratings := repository.NewRatingRepo(db)

	publisher := queue.NewPublisher(cfg.AMQPURL, logger.Named("publisher"))
	checker := booking.NewChecker(users, reservations, cfg.BookingCapacity, logger.Named("availability"))
	writer := booking.NewWriter(users, statuses, serviceTypes, locations, vehicles, reservations, publisher, logger.Named("writer"))

	// The mail worker runs in-process: it consumes the confirmations the
	// publisher emits and sends them over SMTP.
	mailer := notify.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, logger.Named("mailer"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go queue.StartConsumer(ctx, cfg.AMQPURL, mailer, logger.Named("consumer"))

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())

	router.Register(e, router.Handlers{
		Health:       handler.NewHealthHandler(db),
		Auth:         handler.NewAuthHandler(cfg, users, tokens, logger.Named("auth")),
		Availability: handler.NewAvailabilityHandler(checker, logger.Named("availability")),
		Reservations: handler.NewReservationHandler(writer, reservations, logger.Named("reservations")),
		Users:        handler.NewUserAdminHandler(cfg, users, logger.Named("users")),
		Catalog:      handler.NewCatalogHandler(serviceTypes, locations, statuses, logger.Named("catalog")),
		Vehicles:     handler.NewVehicleHandler(vehicles, logger.Named("vehicles")),
		Ratings:      handler.NewRatingHandler(ratings, reservations, logger.Named("ratings")),
	}, cfg, rdb)

	go purgeExpiredTokens(ctx, tokens, logger)

	addr := ":" + cfg.Port
	logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := e.Start(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

// purgeExpiredTokens deletes refresh tokens that expired more than a day
// ago, once an hour, so the table does not grow without bound.
func purgeExpiredTokens(ctx context.Context, tokens *repository.TokenRepo, logger *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := tokens.PurgeExpired(ctx, 24*time.Hour)
			if err != nil {
				logger.Warn("purge refresh tokens failed", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("purged refresh tokens", zap.Int64("count", n))
			}
		}
	}
}

// newLogger picks the zap preset for the environment: structured JSON in
// prod, console encoding elsewhere.
func newLogger(env string) (*zap.Logger, error) {
	if env == "prod" || env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
