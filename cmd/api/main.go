package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/glamparlor/booking-api/internal/calendar"
	"github.com/glamparlor/booking-api/internal/config"
	"github.com/glamparlor/booking-api/internal/email"
	appointmentHandler "github.com/glamparlor/booking-api/internal/handler/appointment"
	authHandler "github.com/glamparlor/booking-api/internal/handler/auth"
	availabilityHandler "github.com/glamparlor/booking-api/internal/handler/availability"
	healthHandler "github.com/glamparlor/booking-api/internal/handler/health"
	"github.com/glamparlor/booking-api/internal/middleware"
	"github.com/glamparlor/booking-api/internal/repository/postgres"
	"github.com/glamparlor/booking-api/internal/router"
	authService "github.com/glamparlor/booking-api/internal/service/auth"
	availabilityService "github.com/glamparlor/booking-api/internal/service/availability"
	bookingService "github.com/glamparlor/booking-api/internal/service/booking"
	"github.com/glamparlor/booking-api/pkg/auth"
	"github.com/glamparlor/booking-api/pkg/logger"
	"github.com/glamparlor/booking-api/pkg/messaging/redis"
	"github.com/glamparlor/booking-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(&logger.Config{
		Level:      logger.InfoLevel,
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
	})

	// Calendar rules are validated here; a bad grid never reaches requests.
	cal, err := calendar.New(calendar.Config{
		ClosedWeekday: time.Weekday(cfg.Calendar.ClosedWeekday),
		OpenHour:      cfg.Calendar.OpenHour,
		CloseHour:     cfg.Calendar.CloseHour,
		SlotMinutes:   cfg.Calendar.SlotMinutes,
	}, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid calendar configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(redis.Config{URL: cfg.Redis.URL}, appLogger.Zerolog())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	m := metrics.NewMetrics("booking_api")

	appointmentRepo := postgres.NewAppointmentRepository(db)

	availabilitySvc := availabilityService.NewService(cal, appointmentRepo, m)
	bookingSvc := bookingService.NewService(cal, appointmentRepo, appLogger, m)

	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour, "booking-api")
	authSvc := authService.NewService(cfg.Admin, jwtSvc, authService.NewRedisCodeStore(broker.Client()))
	mailer := email.NewSMTPSender(cfg.SMTP)

	authMiddleware := middleware.NewAuthMiddleware(authSvc)

	r := router.NewRouter(authMiddleware, router.Config{
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
		CORS:           middleware.DefaultCORSConfig(),
		MetricsPrefix:  "booking_api",
	})

	apptH := appointmentHandler.NewHandler(bookingSvc)
	r.RegisterPublic(
		availabilityHandler.NewHandler(availabilitySvc),
		apptH,
		authHandler.NewHandler(authSvc, mailer),
		healthHandler.NewHandler(db),
	)
	r.RegisterAdmin(apptH)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Server.Port).Msg("booking api listening")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
