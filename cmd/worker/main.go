// The worker binary drains the transactional outbox into the message broker
// and turns booking events into outbound mail. It shares no in-process
// state with the API; everything flows through Postgres and Redis, so both
// binaries scale out independently.
package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"

	"github.com/glamparlor/booking-api/internal/config"
	"github.com/glamparlor/booking-api/internal/email"
	"github.com/glamparlor/booking-api/internal/model"
	"github.com/glamparlor/booking-api/internal/repository/postgres"
	"github.com/glamparlor/booking-api/pkg/logger"
	"github.com/glamparlor/booking-api/pkg/messaging"
	redisbroker "github.com/glamparlor/booking-api/pkg/messaging/redis"
	"github.com/glamparlor/booking-api/pkg/metrics"
	"github.com/glamparlor/booking-api/pkg/worker"
)

type workerConfig struct {
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"booking"`
	DBPassword string `envconfig:"DB_PASSWORD" default:"booking"`
	DBName     string `envconfig:"DB_NAME" default:"booking"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	RedisURL string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`

	SMTPHost     string `envconfig:"SMTP_HOST" default:"localhost"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"1025"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	SMTPFrom     string `envconfig:"SMTP_FROM" default:"bookings@glamparlor.example"`

	BatchSize    int           `envconfig:"OUTBOX_BATCH_SIZE" default:"50"`
	PollInterval time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"2s"`
}

func main() {
	var cfg workerConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to load worker configuration")
	}

	appLogger := logger.NewLogger(&logger.Config{
		Level:      logger.InfoLevel,
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
	})

	db, err := postgres.NewDB(config.DatabaseConfig{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Name:     cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redisbroker.NewRedisBroker(redisbroker.Config{URL: cfg.RedisURL}, appLogger.Zerolog())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	m := metrics.NewMetrics("booking_worker")
	outboxRepo := postgres.NewOutboxRepository(db)

	processor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
		BatchSize:    cfg.BatchSize,
		PollInterval: cfg.PollInterval,
	}, appLogger, m)

	mailer := email.NewSMTPSender(config.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go processor.Start(ctx)
	go dispatchMail(ctx, broker, mailer, appLogger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down worker...")
	cancel()
}

// dispatchMail consumes booking events from the broker and sends the
// matching mail. A delivery failure is logged and dropped; the reservation
// it belongs to is already committed and must not be disturbed.
func dispatchMail(ctx context.Context, broker messaging.Broker, mailer email.Sender, log *logger.Logger) {
	msgs, err := broker.Subscribe(ctx, worker.BookingEventsChannel)
	if err != nil {
		log.Fatal(err, "failed to subscribe to booking events")
	}

	for raw := range msgs {
		var msg struct {
			Type    string                 `json:"type"`
			Payload model.AppointmentEvent `json:"payload"`
		}
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Error(err, "failed to decode booking event")
			continue
		}

		switch msg.Type {
		case model.EventAppointmentCreated:
			err = mailer.SendConfirmation(&msg.Payload)
		case model.EventAppointmentCancelled:
			err = mailer.SendCancellation(&msg.Payload)
		default:
			continue
		}

		if err != nil {
			log.Error(err, "failed to send booking mail",
				"appointment_id", msg.Payload.AppointmentID.String(),
				"event_type", msg.Type)
		}
	}
}
