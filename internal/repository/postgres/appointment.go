package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/glamparlor/booking-api/internal/model"
	"github.com/glamparlor/booking-api/internal/repository"
)

// Constraint names from migrations/001_init.sql. The partial unique index
// on (booking_date, slot_time) for non-cancelled rows is what makes Reserve
// atomic; losing the race surfaces here as a unique violation.
const (
	slotConstraint           = "appointments_slot_key"
	idempotencyKeyConstraint = "appointments_idempotency_key"
)

const pgUniqueViolation = "23505"

type appointmentRepository struct {
	db *sqlx.DB
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{db: db}
}

func (r *appointmentRepository) Reserve(ctx context.Context, appt *model.Appointment, event *model.OutboxEvent) error {
	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}
	appt.CreatedAt = time.Now()
	appt.UpdatedAt = appt.CreatedAt

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin reserve transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO appointments (
			id, name, email, phone, booking_date, slot_time,
			note, status, idempotency_key, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = tx.ExecContext(ctx, query,
		appt.ID,
		appt.Name,
		appt.Email,
		appt.Phone,
		appt.Date,
		appt.SlotTime,
		appt.Note,
		appt.Status,
		appt.IdempotencyKey,
		appt.CreatedAt,
		appt.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			switch pqErr.Constraint {
			case slotConstraint:
				return repository.ErrSlotTaken
			case idempotencyKeyConstraint:
				return repository.ErrDuplicateKey
			}
		}
		return fmt.Errorf("failed to insert appointment: %w", err)
	}

	if err := insertOutboxEvent(ctx, tx, event); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reserve transaction: %w", err)
	}
	return nil
}

func (r *appointmentRepository) ListReservedTimes(ctx context.Context, date string) ([]string, error) {
	query := `
		SELECT slot_time FROM appointments
		WHERE booking_date = $1
		AND status <> 'cancelled'
		ORDER BY slot_time ASC
	`
	var times []string
	if err := r.db.SelectContext(ctx, &times, query, date); err != nil {
		return nil, fmt.Errorf("failed to list reserved times: %w", err)
	}
	return times, nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT id, name, email, phone, booking_date::text AS booking_date, slot_time,
			   note, status, idempotency_key, created_at, updated_at
		FROM appointments
		WHERE id = $1
	`
	var appt model.Appointment
	err := r.db.GetContext(ctx, &appt, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appt, nil
}

func (r *appointmentRepository) FindByIdempotencyKey(ctx context.Context, key string) (*model.Appointment, error) {
	query := `
		SELECT id, name, email, phone, booking_date::text AS booking_date, slot_time,
			   note, status, idempotency_key, created_at, updated_at
		FROM appointments
		WHERE idempotency_key = $1
	`
	var appt model.Appointment
	err := r.db.GetContext(ctx, &appt, query, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find appointment by idempotency key: %w", err)
	}
	return &appt, nil
}

func (r *appointmentRepository) ListByDate(ctx context.Context, date string) ([]*model.Appointment, error) {
	query := `
		SELECT id, name, email, phone, booking_date::text AS booking_date, slot_time,
			   note, status, idempotency_key, created_at, updated_at
		FROM appointments
		WHERE booking_date = $1
		ORDER BY slot_time ASC
	`
	var appts []*model.Appointment
	if err := r.db.SelectContext(ctx, &appts, query, date); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appts, nil
}

func (r *appointmentRepository) Cancel(ctx context.Context, id uuid.UUID, event *model.OutboxEvent) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin cancel transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE appointments
		SET status = 'cancelled', updated_at = $1
		WHERE id = $2 AND status <> 'cancelled'
	`
	result, err := tx.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to cancel appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}

	if err := insertOutboxEvent(ctx, tx, event); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cancel transaction: %w", err)
	}
	return nil
}

func insertOutboxEvent(ctx context.Context, tx *sqlx.Tx, event *model.OutboxEvent) error {
	if event == nil {
		return nil
	}

	event.ID = uuid.New()
	event.Status = model.OutboxStatusPending
	event.CreatedAt = time.Now()
	event.UpdatedAt = event.CreatedAt

	query := `
		INSERT INTO outbox_events (
			id, event_type, payload, status, retry_count, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.ExecContext(ctx, query,
		event.ID,
		event.EventType,
		event.Payload,
		event.Status,
		event.RetryCount,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}
