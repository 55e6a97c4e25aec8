package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/glamparlor/booking-api/internal/model"
)

// Sentinel errors returned by stores. Services translate these into the
// client-facing error taxonomy.
var (
	// ErrSlotTaken means a non-cancelled appointment already holds the
	// (date, time) pair. Raised by the store's uniqueness constraint, never
	// by a separate read.
	ErrSlotTaken = errors.New("slot already booked")

	// ErrDuplicateKey means the idempotency key was already used; the
	// original appointment should be returned instead of a new row.
	ErrDuplicateKey = errors.New("idempotency key already used")

	ErrNotFound = errors.New("appointment not found")
)

// AppointmentRepository is the only write path to appointment rows.
type AppointmentRepository interface {
	// Reserve atomically inserts the appointment unless a non-cancelled row
	// already exists for its (date, time). The outbox event commits in the
	// same transaction. Returns ErrSlotTaken on a lost race and
	// ErrDuplicateKey on an idempotency-key replay.
	Reserve(ctx context.Context, appt *model.Appointment, event *model.OutboxEvent) error

	// ListReservedTimes returns the slot labels of non-cancelled
	// appointments on the given date.
	ListReservedTimes(ctx context.Context, date string) ([]string, error)

	Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*model.Appointment, error)
	ListByDate(ctx context.Context, date string) ([]*model.Appointment, error)

	// Cancel marks the appointment cancelled, freeing its slot, and writes
	// the cancellation event transactionally. Returns ErrNotFound when no
	// non-cancelled appointment has the id.
	Cancel(ctx context.Context, id uuid.UUID, event *model.OutboxEvent) error
}

// OutboxRepository is consumed by the worker that dispatches events.
type OutboxRepository interface {
	GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error
	DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}
