// Package memory holds a mutex-guarded AppointmentRepository used by tests.
// Its Reserve mirrors the Postgres adapter's semantics: the check and the
// insert happen under one lock, exactly as the partial unique index makes
// them one operation in the database.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/glamparlor/booking-api/internal/model"
	"github.com/glamparlor/booking-api/internal/repository"
)

type AppointmentRepository struct {
	mu     sync.Mutex
	byID   map[uuid.UUID]*model.Appointment
	Events []*model.OutboxEvent

	// FailReads makes read operations return this error, for exercising
	// transient-failure paths.
	FailReads error
}

func NewAppointmentRepository() *AppointmentRepository {
	return &AppointmentRepository{
		byID: make(map[uuid.UUID]*model.Appointment),
	}
}

func (r *AppointmentRepository) Reserve(ctx context.Context, appt *model.Appointment, event *model.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Slot before key, matching the order Postgres checks the indexes in: a
	// keyed replay surfaces as ErrSlotTaken here too.
	for _, existing := range r.byID {
		if existing.Status != model.AppointmentStatusCancelled &&
			existing.Date == appt.Date && existing.SlotTime == appt.SlotTime {
			return repository.ErrSlotTaken
		}
	}
	for _, existing := range r.byID {
		if existing.IdempotencyKey != nil && appt.IdempotencyKey != nil &&
			*existing.IdempotencyKey == *appt.IdempotencyKey {
			return repository.ErrDuplicateKey
		}
	}

	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}
	stored := *appt
	r.byID[appt.ID] = &stored
	if event != nil {
		r.Events = append(r.Events, event)
	}
	return nil
}

func (r *AppointmentRepository) ListReservedTimes(ctx context.Context, date string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailReads != nil {
		return nil, r.FailReads
	}

	var times []string
	for _, appt := range r.byID {
		if appt.Date == date && appt.Status != model.AppointmentStatusCancelled {
			times = append(times, appt.SlotTime)
		}
	}
	return times, nil
}

func (r *AppointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailReads != nil {
		return nil, r.FailReads
	}

	appt, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *appt
	return &copied, nil
}

func (r *AppointmentRepository) FindByIdempotencyKey(ctx context.Context, key string) (*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, appt := range r.byID {
		if appt.IdempotencyKey != nil && *appt.IdempotencyKey == key {
			copied := *appt
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *AppointmentRepository) ListByDate(ctx context.Context, date string) ([]*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailReads != nil {
		return nil, r.FailReads
	}

	var appts []*model.Appointment
	for _, appt := range r.byID {
		if appt.Date == date {
			copied := *appt
			appts = append(appts, &copied)
		}
	}
	return appts, nil
}

func (r *AppointmentRepository) Cancel(ctx context.Context, id uuid.UUID, event *model.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	appt, ok := r.byID[id]
	if !ok || appt.Status == model.AppointmentStatusCancelled {
		return repository.ErrNotFound
	}
	appt.Status = model.AppointmentStatusCancelled
	if event != nil {
		r.Events = append(r.Events, event)
	}
	return nil
}

// Count reports the number of non-cancelled appointments for a slot.
func (r *AppointmentRepository) Count(date, slotTime string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, appt := range r.byID {
		if appt.Date == date && appt.SlotTime == slotTime &&
			appt.Status != model.AppointmentStatusCancelled {
			n++
		}
	}
	return n
}

var _ repository.AppointmentRepository = (*AppointmentRepository)(nil)
