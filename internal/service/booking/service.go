// Package booking is the only path by which an appointment may be created
// or cancelled. Correctness does not live here: the slot race is decided by
// the store's uniqueness constraint, and this service only validates,
// translates its outcome, and records the event.
package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/glamparlor/booking-api/internal/calendar"
	"github.com/glamparlor/booking-api/internal/model"
	"github.com/glamparlor/booking-api/internal/repository"
	apperrors "github.com/glamparlor/booking-api/pkg/errors"
	"github.com/glamparlor/booking-api/pkg/logger"
	"github.com/glamparlor/booking-api/pkg/metrics"
)

type Service struct {
	cal     *calendar.Calendar
	repo    repository.AppointmentRepository
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewService(cal *calendar.Calendar, repo repository.AppointmentRepository, log *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{cal: cal, repo: repo, logger: log, metrics: m}
}

// Reserve validates the request, then attempts a single atomic
// insert-if-absent at the store. It never reads existing bookings first;
// two concurrent calls for one slot are settled by the store, one winning
// and one receiving a conflict. A request carrying a previously used
// idempotency key returns the original appointment.
func (s *Service) Reserve(ctx context.Context, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	if err := s.validate(req); err != nil {
		s.countReservation("invalid")
		return nil, err
	}

	appt := &model.Appointment{
		ID:       uuid.New(),
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Date:     req.Date,
		SlotTime: req.Time,
		Note:     req.Message,
		Status:   model.AppointmentStatusPending,
	}
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		appt.IdempotencyKey = &key
	}

	event, err := appointmentEvent(model.EventAppointmentCreated, appt)
	if err != nil {
		return nil, fmt.Errorf("failed to build appointment event: %w", err)
	}

	err = s.repo.Reserve(ctx, appt, event)
	switch {
	case err == nil:
		s.countReservation("created")
		s.logger.Info("appointment reserved",
			"appointment_id", appt.ID.String(),
			"date", appt.Date,
			"time", appt.SlotTime)
		return appt, nil

	case errors.Is(err, repository.ErrDuplicateKey):
		return s.replay(ctx, req.IdempotencyKey)

	case errors.Is(err, repository.ErrSlotTaken):
		// A replayed keyed request also collides on the slot index, and the
		// store reports whichever constraint it checked first. Resolve the
		// key before declaring a conflict so replay semantics never depend
		// on that order.
		if req.IdempotencyKey != "" {
			existing, findErr := s.repo.FindByIdempotencyKey(ctx, req.IdempotencyKey)
			if findErr == nil {
				s.countReservation("replayed")
				return existing, nil
			}
			if !errors.Is(findErr, repository.ErrNotFound) {
				return nil, apperrors.TransientStore(findErr)
			}
		}
		if s.metrics != nil {
			s.metrics.SlotConflictsTotal.Inc()
		}
		s.countReservation("conflict")
		return nil, apperrors.Conflict("slot already booked")

	default:
		s.countReservation("error")
		return nil, apperrors.TransientStore(err)
	}
}

func (s *Service) replay(ctx context.Context, key string) (*model.Appointment, error) {
	existing, err := s.repo.FindByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, apperrors.TransientStore(err)
	}
	s.countReservation("replayed")
	return existing, nil
}

// Cancel frees the appointment's slot for future booking.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	appt, err := s.repo.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("appointment")
	}
	if err != nil {
		return apperrors.TransientStore(err)
	}
	if appt.Status == model.AppointmentStatusCancelled {
		return apperrors.Conflict("appointment already cancelled")
	}

	event, err := appointmentEvent(model.EventAppointmentCancelled, appt)
	if err != nil {
		return fmt.Errorf("failed to build appointment event: %w", err)
	}

	err = s.repo.Cancel(ctx, id, event)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("appointment")
	}
	if err != nil {
		return apperrors.TransientStore(err)
	}

	s.logger.Info("appointment cancelled", "appointment_id", id.String())
	return nil
}

// ListByDate returns a day's appointments for the administrative area.
func (s *Service) ListByDate(ctx context.Context, date string) ([]*model.Appointment, error) {
	if _, err := calendar.ParseDate(date); err != nil {
		return nil, apperrors.ValidationField("date", "must be a valid YYYY-MM-DD date")
	}
	appts, err := s.repo.ListByDate(ctx, date)
	if err != nil {
		return nil, apperrors.TransientStore(err)
	}
	return appts, nil
}

// validate applies field presence, calendar, and grid-membership rules. No
// store access happens here; slot contention is not a validation concern.
func (s *Service) validate(req *model.CreateAppointmentRequest) error {
	fields := make(map[string]string)

	if req.Name == "" {
		fields["name"] = "is required"
	}
	if req.Email == "" {
		fields["email"] = "is required"
	}
	if req.Phone == "" {
		fields["phone"] = "is required"
	}
	if req.Time == "" {
		fields["time"] = "is required"
	}

	if req.Date == "" {
		fields["date"] = "is required"
	} else if day, err := calendar.ParseDate(req.Date); err != nil {
		fields["date"] = "must be a valid YYYY-MM-DD date"
	} else if s.cal.IsPast(day) {
		fields["date"] = "date has passed"
	} else if !s.cal.IsOperatingDay(day) {
		fields["date"] = "closed day"
	}

	if req.Time != "" && !s.cal.ValidSlot(req.Time) {
		fields["time"] = "is not a bookable time"
	}

	if len(fields) > 0 {
		return apperrors.Validation(fields)
	}
	return nil
}

func (s *Service) countReservation(outcome string) {
	if s.metrics != nil {
		s.metrics.ReservationsTotal.WithLabelValues(outcome).Inc()
	}
}

func appointmentEvent(eventType string, appt *model.Appointment) (*model.OutboxEvent, error) {
	payload, err := json.Marshal(model.AppointmentEvent{
		AppointmentID: appt.ID,
		Name:          appt.Name,
		Email:         appt.Email,
		Date:          appt.Date,
		SlotTime:      appt.SlotTime,
	})
	if err != nil {
		return nil, err
	}
	return &model.OutboxEvent{
		EventType: eventType,
		Payload:   payload,
	}, nil
}
