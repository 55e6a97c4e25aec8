// Package availability answers "what can I book on date D?". It is
// read-only: a slot reported available here is not held, and may be gone by
// the time a reservation for it reaches the store.
package availability

import (
	"context"
	"fmt"

	"github.com/glamparlor/booking-api/internal/calendar"
	"github.com/glamparlor/booking-api/internal/model"
	"github.com/glamparlor/booking-api/internal/repository"
	apperrors "github.com/glamparlor/booking-api/pkg/errors"
	"github.com/glamparlor/booking-api/pkg/metrics"
)

type Service struct {
	cal     *calendar.Calendar
	repo    repository.AppointmentRepository
	metrics *metrics.Metrics
}

func NewService(cal *calendar.Calendar, repo repository.AppointmentRepository, m *metrics.Metrics) *Service {
	return &Service{cal: cal, repo: repo, metrics: m}
}

// Resolve returns every grid slot for the date, annotated, in chronological
// order. The ordering is part of the contract; UI consumers render
// top-to-bottom.
func (s *Service) Resolve(ctx context.Context, date string) ([]model.Slot, error) {
	if s.metrics != nil {
		s.metrics.AvailabilityRequests.Inc()
	}

	day, err := calendar.ParseDate(date)
	if err != nil {
		return nil, apperrors.ValidationField("date", "must be a valid YYYY-MM-DD date")
	}

	if !s.cal.IsOperatingDay(day) {
		return s.allUnavailable(model.ReasonClosedDay), nil
	}
	if s.cal.IsPast(day) {
		return s.allUnavailable(model.ReasonDatePassed), nil
	}

	reserved, err := s.repo.ListReservedTimes(ctx, date)
	if err != nil {
		// Never report a day as bookable on a failed read.
		return nil, apperrors.TransientStore(fmt.Errorf("failed to resolve availability: %w", err))
	}

	taken := make(map[string]struct{}, len(reserved))
	for _, t := range reserved {
		taken[t] = struct{}{}
	}

	grid := s.cal.SlotGrid()
	slots := make([]model.Slot, 0, len(grid))
	for _, label := range grid {
		if _, ok := taken[label]; ok {
			reason := model.ReasonAlreadyBooked
			slots = append(slots, model.Slot{Time: label, Available: false, Reason: &reason})
			continue
		}
		slots = append(slots, model.Slot{Time: label, Available: true})
	}
	return slots, nil
}

func (s *Service) allUnavailable(reason string) []model.Slot {
	grid := s.cal.SlotGrid()
	slots := make([]model.Slot, 0, len(grid))
	for _, label := range grid {
		r := reason
		slots = append(slots, model.Slot{Time: label, Available: false, Reason: &r})
	}
	return slots
}
