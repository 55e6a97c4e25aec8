// Package calendar encodes the business rules that decide which dates and
// times are eligible for appointments. It is pure and does no I/O; every
// method is deterministic given the injected clock.
package calendar

import (
	"fmt"
	"time"

	apperrors "github.com/glamparlor/booking-api/pkg/errors"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Config describes the operating rules of the business. The canonical grid
// is hourly from OpenHour inclusive to CloseHour exclusive; with the
// defaults that is 09:00 through 16:00.
type Config struct {
	ClosedWeekday time.Weekday
	OpenHour      int
	CloseHour     int
	SlotMinutes   int
}

func DefaultConfig() Config {
	return Config{
		ClosedWeekday: time.Sunday,
		OpenHour:      9,
		CloseHour:     17,
		SlotMinutes:   60,
	}
}

// Calendar answers eligibility questions about dates and slot labels.
type Calendar struct {
	cfg  Config
	grid []string
	now  func() time.Time
}

// New validates the configuration and precomputes the slot grid. A bad
// configuration is fatal at startup, never a per-request error.
func New(cfg Config, now func() time.Time) (*Calendar, error) {
	if now == nil {
		now = time.Now
	}
	if cfg.OpenHour < 0 || cfg.OpenHour > 23 {
		return nil, apperrors.Configuration(fmt.Sprintf("invalid opening hour %d", cfg.OpenHour), nil)
	}
	if cfg.CloseHour <= cfg.OpenHour || cfg.CloseHour > 24 {
		return nil, apperrors.Configuration(fmt.Sprintf("invalid closing hour %d", cfg.CloseHour), nil)
	}
	if cfg.SlotMinutes <= 0 || cfg.SlotMinutes > 24*60 {
		return nil, apperrors.Configuration(fmt.Sprintf("invalid slot size %d minutes", cfg.SlotMinutes), nil)
	}
	if cfg.ClosedWeekday < time.Sunday || cfg.ClosedWeekday > time.Saturday {
		return nil, apperrors.Configuration(fmt.Sprintf("invalid closed weekday %d", cfg.ClosedWeekday), nil)
	}

	var grid []string
	open := time.Duration(cfg.OpenHour) * time.Hour
	closing := time.Duration(cfg.CloseHour) * time.Hour
	step := time.Duration(cfg.SlotMinutes) * time.Minute
	for at := open; at < closing; at += step {
		grid = append(grid, fmt.Sprintf("%02d:%02d", int(at.Hours()), int(at.Minutes())%60))
	}

	return &Calendar{cfg: cfg, grid: grid, now: now}, nil
}

// SlotGrid returns the day's slot labels in chronological order. The
// returned slice is a copy; callers may not mutate the grid.
func (c *Calendar) SlotGrid() []string {
	grid := make([]string, len(c.grid))
	copy(grid, c.grid)
	return grid
}

// IsOperatingDay reports whether the business accepts appointments on the
// given date. Currently only the weekly closed day is excluded; holiday
// support plugs in here.
func (c *Calendar) IsOperatingDay(date time.Time) bool {
	return date.Weekday() != c.cfg.ClosedWeekday
}

// IsPast reports whether the date lies strictly before today. Same-day
// booking is allowed.
func (c *Calendar) IsPast(date time.Time) bool {
	now := c.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, now.Location())
	return day.Before(today)
}

// ValidSlot reports whether label is a member of the slot grid.
func (c *Calendar) ValidSlot(label string) bool {
	for _, s := range c.grid {
		if s == label {
			return true
		}
	}
	return false
}

// ParseDate parses a YYYY-MM-DD wire date. Malformed input is rejected here
// so the calendar predicates only ever see valid dates.
func ParseDate(s string) (time.Time, error) {
	date, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date %q: %w", s, err)
	}
	return date, nil
}
