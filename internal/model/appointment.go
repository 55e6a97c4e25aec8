package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// Appointment is a booked slot. Date carries only the calendar day
// (YYYY-MM-DD); SlotTime is a label from the operating grid ("09:00").
// The pair (Date, SlotTime) is unique among non-cancelled appointments;
// that invariant is enforced by the store, not in process.
type Appointment struct {
	ID             uuid.UUID         `db:"id" json:"id"`
	Name           string            `db:"name" json:"name"`
	Email          string            `db:"email" json:"email"`
	Phone          string            `db:"phone" json:"phone"`
	Date           string            `db:"booking_date" json:"date"`
	SlotTime       string            `db:"slot_time" json:"time"`
	Note           string            `db:"note" json:"message,omitempty"`
	Status         AppointmentStatus `db:"status" json:"status"`
	IdempotencyKey *string           `db:"idempotency_key" json:"-"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time         `db:"updated_at" json:"updated_at"`
}

// CreateAppointmentRequest is the POST /appointments body. Contact fields
// are required but otherwise taken as given; the visitor is reachable by
// whatever they typed, or they are not, and a format check decides neither.
type CreateAppointmentRequest struct {
	Name           string `json:"name" binding:"required"`
	Email          string `json:"email" binding:"required"`
	Phone          string `json:"phone" binding:"required"`
	Date           string `json:"date" binding:"required"`
	Time           string `json:"time" binding:"required"`
	Message        string `json:"message"`
	IdempotencyKey string `json:"idempotency_key"`
}
