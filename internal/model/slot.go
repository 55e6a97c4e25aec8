package model

// Slot unavailability reasons. UI copy keys off these strings, so they are
// part of the availability contract.
const (
	ReasonClosedDay     = "closed day"
	ReasonDatePassed    = "date has passed"
	ReasonAlreadyBooked = "already booked"
)

// Slot is a single entry of a day's availability answer. It is never
// persisted; it lives for the length of one availability call. A slot
// reported available here is not a hold: the store's atomic reserve is the
// source of truth at booking time.
type Slot struct {
	Time      string  `json:"time"`
	Available bool    `json:"available"`
	Reason    *string `json:"reason"`
}
