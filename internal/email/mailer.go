package email

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/glamparlor/booking-api/internal/config"
	"github.com/glamparlor/booking-api/internal/model"
)

// Sender delivers outbound mail: booking notifications and admin login
// verification codes. Booking mail is fire-and-forget from the
// reservation's point of view; a failure here never affects a booking.
type Sender interface {
	SendConfirmation(ev *model.AppointmentEvent) error
	SendCancellation(ev *model.AppointmentEvent) error
	SendVerificationCode(to, code string) error
}

type smtpSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(cfg config.SMTPConfig) Sender {
	return &smtpSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpSender) SendConfirmation(ev *model.AppointmentEvent) error {
	subject := "Your appointment is booked"
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\nYour appointment on %s at %s is confirmed.\r\n\r\nSee you then!",
		ev.Name, ev.Date, ev.SlotTime,
	)
	return s.send(ev.Email, subject, body)
}

func (s *smtpSender) SendCancellation(ev *model.AppointmentEvent) error {
	subject := "Your appointment was cancelled"
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\nYour appointment on %s at %s has been cancelled.\r\n\r\nFeel free to book another time.",
		ev.Name, ev.Date, ev.SlotTime,
	)
	return s.send(ev.Email, subject, body)
}

func (s *smtpSender) SendVerificationCode(to, code string) error {
	subject := "Your login verification code"
	body := fmt.Sprintf(
		"Your verification code is %s.\r\n\r\nIt expires shortly; if you did not try to log in, ignore this mail.",
		code,
	)
	return s.send(to, subject, body)
}

func (s *smtpSender) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}
