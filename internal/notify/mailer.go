package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wolfman30/kims-booking/internal/bookings"
)

// ErrNoRecipient is returned when a record has no patient email.
var ErrNoRecipient = errors.New("notify: patient email missing")

// ConfirmationMailer emails the patient a summary of the confirmed booking.
type ConfirmationMailer struct {
	sender EmailSender
}

func NewConfirmationMailer(sender EmailSender) *ConfirmationMailer {
	return &ConfirmationMailer{sender: sender}
}

// Send renders and sends the confirmation for rec.
func (m *ConfirmationMailer) Send(ctx context.Context, rec *bookings.Record) error {
	if m == nil || m.sender == nil {
		return nil
	}
	if rec == nil || strings.TrimSpace(rec.Patient.Email) == "" {
		return ErrNoRecipient
	}
	if err := m.sender.Send(ctx, ConfirmationEmail(rec)); err != nil {
		return fmt.Errorf("notify: send confirmation %s: %w", rec.Reference, err)
	}
	return nil
}

// ConfirmationEmail builds the patient-facing message for rec.
func ConfirmationEmail(rec *bookings.Record) EmailMessage {
	name := strings.TrimSpace(rec.Patient.FirstName + " " + rec.Patient.LastName)
	date := rec.Date.Format(payloadDateLayout)

	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", orDefault(name, "there"))
	b.WriteString("Your appointment has been successfully booked.\n\n")
	fmt.Fprintf(&b, "Booking reference: %s\n", rec.Reference)
	fmt.Fprintf(&b, "Department: %s\n", rec.Department)
	fmt.Fprintf(&b, "Doctor: %s\n", rec.Doctor)
	fmt.Fprintf(&b, "Hospital: %s\n", rec.Hospital)
	fmt.Fprintf(&b, "Date: %s\n", date)
	fmt.Fprintf(&b, "Time: %s\n", rec.TimeSlot)

	return EmailMessage{
		To:      rec.Patient.Email,
		ToName:  name,
		Subject: fmt.Sprintf("Appointment confirmed: %s on %s", rec.Doctor, date),
		Body:    b.String(),
	}
}
