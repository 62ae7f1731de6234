package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/kims-booking/internal/bookings"
	"github.com/wolfman30/kims-booking/internal/validation"
)

func TestNewSendGridSender_NilWithoutAPIKey(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{FromEmail: "appointments@kims.test"}, nil)
	assert.Nil(t, sender)
}

func TestNewSendGridSender_DefaultFromName(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{APIKey: "test-key", FromEmail: "appointments@kims.test"}, nil)
	require.NotNil(t, sender)
	assert.Equal(t, "KIMS Hospital", sender.fromName)
}

func TestSendGridSender_Send_NilClient(t *testing.T) {
	var sender *SendGridSender
	err := sender.Send(context.Background(), EmailMessage{To: "jane@x.com", Subject: "Test"})
	assert.Error(t, err)
}

func TestStubEmailSender_Send(t *testing.T) {
	err := NewStubEmailSender(nil).Send(context.Background(), EmailMessage{To: "jane@x.com", Subject: "Test"})
	assert.NoError(t, err)
}

type recordingSender struct {
	sent []EmailMessage
	err  error
}

func (r *recordingSender) Send(ctx context.Context, msg EmailMessage) error {
	r.sent = append(r.sent, msg)
	return r.err
}

func confirmedRecord() *bookings.Record {
	return &bookings.Record{
		Reference:  "K7QX2M9PA",
		SessionID:  "s-1",
		Department: "Dentistry",
		Hospital:   "KIMS Main Campus",
		Date:       time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC),
		Doctor:     "Dr. Sarah Johnson",
		TimeSlot:   "10:00 AM",
		Patient: validation.Patient{
			FirstName:   "Jane",
			LastName:    "Doe",
			Email:       "jane@x.com",
			Mobile:      "9876543210",
			CountryCode: "+91",
		},
	}
}

func TestConfirmationMailerSend(t *testing.T) {
	sender := &recordingSender{}
	mailer := NewConfirmationMailer(sender)

	require.NoError(t, mailer.Send(context.Background(), confirmedRecord()))
	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "jane@x.com", msg.To)
	assert.Equal(t, "Jane Doe", msg.ToName)
	assert.Equal(t, "Appointment confirmed: Dr. Sarah Johnson on Tuesday, October 20, 2026", msg.Subject)
	assert.Contains(t, msg.Body, "Booking reference: K7QX2M9PA")
	assert.Contains(t, msg.Body, "Time: 10:00 AM")
}

func TestConfirmationMailerErrors(t *testing.T) {
	sender := &recordingSender{err: errors.New("boom")}
	mailer := NewConfirmationMailer(sender)

	err := mailer.Send(context.Background(), confirmedRecord())
	assert.ErrorContains(t, err, "K7QX2M9PA")

	rec := confirmedRecord()
	rec.Patient.Email = ""
	assert.ErrorIs(t, mailer.Send(context.Background(), rec), ErrNoRecipient)

	var nilMailer *ConfirmationMailer
	assert.NoError(t, nilMailer.Send(context.Background(), rec))
}
