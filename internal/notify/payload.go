package notify

import (
	"strings"
	"time"

	"github.com/wolfman30/kims-booking/internal/bookings"
	"github.com/wolfman30/kims-booking/internal/validation"
)

const payloadDateLayout = "Monday, January 2, 2006"

// DefaultCountryCode prefixes the patient's mobile when neither the patient
// nor the caller supplies one.
const DefaultCountryCode = "91"

// PatientPayload is the patient block of the webhook body.
type PatientPayload struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Mobile         string `json:"mobile"`
	FormattedPhone string `json:"formatted_phone"`
}

// Payload is the JSON body POSTed to the booking webhook.
type Payload struct {
	BookingReference string         `json:"bookingReference"`
	Timestamp        string         `json:"timestamp"`
	Department       string         `json:"department"`
	Hospital         string         `json:"hospital"`
	Date             string         `json:"date"`
	Doctor           string         `json:"doctor"`
	Time             string         `json:"time"`
	Patient          PatientPayload `json:"patient"`
}

// NewPayload renders a confirmed record into the webhook body. Missing
// values fall back to "Unknown ..." placeholders and the country code to
// defaultCountryCode.
func NewPayload(rec *bookings.Record, now time.Time, defaultCountryCode string) Payload {
	if rec == nil {
		rec = &bookings.Record{}
	}
	date := "Unknown Date"
	if !rec.Date.IsZero() {
		date = rec.Date.Format(payloadDateLayout)
	}
	name := strings.TrimSpace(rec.Patient.FirstName + " " + rec.Patient.LastName)
	if name == "" {
		name = "Unknown Patient"
	}
	mobile := rec.Patient.Mobile
	if strings.TrimSpace(defaultCountryCode) == "" {
		defaultCountryCode = DefaultCountryCode
	}
	code := validation.NormalizeCountryCode(rec.Patient.CountryCode, defaultCountryCode)

	return Payload{
		BookingReference: rec.Reference,
		Timestamp:        now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Department:       orDefault(rec.Department, "Unknown Department"),
		Hospital:         orDefault(rec.Hospital, "Unknown Hospital"),
		Date:             date,
		Doctor:           orDefault(rec.Doctor, "Unknown Doctor"),
		Time:             orDefault(rec.TimeSlot, "Unknown Time"),
		Patient: PatientPayload{
			Name:           name,
			Email:          orDefault(rec.Patient.Email, "unknown@email.com"),
			Mobile:         mobile,
			FormattedPhone: code + mobile,
		},
	}
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
