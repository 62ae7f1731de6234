package notify

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/kims-booking/internal/bookings"
)

func TestNewPayload(t *testing.T) {
	now := time.Date(2026, 10, 19, 10, 30, 0, 0, time.FixedZone("IST", 19800))
	p := NewPayload(confirmedRecord(), now, "1")

	assert.Equal(t, "K7QX2M9PA", p.BookingReference)
	assert.Equal(t, "2026-10-19T05:00:00.000Z", p.Timestamp)
	assert.Equal(t, "Dentistry", p.Department)
	assert.Equal(t, "KIMS Main Campus", p.Hospital)
	assert.Equal(t, "Tuesday, October 20, 2026", p.Date)
	assert.Equal(t, "Dr. Sarah Johnson", p.Doctor)
	assert.Equal(t, "10:00 AM", p.Time)
	assert.Equal(t, PatientPayload{
		Name:           "Jane Doe",
		Email:          "jane@x.com",
		Mobile:         "9876543210",
		FormattedPhone: "919876543210",
	}, p.Patient)
}

func TestNewPayloadDefaults(t *testing.T) {
	p := NewPayload(&bookings.Record{Reference: "ABC"}, time.Unix(0, 0), "")

	assert.Equal(t, "Unknown Department", p.Department)
	assert.Equal(t, "Unknown Hospital", p.Hospital)
	assert.Equal(t, "Unknown Date", p.Date)
	assert.Equal(t, "Unknown Doctor", p.Doctor)
	assert.Equal(t, "Unknown Time", p.Time)
	assert.Equal(t, "Unknown Patient", p.Patient.Name)
	assert.Equal(t, "unknown@email.com", p.Patient.Email)
	assert.Equal(t, "91", p.Patient.FormattedPhone)
}

func TestPayloadJSONKeys(t *testing.T) {
	raw, err := json.Marshal(NewPayload(confirmedRecord(), time.Now(), "91"))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	for _, key := range []string{"bookingReference", "timestamp", "department", "hospital", "date", "doctor", "time", "patient"} {
		assert.Contains(t, decoded, key)
	}
	patient := decoded["patient"].(map[string]any)
	assert.Equal(t, "919876543210", patient["formatted_phone"])
}
