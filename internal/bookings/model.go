// Package bookings archives confirmed appointments so operators can look
// them up later. It is a record of confirmations only; doctor capacity is
// never decremented here.
package bookings

import (
	"strings"
	"time"

	"github.com/wolfman30/kims-booking/internal/validation"
)

// Channel identifies which surface produced a confirmation.
type Channel string

const (
	ChannelWizard Channel = "wizard"
	ChannelChat   Channel = "chat"
)

// Record is one confirmed booking.
type Record struct {
	ID           string             `json:"id"`
	Reference    string             `json:"booking_reference"`
	SessionID    string             `json:"session_id"`
	Channel      Channel            `json:"channel"`
	DepartmentID int                `json:"department_id"`
	Department   string             `json:"department"`
	HospitalID   int                `json:"hospital_id"`
	Hospital     string             `json:"hospital"`
	Date         time.Time          `json:"date"`
	DoctorID     int                `json:"doctor_id"`
	Doctor       string             `json:"doctor"`
	TimeSlot     string             `json:"time_slot"`
	Patient      validation.Patient `json:"patient"`
	CreatedAt    time.Time          `json:"created_at"`
}

// Validate checks the fields the archive keys on.
func (r *Record) Validate() error {
	if strings.TrimSpace(r.Reference) == "" || strings.TrimSpace(r.SessionID) == "" {
		return ErrInvalidRecord
	}
	return nil
}

// ListFilter pages through the archive, newest first.
type ListFilter struct {
	Limit  int
	Offset int
}

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

func (f ListFilter) normalized() ListFilter {
	if f.Limit <= 0 || f.Limit > maxListLimit {
		f.Limit = defaultListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
