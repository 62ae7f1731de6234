package booking

import (
	"strings"
	"time"

	"github.com/wolfman30/kims-booking/internal/catalog"
	"github.com/wolfman30/kims-booking/internal/validation"
)

// Selection accumulates the patient's choices. Every field is optional and
// may be set in any order; the wizard stages decide what is required when.
type Selection struct {
	Department *catalog.Department `json:"department,omitempty"`
	Location   *catalog.Hospital   `json:"location,omitempty"`
	Date       *time.Time          `json:"date,omitempty"`
	Doctor     *catalog.Doctor     `json:"doctor,omitempty"`
	TimeSlot   string              `json:"time_slot,omitempty"`
	Patient    *validation.Patient `json:"patient,omitempty"`
}

// Complete reports whether all six fields are present.
func (s Selection) Complete() bool {
	return len(s.Missing()) == 0
}

// Missing lists absent fields in wizard order.
func (s Selection) Missing() []string {
	var out []string
	if s.Department == nil {
		out = append(out, "department")
	}
	if s.Location == nil {
		out = append(out, "location")
	}
	if s.Date == nil {
		out = append(out, "date")
	}
	if s.Doctor == nil {
		out = append(out, "doctor")
	}
	if strings.TrimSpace(s.TimeSlot) == "" {
		out = append(out, "time_slot")
	}
	if s.Patient == nil {
		out = append(out, "patient")
	}
	return out
}

// Clear empties every field.
func (s *Selection) Clear() {
	*s = Selection{}
}

func (s Selection) clone() Selection {
	out := Selection{TimeSlot: s.TimeSlot}
	if s.Department != nil {
		d := *s.Department
		out.Department = &d
	}
	if s.Location != nil {
		h := *s.Location
		out.Location = &h
	}
	if s.Date != nil {
		t := *s.Date
		out.Date = &t
	}
	if s.Doctor != nil {
		d := *s.Doctor
		d.DepartmentIDs = append([]int(nil), d.DepartmentIDs...)
		d.Languages = append([]string(nil), d.Languages...)
		out.Doctor = &d
	}
	if s.Patient != nil {
		p := *s.Patient
		out.Patient = &p
	}
	return out
}
