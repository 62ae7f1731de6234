package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/kims-booking/internal/catalog"
	"github.com/wolfman30/kims-booking/internal/validation"
)

// Flow is the per-session state of the booking wizard: the current stage,
// the accumulated selection and the one-shot confirmation.
type Flow struct {
	SessionID   string     `json:"session_id"`
	Stage       Stage      `json:"stage"`
	Selection   Selection  `json:"selection"`
	Confirmed   bool       `json:"confirmed"`
	Reference   string     `json:"booking_reference,omitempty"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// PendingOffer is a suggestion the patient has not answered yet.
	PendingOffer *Offer `json:"pending_offer,omitempty"`
}

// NewFlow returns an empty flow on the first stage.
func NewFlow(sessionID string, now time.Time) *Flow {
	return &Flow{
		SessionID: sessionID,
		Stage:     StageDepartment,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy.
func (f *Flow) Clone() *Flow {
	out := *f
	out.Selection = f.Selection.clone()
	if f.ConfirmedAt != nil {
		t := *f.ConfirmedAt
		out.ConfirmedAt = &t
	}
	if f.PendingOffer != nil {
		o := *f.PendingOffer
		out.PendingOffer = &o
	}
	return &out
}

func (f *Flow) mutable() error {
	if f.Confirmed {
		return ErrAlreadyConfirmed
	}
	return nil
}

func (f *Flow) SetDepartment(d catalog.Department) error {
	if err := f.mutable(); err != nil {
		return err
	}
	f.Selection.Department = &d
	return nil
}

func (f *Flow) SetLocation(h catalog.Hospital) error {
	if err := f.mutable(); err != nil {
		return err
	}
	if !h.Available {
		return fmt.Errorf("%w: %s", ErrLocationUnavailable, h.Name)
	}
	f.Selection.Location = &h
	return nil
}

// SetDate stores the appointment date. A previously chosen time slot is
// dropped when the date changes because its availability is date specific.
func (f *Flow) SetDate(date time.Time) error {
	if err := f.mutable(); err != nil {
		return err
	}
	if f.Selection.Date != nil && !sameDay(*f.Selection.Date, date) {
		f.Selection.TimeSlot = ""
	}
	f.Selection.Date = &date
	return nil
}

// SetDoctorSlot sets doctor and time slot together; they are picked as a pair.
func (f *Flow) SetDoctorSlot(d catalog.Doctor, slot string) error {
	if err := f.mutable(); err != nil {
		return err
	}
	slot = strings.TrimSpace(slot)
	if slot == "" {
		return fmt.Errorf("%w: empty time slot", ErrSlotUnavailable)
	}
	f.Selection.Doctor = &d
	f.Selection.TimeSlot = slot
	return nil
}

// SetPatient validates p and stores it only when every field passes.
func (f *Flow) SetPatient(p validation.Patient) error {
	if err := f.mutable(); err != nil {
		return err
	}
	if err := validation.ValidatePatient(p); err != nil {
		return err
	}
	f.Selection.Patient = &p
	return nil
}

// HoldOffer remembers o until it is applied or dropped; nil drops it.
func (f *Flow) HoldOffer(o *Offer) error {
	if err := f.mutable(); err != nil {
		return err
	}
	if o != nil {
		cp := *o
		o = &cp
	}
	f.PendingOffer = o
	return nil
}

// Missing lists the fields the current stage still needs.
func (f *Flow) Missing() []string {
	var need []string
	switch f.Stage {
	case StageDepartment:
		need = []string{"department"}
	case StageLocation:
		need = []string{"location"}
	case StageDateTime:
		need = []string{"date", "doctor", "time_slot"}
	case StagePatient:
		need = []string{"patient"}
	default:
		return nil
	}
	absent := make(map[string]bool)
	for _, field := range f.Selection.Missing() {
		absent[field] = true
	}
	var out []string
	for _, field := range need {
		if absent[field] {
			out = append(out, field)
		}
	}
	return out
}

// CanAdvance reports whether the current stage's fields are present.
func (f *Flow) CanAdvance() bool {
	return !f.Confirmed && f.Stage < StageConfirmation && len(f.Missing()) == 0
}

// Next moves one stage forward. The patient stage only ends through Confirm.
func (f *Flow) Next() error {
	if err := f.mutable(); err != nil {
		return err
	}
	if missing := f.Missing(); len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrStageIncomplete, strings.Join(missing, ", "))
	}
	if f.Stage == StagePatient {
		return ErrConfirmationRequired
	}
	f.Stage++
	return nil
}

// Back moves one stage backward without clearing anything.
func (f *Flow) Back() error {
	if err := f.mutable(); err != nil {
		return err
	}
	if f.Stage > StageDepartment {
		f.Stage--
	}
	return nil
}

// GoTo jumps backward to an earlier stage.
func (f *Flow) GoTo(stage Stage) error {
	if err := f.mutable(); err != nil {
		return err
	}
	if !stage.Valid() || stage > f.Stage || stage == StageConfirmation {
		return fmt.Errorf("%w: %d", ErrInvalidStage, stage)
	}
	f.Stage = stage
	return nil
}

// Confirm finishes the booking. It succeeds exactly once per booking
// instance; later calls return ErrAlreadyConfirmed until Reset.
func (f *Flow) Confirm(reference string, at time.Time) error {
	if err := f.mutable(); err != nil {
		return err
	}
	if missing := f.Selection.Missing(); len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrStageIncomplete, strings.Join(missing, ", "))
	}
	f.Confirmed = true
	f.Reference = reference
	f.ConfirmedAt = &at
	f.Stage = StageConfirmation
	return nil
}

// Reset starts a new booking instance on the same session.
func (f *Flow) Reset() {
	f.Selection.Clear()
	f.Stage = StageDepartment
	f.Confirmed = false
	f.Reference = ""
	f.ConfirmedAt = nil
	f.PendingOffer = nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
