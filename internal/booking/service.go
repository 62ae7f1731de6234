package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/kims-booking/internal/bookings"
	"github.com/wolfman30/kims-booking/internal/catalog"
	"github.com/wolfman30/kims-booking/internal/geo"
	"github.com/wolfman30/kims-booking/internal/notify"
	"github.com/wolfman30/kims-booking/internal/slots"
	"github.com/wolfman30/kims-booking/internal/validation"
	"github.com/wolfman30/kims-booking/pkg/logging"
)

var bookingTracer = otel.Tracer("kims.internal.booking")

// Notifier delivers the confirmation webhook.
type Notifier interface {
	Notify(ctx context.Context, payload notify.Payload) error
}

// Mailer emails the patient a confirmation.
type Mailer interface {
	Send(ctx context.Context, rec *bookings.Record) error
}

// Dispatcher runs background jobs without blocking the caller.
type Dispatcher interface {
	Enqueue(job notify.Job) bool
}

// Metrics observes funnel progress.
type Metrics interface {
	ObserveTransition(stage, result string)
	ObserveConfirmed(channel string)
}

// Ranker orders hospitals for a patient position.
type Ranker interface {
	Rank(ctx context.Context, origin *catalog.Coordinates, hospitals []catalog.Hospital) []geo.RankedHospital
}

// Service drives booking sessions: it validates each selection against the
// catalog and slot generator, persists the flow and, on confirmation,
// archives the booking and fires the webhook in the background.
type Service struct {
	store      SessionStore
	archive    bookings.Repository
	slots      *slots.Generator
	logger     *logging.Logger
	notifier   Notifier
	mailer     Mailer
	dispatcher Dispatcher
	metrics    Metrics
	ranker     Ranker

	countryCode  string
	newReference func() string
}

func NewService(store SessionStore, archive bookings.Repository, gen *slots.Generator, logger *logging.Logger) *Service {
	if store == nil {
		panic("booking: session store required")
	}
	if gen == nil {
		gen = slots.NewGenerator(nil, nil)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		store:        store,
		archive:      archive,
		slots:        gen,
		logger:       logger,
		countryCode:  notify.DefaultCountryCode,
		newReference: NewReference,
	}
}

func (s *Service) WithNotifier(n Notifier) *Service {
	s.notifier = n
	return s
}

func (s *Service) WithMailer(m Mailer) *Service {
	s.mailer = m
	return s
}

func (s *Service) WithDispatcher(d Dispatcher) *Service {
	s.dispatcher = d
	return s
}

func (s *Service) WithMetrics(m Metrics) *Service {
	s.metrics = m
	return s
}

func (s *Service) WithRanker(r Ranker) *Service {
	s.ranker = r
	return s
}

func (s *Service) WithDefaultCountryCode(code string) *Service {
	if code = validation.PhoneDigits(code); code != "" {
		s.countryCode = code
	}
	return s
}

func (s *Service) WithReferenceGenerator(fn func() string) *Service {
	if fn != nil {
		s.newReference = fn
	}
	return s
}

// Slots exposes the generator so other surfaces share one clock.
func (s *Service) Slots() *slots.Generator {
	return s.slots
}

// Start opens a new empty session.
func (s *Service) Start(ctx context.Context) (*Flow, error) {
	flow := NewFlow(uuid.NewString(), s.slots.Now().UTC())
	if err := s.store.Create(ctx, flow); err != nil {
		return nil, fmt.Errorf("booking: start session: %w", err)
	}
	s.logger.Info("booking session started", "session_id", flow.SessionID)
	return flow, nil
}

func (s *Service) Get(ctx context.Context, sessionID string) (*Flow, error) {
	return s.store.Get(ctx, sessionID)
}

func (s *Service) SelectDepartment(ctx context.Context, sessionID string, departmentID int) (*Flow, error) {
	dept, err := catalog.DepartmentByID(departmentID)
	if err != nil {
		return nil, err
	}
	return s.store.Update(ctx, sessionID, func(f *Flow) error {
		return f.SetDepartment(dept)
	})
}

func (s *Service) SelectLocation(ctx context.Context, sessionID string, hospitalID int) (*Flow, error) {
	hospital, err := catalog.HospitalByID(hospitalID)
	if err != nil {
		return nil, err
	}
	return s.store.Update(ctx, sessionID, func(f *Flow) error {
		return f.SetLocation(hospital)
	})
}

func (s *Service) SelectDate(ctx context.Context, sessionID string, date time.Time) (*Flow, error) {
	if s.slots.IsPastDate(date) {
		return nil, ErrPastDate
	}
	day := s.slots.Day(date)
	return s.store.Update(ctx, sessionID, func(f *Flow) error {
		return f.SetDate(day)
	})
}

// SelectSlot picks a doctor and one of the labels currently offered for the
// session's date.
func (s *Service) SelectSlot(ctx context.Context, sessionID string, doctorID int, label string) (*Flow, error) {
	doctor, err := catalog.DoctorByID(doctorID)
	if err != nil {
		return nil, err
	}
	return s.store.Update(ctx, sessionID, func(f *Flow) error {
		if f.Selection.Date == nil {
			return ErrDateRequired
		}
		if err := s.checkSlot(doctor, *f.Selection.Date, label); err != nil {
			return err
		}
		return f.SetDoctorSlot(doctor, label)
	})
}

func (s *Service) checkSlot(doctor catalog.Doctor, date time.Time, label string) error {
	period, ok := slots.PeriodOf(label)
	if !ok {
		return fmt.Errorf("%w: %q", ErrSlotUnavailable, label)
	}
	if _, ok := s.slots.Find(period, slots.CapacityFor(doctor, period), date, label); !ok {
		return fmt.Errorf("%w: %s at %q", ErrSlotUnavailable, doctor.Name, label)
	}
	return nil
}

// SubmitPatient normalizes and validates the patient details. Invalid input
// returns validation.Errors and leaves the session unchanged.
func (s *Service) SubmitPatient(ctx context.Context, sessionID string, p validation.Patient) (*Flow, error) {
	patient := validation.Normalize(p, s.countryCode)
	return s.store.Update(ctx, sessionID, func(f *Flow) error {
		return f.SetPatient(patient)
	})
}

// Offer is a complete department, hospital, doctor, date and slot choice
// applied in one step, as the chat bot does when the patient accepts a
// suggestion.
type Offer struct {
	DepartmentID int       `json:"department_id"`
	HospitalID   int       `json:"hospital_id"`
	DoctorID     int       `json:"doctor_id"`
	Date         time.Time `json:"date"`
	TimeSlot     string    `json:"time_slot"`
}

// HoldOffer stores offer on the session so a later request, or a reconnect,
// can accept it. A nil offer drops the pending one.
func (s *Service) HoldOffer(ctx context.Context, sessionID string, offer *Offer) (*Flow, error) {
	return s.store.Update(ctx, sessionID, func(f *Flow) error {
		return f.HoldOffer(offer)
	})
}

func (s *Service) ApplyOffer(ctx context.Context, sessionID string, offer Offer) (*Flow, error) {
	dept, err := catalog.DepartmentByID(offer.DepartmentID)
	if err != nil {
		return nil, err
	}
	hospital, err := catalog.HospitalByID(offer.HospitalID)
	if err != nil {
		return nil, err
	}
	doctor, err := catalog.DoctorByID(offer.DoctorID)
	if err != nil {
		return nil, err
	}
	if s.slots.IsPastDate(offer.Date) {
		return nil, ErrPastDate
	}
	day := s.slots.Day(offer.Date)
	if err := s.checkSlot(doctor, day, offer.TimeSlot); err != nil {
		return nil, err
	}
	return s.store.Update(ctx, sessionID, func(f *Flow) error {
		if err := f.SetDepartment(dept); err != nil {
			return err
		}
		if err := f.SetLocation(hospital); err != nil {
			return err
		}
		if err := f.SetDate(day); err != nil {
			return err
		}
		if err := f.SetDoctorSlot(doctor, offer.TimeSlot); err != nil {
			return err
		}
		if f.Stage < StagePatient {
			f.Stage = StagePatient
		}
		f.PendingOffer = nil
		return nil
	})
}

// Advance moves the wizard forward. On the patient stage it confirms.
func (s *Service) Advance(ctx context.Context, sessionID string) (*Flow, error) {
	current, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if current.Stage == StagePatient {
		return s.Confirm(ctx, sessionID, bookings.ChannelWizard)
	}

	flow, err := s.store.Update(ctx, sessionID, func(f *Flow) error {
		return f.Next()
	})
	s.observeTransition(current.Stage, err)
	return flow, err
}

func (s *Service) Back(ctx context.Context, sessionID string) (*Flow, error) {
	return s.store.Update(ctx, sessionID, func(f *Flow) error {
		return f.Back()
	})
}

func (s *Service) GoTo(ctx context.Context, sessionID string, stage Stage) (*Flow, error) {
	return s.store.Update(ctx, sessionID, func(f *Flow) error {
		return f.GoTo(stage)
	})
}

// Reset clears the selection and returns the session to the first stage.
func (s *Service) Reset(ctx context.Context, sessionID string) (*Flow, error) {
	return s.store.Update(ctx, sessionID, func(f *Flow) error {
		f.Reset()
		return nil
	})
}

// Confirm completes the booking exactly once. The archive write and webhook
// happen after the session is committed; their failures are logged and
// never undo the confirmation.
func (s *Service) Confirm(ctx context.Context, sessionID string, channel bookings.Channel) (*Flow, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.confirm")
	defer span.End()
	span.SetAttributes(
		attribute.String("kims.session_id", sessionID),
		attribute.String("kims.channel", string(channel)),
	)

	reference := s.newReference()
	confirmedAt := s.slots.Now().UTC()
	flow, err := s.store.Update(ctx, sessionID, func(f *Flow) error {
		return f.Confirm(reference, confirmedAt)
	})
	s.observeTransition(StagePatient, err)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("kims.booking_reference", reference))

	rec := RecordFromFlow(flow, channel)
	if s.archive != nil {
		if err := s.archive.Save(ctx, rec); err != nil {
			span.RecordError(err)
			s.logger.Error("failed to archive booking", "error", err, "reference", reference, "session_id", sessionID)
		}
	}
	s.dispatchConfirmation(rec, confirmedAt)
	if s.metrics != nil {
		s.metrics.ObserveConfirmed(string(channel))
	}

	s.logger.Info("booking confirmed",
		"session_id", sessionID,
		"reference", reference,
		"channel", channel,
		"doctor", rec.Doctor,
		"time_slot", rec.TimeSlot,
	)
	return flow, nil
}

func (s *Service) dispatchConfirmation(rec *bookings.Record, at time.Time) {
	if s.notifier != nil {
		payload := notify.NewPayload(rec, at, s.countryCode)
		s.enqueue(notify.Job{
			Name:      "booking_webhook",
			Reference: rec.Reference,
			Run: func(ctx context.Context) error {
				return s.notifier.Notify(ctx, payload)
			},
		})
	}
	if s.mailer != nil {
		copied := *rec
		s.enqueue(notify.Job{
			Name:      "confirmation_email",
			Reference: rec.Reference,
			Run: func(ctx context.Context) error {
				return s.mailer.Send(ctx, &copied)
			},
		})
	}
}

func (s *Service) enqueue(job notify.Job) {
	if s.dispatcher != nil {
		s.dispatcher.Enqueue(job)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := job.Run(ctx); err != nil {
			s.logger.Warn("background job failed", "job", job.Name, "reference", job.Reference, "error", err)
		}
	}()
}

func (s *Service) observeTransition(stage Stage, err error) {
	if s.metrics == nil {
		return
	}
	result := "advanced"
	switch {
	case err == nil:
	case errors.Is(err, ErrStageIncomplete):
		result = "blocked"
	case errors.Is(err, ErrAlreadyConfirmed):
		result = "duplicate"
	default:
		result = "error"
	}
	s.metrics.ObserveTransition(stage.String(), result)
}

// RecordFromFlow flattens a confirmed flow into an archive record.
func RecordFromFlow(f *Flow, channel bookings.Channel) *bookings.Record {
	sel := f.Selection
	rec := &bookings.Record{
		Reference: f.Reference,
		SessionID: f.SessionID,
		Channel:   channel,
		TimeSlot:  sel.TimeSlot,
	}
	if sel.Department != nil {
		rec.DepartmentID = sel.Department.ID
		rec.Department = sel.Department.Name
	}
	if sel.Location != nil {
		rec.HospitalID = sel.Location.ID
		rec.Hospital = sel.Location.Name
	}
	if sel.Date != nil {
		rec.Date = *sel.Date
	}
	if sel.Doctor != nil {
		rec.DoctorID = sel.Doctor.ID
		rec.Doctor = sel.Doctor.Name
	}
	if sel.Patient != nil {
		rec.Patient = *sel.Patient
	}
	return rec
}

// Locations returns hospitals ordered for origin; nil keeps the static order.
func (s *Service) Locations(ctx context.Context, origin *catalog.Coordinates) []geo.RankedHospital {
	hospitals := catalog.Hospitals()
	if s.ranker == nil {
		out := make([]geo.RankedHospital, len(hospitals))
		for i, h := range hospitals {
			out[i] = geo.RankedHospital{Hospital: h}
		}
		return out
	}
	return s.ranker.Rank(ctx, origin, hospitals)
}

// DoctorAvailability lists each doctor of the department with the slots
// offered on date. A zero department id lists every doctor.
func (s *Service) DoctorAvailability(departmentID int, date time.Time) ([]slots.Schedule, error) {
	doctors, err := s.roster(departmentID)
	if err != nil {
		return nil, err
	}
	out := make([]slots.Schedule, 0, len(doctors))
	for _, d := range doctors {
		out = append(out, s.slots.ScheduleFor(d, date))
	}
	return out, nil
}

// Dates describes the quick-date strip from start for the department roster.
func (s *Service) Dates(departmentID int, start time.Time, n int) ([]slots.DaySummary, error) {
	doctors, err := s.roster(departmentID)
	if err != nil {
		return nil, err
	}
	return s.slots.Summaries(doctors, start, n), nil
}

func (s *Service) roster(departmentID int) ([]catalog.Doctor, error) {
	if departmentID == 0 {
		return catalog.Doctors(), nil
	}
	if _, err := catalog.DepartmentByID(departmentID); err != nil {
		return nil, err
	}
	return catalog.DoctorsForDepartment(departmentID), nil
}
