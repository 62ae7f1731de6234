package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wolfman30/kims-booking/internal/booking"
	"github.com/wolfman30/kims-booking/internal/bookings"
	"github.com/wolfman30/kims-booking/internal/catalog"
	"github.com/wolfman30/kims-booking/internal/slots"
	"github.com/wolfman30/kims-booking/internal/validation"
	"github.com/wolfman30/kims-booking/pkg/logging"
)

// EventType names a user action sent by the chat client.
type EventType string

const (
	EventStartBooking     EventType = "start_booking"
	EventChatMode         EventType = "chat_mode"
	EventMessage          EventType = "message"
	EventSelectDepartment EventType = "select_department"
	EventSelectLocation   EventType = "select_location"
	EventSelectSlot       EventType = "select_slot"
	EventSubmitPatient    EventType = "submit_patient"
	EventAcceptOffer      EventType = "accept_offer"
	EventDeclineOffer     EventType = "decline_offer"
	EventConfirm          EventType = "confirm"
	EventRestart          EventType = "restart"
	EventPing             EventType = "ping"
)

// Event is one inbound action. Only the fields relevant to Type are read.
type Event struct {
	Type         EventType           `json:"type"`
	Text         string              `json:"text,omitempty"`
	DepartmentID int                 `json:"department_id,omitempty"`
	HospitalID   int                 `json:"hospital_id,omitempty"`
	DoctorID     int                 `json:"doctor_id,omitempty"`
	Date         string              `json:"date,omitempty"`
	TimeSlot     string              `json:"time_slot,omitempty"`
	Patient      *validation.Patient `json:"patient,omitempty"`
}

// Outbound message types.
const (
	TypeSession = "session"
	TypeTyping  = "typing"
	TypeMessage = "message"
	TypeState   = "state"
	TypeError   = "error"
	TypeHistory = "history"
	TypePong    = "pong"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Outbound is everything the server sends to a chat client.
type Outbound struct {
	Type      string            `json:"type"`
	Role      string            `json:"role,omitempty"`
	Text      string            `json:"text,omitempty"`
	Options   []Option          `json:"options,omitempty"`
	Prompt    Prompt            `json:"prompt,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
	Booking   *booking.Flow     `json:"booking,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	Messages  []Message         `json:"messages,omitempty"`
}

// Booker is the part of booking.Service the assistant drives.
type Booker interface {
	Start(ctx context.Context) (*booking.Flow, error)
	Get(ctx context.Context, sessionID string) (*booking.Flow, error)
	SelectDepartment(ctx context.Context, sessionID string, departmentID int) (*booking.Flow, error)
	SelectLocation(ctx context.Context, sessionID string, hospitalID int) (*booking.Flow, error)
	SelectDate(ctx context.Context, sessionID string, date time.Time) (*booking.Flow, error)
	SelectSlot(ctx context.Context, sessionID string, doctorID int, label string) (*booking.Flow, error)
	SubmitPatient(ctx context.Context, sessionID string, p validation.Patient) (*booking.Flow, error)
	HoldOffer(ctx context.Context, sessionID string, offer *booking.Offer) (*booking.Flow, error)
	ApplyOffer(ctx context.Context, sessionID string, offer booking.Offer) (*booking.Flow, error)
	Confirm(ctx context.Context, sessionID string, channel bookings.Channel) (*booking.Flow, error)
	Reset(ctx context.Context, sessionID string) (*booking.Flow, error)
	Slots() *slots.Generator
}

const (
	dentistOfferSlot = "10:00 AM"
	longDateLayout   = "Monday, January 2, 2006"
)

var (
	errNoOffer         = errors.New("chat: no appointment offer pending")
	errInvalidDate     = errors.New("chat: invalid date")
	errPatientRequired = errors.New("chat: patient details required")
	errUnsupported     = errors.New("chat: unsupported event")
)

var userErrors = []struct {
	err  error
	text string
}{
	{booking.ErrStageIncomplete, "Please complete the previous steps first."},
	{booking.ErrAlreadyConfirmed, "This appointment is already booked."},
	{booking.ErrLocationUnavailable, "That location is not available for booking right now."},
	{booking.ErrPastDate, "Please choose today or a later date."},
	{booking.ErrDateRequired, "Please choose a date first."},
	{booking.ErrSlotUnavailable, "That time is no longer available. Please pick another slot."},
	{catalog.ErrDepartmentNotFound, "That option isn't available. Please choose again."},
	{catalog.ErrHospitalNotFound, "That option isn't available. Please choose again."},
	{catalog.ErrDoctorNotFound, "That option isn't available. Please choose again."},
	{errNoOffer, "There is no appointment offer to accept. Let's start again."},
	{errInvalidDate, "Please choose a valid date."},
	{errPatientRequired, "Please fill in your contact details."},
	{errUnsupported, "Sorry, I didn't understand that."},
}

// Bot creates chat sessions bound to booking sessions.
type Bot struct {
	booker     Booker
	scheduler  *Scheduler
	transcript TranscriptStore
	intents    IntentTable
	logger     *logging.Logger
}

func NewBot(booker Booker, scheduler *Scheduler, transcript TranscriptStore, logger *logging.Logger) *Bot {
	if scheduler == nil {
		scheduler = NewScheduler(1)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Bot{
		booker:     booker,
		scheduler:  scheduler,
		transcript: transcript,
		intents:    DefaultIntents(),
		logger:     logger,
	}
}

// WithIntents replaces the keyword table.
func (b *Bot) WithIntents(t IntentTable) *Bot {
	b.intents = t
	return b
}

// WithScheduler returns a copy of the bot that plays scripts on s.
func (b *Bot) WithScheduler(s *Scheduler) *Bot {
	cp := *b
	cp.scheduler = s
	return &cp
}

// Open resumes the booking session sessionID, or starts a new one when it
// is empty or unknown. resumed reports which happened.
func (b *Bot) Open(ctx context.Context, sessionID string) (s *Session, resumed bool, err error) {
	if sessionID != "" {
		_, err := b.booker.Get(ctx, sessionID)
		if err == nil {
			return b.session(sessionID), true, nil
		}
		if !errors.Is(err, booking.ErrSessionNotFound) {
			return nil, false, fmt.Errorf("chat: resume session: %w", err)
		}
	}
	flow, err := b.booker.Start(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("chat: open session: %w", err)
	}
	return b.session(flow.SessionID), false, nil
}

func (b *Bot) session(id string) *Session {
	return &Session{bot: b, id: id}
}

// History returns the last limit transcript messages of a session.
func (b *Bot) History(ctx context.Context, sessionID string, limit int64) ([]Message, error) {
	if b.transcript == nil {
		return []Message{}, nil
	}
	return b.transcript.List(ctx, sessionID, limit)
}

// Session is one conversation. Events are handled one at a time in arrival
// order. All booking state, including a pending offer, lives in the booking
// session, so any Session opened on the same id can continue it.
type Session struct {
	bot *Bot
	id  string

	mu sync.Mutex
}

// ID is the underlying booking session id.
func (s *Session) ID() string {
	return s.id
}

// Greet plays the welcome script.
func (s *Session) Greet(ctx context.Context, emit Emitter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.play(ctx, WelcomeScript(), emit)
}

// Handle applies one user event. Problems the user can fix are reported to
// emit as error messages and return nil; a cancelled ctx or an
// infrastructure failure is returned.
func (s *Session) Handle(ctx context.Context, ev Event, emit Emitter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	switch ev.Type {
	case EventPing:
		emit(Outbound{Type: TypePong})
		return nil
	case EventStartBooking:
		s.say(ctx, "📅 Book An Appointment", emit)
		return s.play(ctx, StartBookingScript(), emit)
	case EventChatMode:
		s.say(ctx, "💬 Chat with Bot", emit)
		return s.play(ctx, ChatModeScript(), emit)
	case EventMessage:
		err = s.handleText(ctx, ev.Text, emit)
	case EventAcceptOffer:
		err = s.acceptOffer(ctx, emit)
	case EventDeclineOffer:
		err = s.declineOffer(ctx, emit)
	case EventSelectDepartment:
		err = s.selectDepartment(ctx, ev.DepartmentID, emit)
	case EventSelectLocation:
		err = s.selectLocation(ctx, ev.HospitalID, emit)
	case EventSelectSlot:
		err = s.selectSlot(ctx, ev, emit)
	case EventSubmitPatient:
		err = s.submitPatient(ctx, ev.Patient, emit)
	case EventConfirm:
		err = s.confirm(ctx, emit)
	case EventRestart:
		err = s.restart(ctx, emit)
	default:
		err = fmt.Errorf("%w: %q", errUnsupported, ev.Type)
	}
	if err == nil {
		return nil
	}
	return s.fail(ctx, err, emit)
}

func (s *Session) handleText(ctx context.Context, text string, emit Emitter) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	s.say(ctx, text, emit)
	if s.bot.intents.Match(text) == IntentDentist {
		return s.offerDentist(ctx, emit)
	}
	return s.play(ctx, GeneralScript(), emit)
}

func (s *Session) offerDentist(ctx context.Context, emit Emitter) error {
	if err := s.play(ctx, DentistCheckScript(), emit); err != nil {
		return err
	}
	doctor, err := catalog.DoctorByID(catalog.SarahJohnsonID)
	if err != nil {
		return err
	}
	if _, err := s.bot.booker.SelectDepartment(ctx, s.id, catalog.DentistryID); err != nil {
		return err
	}
	flow, err := s.bot.booker.HoldOffer(ctx, s.id, &booking.Offer{
		DepartmentID: catalog.DentistryID,
		HospitalID:   catalog.MainCampusID,
		DoctorID:     doctor.ID,
		Date:         s.bot.booker.Slots().Today().AddDate(0, 0, 1),
		TimeSlot:     dentistOfferSlot,
	})
	if err != nil {
		return err
	}
	s.state(flow, emit)
	return s.play(ctx, DentistOfferScript(doctor.Name, "tomorrow", dentistOfferSlot), emit)
}

func (s *Session) acceptOffer(ctx context.Context, emit Emitter) error {
	current, err := s.bot.booker.Get(ctx, s.id)
	if err != nil {
		return err
	}
	offer := current.PendingOffer
	if offer == nil {
		return errNoOffer
	}
	doctor, err := catalog.DoctorByID(offer.DoctorID)
	if err != nil {
		return err
	}
	s.say(ctx, "✅ Yes, book this appointment with "+doctor.Name, emit)
	flow, err := s.bot.booker.ApplyOffer(ctx, s.id, *offer)
	if err != nil {
		return err
	}
	s.state(flow, emit)
	return s.play(ctx, OfferAcceptedScript(), emit)
}

func (s *Session) declineOffer(ctx context.Context, emit Emitter) error {
	s.say(ctx, "🔍 Let me see other options", emit)
	if _, err := s.bot.booker.HoldOffer(ctx, s.id, nil); err != nil {
		return err
	}
	return s.play(ctx, OfferDeclinedScript(), emit)
}

func (s *Session) selectDepartment(ctx context.Context, id int, emit Emitter) error {
	dept, err := catalog.DepartmentByID(id)
	if err != nil {
		return err
	}
	s.say(ctx, "I selected "+dept.Name, emit)
	flow, err := s.bot.booker.SelectDepartment(ctx, s.id, id)
	if err != nil {
		return err
	}
	s.state(flow, emit)
	return s.play(ctx, DepartmentScript(dept.Name), emit)
}

func (s *Session) selectLocation(ctx context.Context, id int, emit Emitter) error {
	hospital, err := catalog.HospitalByID(id)
	if err != nil {
		return err
	}
	s.say(ctx, "I chose "+hospital.Name, emit)
	flow, err := s.bot.booker.SelectLocation(ctx, s.id, id)
	if err != nil {
		return err
	}
	s.state(flow, emit)
	return s.play(ctx, LocationScript(hospital.Name), emit)
}

func (s *Session) selectSlot(ctx context.Context, ev Event, emit Emitter) error {
	date, err := s.bot.booker.Slots().ParseDate(ev.Date)
	if err != nil {
		return fmt.Errorf("%w: %q", errInvalidDate, ev.Date)
	}
	doctor, err := catalog.DoctorByID(ev.DoctorID)
	if err != nil {
		return err
	}
	when := date.Format(longDateLayout)
	s.say(ctx, fmt.Sprintf("I booked with %s on %s at %s", doctor.Name, when, ev.TimeSlot), emit)

	if _, err := s.bot.booker.SelectDate(ctx, s.id, date); err != nil {
		return err
	}
	flow, err := s.bot.booker.SelectSlot(ctx, s.id, doctor.ID, ev.TimeSlot)
	if err != nil {
		return err
	}
	s.state(flow, emit)
	return s.play(ctx, SlotScript(doctor.Name, when, ev.TimeSlot), emit)
}

// submitPatient stores the details and completes the booking, the way the
// confirmation card does once the form is accepted.
func (s *Session) submitPatient(ctx context.Context, p *validation.Patient, emit Emitter) error {
	if p == nil {
		return errPatientRequired
	}
	flow, err := s.bot.booker.SubmitPatient(ctx, s.id, *p)
	if err != nil {
		return err
	}
	patient := flow.Selection.Patient
	s.say(ctx, fmt.Sprintf("My details: %s %s, %s, %s", patient.FirstName, patient.LastName, patient.Email, patient.Mobile), emit)
	s.state(flow, emit)
	if err := s.play(ctx, PatientScript(patient.FirstName), emit); err != nil {
		return err
	}
	return s.confirm(ctx, emit)
}

func (s *Session) confirm(ctx context.Context, emit Emitter) error {
	flow, err := s.bot.booker.Confirm(ctx, s.id, bookings.ChannelChat)
	if err != nil {
		return err
	}
	s.state(flow, emit)
	return s.play(ctx, ConfirmedScript(), emit)
}

func (s *Session) restart(ctx context.Context, emit Emitter) error {
	s.say(ctx, "🔄 Book Another Appointment", emit)
	flow, err := s.bot.booker.Reset(ctx, s.id)
	if err != nil {
		return err
	}
	s.state(flow, emit)
	return s.play(ctx, RestartScript(), emit)
}

func (s *Session) fail(ctx context.Context, err error, emit Emitter) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var fields validation.Errors
	if errors.As(err, &fields) {
		emit(Outbound{Type: TypeError, Text: "Please check the highlighted details.", Fields: fields})
		return nil
	}
	for _, ue := range userErrors {
		if errors.Is(err, ue.err) {
			emit(Outbound{Type: TypeError, Text: ue.text})
			return nil
		}
	}
	s.bot.logger.Error("chat: event failed", "session_id", s.id, "error", err)
	emit(Outbound{Type: TypeError, Text: "Sorry, something went wrong. Please try again."})
	return err
}

// play records every bot message in the transcript before forwarding it.
func (s *Session) play(ctx context.Context, script Script, emit Emitter) error {
	return s.bot.scheduler.Play(ctx, script, func(out Outbound) {
		if out.Type == TypeMessage {
			s.record(ctx, RoleAssistant, out.Text)
		}
		emit(out)
	})
}

func (s *Session) say(ctx context.Context, text string, emit Emitter) {
	s.record(ctx, RoleUser, text)
	emit(Outbound{Type: TypeMessage, Role: RoleUser, Text: text})
}

func (s *Session) record(ctx context.Context, role, text string) {
	if s.bot.transcript == nil {
		return
	}
	if err := s.bot.transcript.Append(ctx, s.id, Message{Role: role, Text: text, Kind: "chat"}); err != nil {
		s.bot.logger.Warn("chat: failed to record transcript", "session_id", s.id, "error", err)
	}
}

func (s *Session) state(flow *booking.Flow, emit Emitter) {
	emit(Outbound{Type: TypeState, SessionID: s.id, Booking: flow})
}
