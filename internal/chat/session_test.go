package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/kims-booking/internal/booking"
	"github.com/wolfman30/kims-booking/internal/bookings"
	"github.com/wolfman30/kims-booking/internal/notify"
	"github.com/wolfman30/kims-booking/internal/slots"
	"github.com/wolfman30/kims-booking/internal/validation"
	"github.com/wolfman30/kims-booking/pkg/logging"
)

var ist = time.FixedZone("IST", 5*3600+1800)

type countingNotifier struct {
	mu       sync.Mutex
	payloads []notify.Payload
}

func (c *countingNotifier) Notify(ctx context.Context, p notify.Payload) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payloads = append(c.payloads, p)
	return nil
}

func (c *countingNotifier) sent() []notify.Payload {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]notify.Payload(nil), c.payloads...)
}

type inlineDispatcher struct{}

func (inlineDispatcher) Enqueue(job notify.Job) bool {
	_ = job.Run(context.Background())
	return true
}

type chatFixture struct {
	bot        *Bot
	service    *booking.Service
	notifier   *countingNotifier
	transcript *MemoryTranscriptStore
}

func newChatFixture(t *testing.T) chatFixture {
	t.Helper()
	now := time.Date(2026, 10, 19, 8, 0, 0, 0, ist)
	gen := slots.NewGenerator(func() time.Time { return now }, ist)
	notifier := &countingNotifier{}
	svc := booking.NewService(booking.NewMemorySessionStore(time.Hour), bookings.NewInMemoryRepository(), gen, logging.New("error")).
		WithNotifier(notifier).
		WithDispatcher(inlineDispatcher{})
	transcript := NewMemoryTranscriptStore()
	return chatFixture{
		bot:        NewBot(svc, Immediate(), transcript, logging.New("error")),
		service:    svc,
		notifier:   notifier,
		transcript: transcript,
	}
}

type recorder struct {
	out []Outbound
}

func (r *recorder) emit(o Outbound) { r.out = append(r.out, o) }

func (r *recorder) texts(role string) []string {
	var out []string
	for _, o := range r.out {
		if o.Type == TypeMessage && o.Role == role {
			out = append(out, o.Text)
		}
	}
	return out
}

func (r *recorder) lastState() *booking.Flow {
	for i := len(r.out) - 1; i >= 0; i-- {
		if r.out[i].Type == TypeState {
			return r.out[i].Booking
		}
	}
	return nil
}

func (r *recorder) errors() []Outbound {
	var out []Outbound
	for _, o := range r.out {
		if o.Type == TypeError {
			out = append(out, o)
		}
	}
	return out
}

func (r *recorder) reset() { r.out = nil }

func openSession(t *testing.T, fx chatFixture) *Session {
	t.Helper()
	s, resumed, err := fx.bot.Open(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, resumed)
	return s
}

var jane = &validation.Patient{FirstName: "Jane", LastName: "Doe", Email: "jane@x.com", Mobile: "9876543210"}

func TestSessionDentistFastPath(t *testing.T) {
	fx := newChatFixture(t)
	ctx := context.Background()
	s := openSession(t, fx)
	rec := &recorder{}

	require.NoError(t, s.Greet(ctx, rec.emit))
	assert.Contains(t, rec.texts(RoleAssistant)[0], "Welcome to KIMS Hospital")

	rec.reset()
	require.NoError(t, s.Handle(ctx, Event{Type: EventChatMode}, rec.emit))
	assert.Equal(t, []string{"💬 Chat with Bot"}, rec.texts(RoleUser))

	rec.reset()
	require.NoError(t, s.Handle(ctx, Event{Type: EventMessage, Text: "I need to see a dentist at the earliest"}, rec.emit))
	bot := rec.texts(RoleAssistant)
	require.Len(t, bot, 2)
	assert.Equal(t, "Let me check our dentist availability for you...", bot[0])
	assert.Equal(t, "Perfect! I found Dr. Sarah Johnson, our experienced dentist, available tomorrow at 10:00 AM. Would you like to book this appointment?", bot[1])
	assert.Equal(t, "Dentistry", rec.lastState().Selection.Department.Name)
	require.NotNil(t, rec.lastState().PendingOffer)

	rec.reset()
	require.NoError(t, s.Handle(ctx, Event{Type: EventAcceptOffer}, rec.emit))
	flow := rec.lastState()
	require.NotNil(t, flow)
	assert.Equal(t, booking.StagePatient, flow.Stage)
	assert.Equal(t, "KIMS Main Campus", flow.Selection.Location.Name)
	assert.Equal(t, "Dr. Sarah Johnson", flow.Selection.Doctor.Name)
	assert.Equal(t, "10:00 AM", flow.Selection.TimeSlot)
	assert.Equal(t, "2026-10-20", flow.Selection.Date.Format("2006-01-02"))

	rec.reset()
	require.NoError(t, s.Handle(ctx, Event{Type: EventSubmitPatient, Patient: jane}, rec.emit))
	assert.Equal(t, []string{"My details: Jane Doe, jane@x.com, 9876543210"}, rec.texts(RoleUser))
	flow = rec.lastState()
	assert.True(t, flow.Confirmed)
	assert.Len(t, flow.Reference, 9)
	assert.Contains(t, rec.texts(RoleAssistant), "🎉 Your appointment has been successfully booked!")

	sent := fx.notifier.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, flow.Reference, sent[0].BookingReference)
	assert.Equal(t, "Dentistry", sent[0].Department)
	assert.Equal(t, "KIMS Main Campus", sent[0].Hospital)

	// Confirming again is reported, not re-sent.
	rec.reset()
	require.NoError(t, s.Handle(ctx, Event{Type: EventConfirm}, rec.emit))
	require.Len(t, rec.errors(), 1)
	assert.Equal(t, "This appointment is already booked.", rec.errors()[0].Text)
	assert.Len(t, fx.notifier.sent(), 1)

	rec.reset()
	require.NoError(t, s.Handle(ctx, Event{Type: EventRestart}, rec.emit))
	flow = rec.lastState()
	assert.Equal(t, booking.StageDepartment, flow.Stage)
	assert.False(t, flow.Confirmed)
	assert.Nil(t, flow.Selection.Department)
}

func TestSessionGuidedBooking(t *testing.T) {
	fx := newChatFixture(t)
	ctx := context.Background()
	s := openSession(t, fx)
	rec := &recorder{}

	steps := []Event{
		{Type: EventStartBooking},
		{Type: EventSelectDepartment, DepartmentID: 1},
		{Type: EventSelectLocation, HospitalID: 2},
		{Type: EventSelectSlot, DoctorID: 1, Date: "2026-10-20", TimeSlot: "2:00 PM"},
	}
	for _, ev := range steps {
		require.NoError(t, s.Handle(ctx, ev, rec.emit))
	}
	assert.Empty(t, rec.errors())
	assert.Equal(t, []string{
		"📅 Book An Appointment",
		"I selected Cardiology",
		"I chose KIMS Kondapur",
		"I booked with Dr. Rajesh Kumar on Tuesday, October 20, 2026 at 2:00 PM",
	}, rec.texts(RoleUser))
	assert.Contains(t, rec.texts(RoleAssistant), "Wonderful! You've selected an appointment with Dr. Rajesh Kumar on Tuesday, October 20, 2026 at 2:00 PM.")

	var prompts []Prompt
	for _, o := range rec.out {
		if o.Prompt != PromptNone {
			prompts = append(prompts, o.Prompt)
		}
	}
	assert.Equal(t, []Prompt{PromptDepartment, PromptLocation, PromptDateTime, PromptPatient}, prompts)

	require.NoError(t, s.Handle(ctx, Event{Type: EventSubmitPatient, Patient: jane}, rec.emit))
	assert.True(t, rec.lastState().Confirmed)
	assert.Len(t, fx.notifier.sent(), 1)

	history, err := fx.bot.History(ctx, s.ID(), 0)
	require.NoError(t, err)
	assert.Equal(t, RoleUser, history[0].Role)
	assert.Equal(t, "📅 Book An Appointment", history[0].Text)
}

func TestSessionReportsRecoverableErrors(t *testing.T) {
	fx := newChatFixture(t)
	ctx := context.Background()
	s := openSession(t, fx)

	tests := []struct {
		name string
		ev   Event
		want string
	}{
		{"no offer", Event{Type: EventAcceptOffer}, "There is no appointment offer to accept. Let's start again."},
		{"unknown department", Event{Type: EventSelectDepartment, DepartmentID: 404}, "That option isn't available. Please choose again."},
		{"unavailable hospital", Event{Type: EventSelectLocation, HospitalID: 4}, "That location is not available for booking right now."},
		{"bad date", Event{Type: EventSelectSlot, DoctorID: 1, Date: "tomorrow", TimeSlot: "9:00 AM"}, "Please choose a valid date."},
		{"past date", Event{Type: EventSelectSlot, DoctorID: 1, Date: "2026-10-01", TimeSlot: "9:00 AM"}, "Please choose today or a later date."},
		{"slot not offered", Event{Type: EventSelectSlot, DoctorID: 3, Date: "2026-10-20", TimeSlot: "9:00 AM"}, "That time is no longer available. Please pick another slot."},
		{"missing patient", Event{Type: EventSubmitPatient}, "Please fill in your contact details."},
		{"incomplete confirm", Event{Type: EventConfirm}, "Please complete the previous steps first."},
		{"unknown event", Event{Type: "dance"}, "Sorry, I didn't understand that."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			require.NoError(t, s.Handle(ctx, tt.ev, rec.emit))
			errs := rec.errors()
			require.Len(t, errs, 1)
			assert.Equal(t, tt.want, errs[0].Text)
		})
	}

	rec := &recorder{}
	require.NoError(t, s.Handle(ctx, Event{Type: EventSubmitPatient, Patient: &validation.Patient{FirstName: "J"}}, rec.emit))
	errs := rec.errors()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Fields, validation.FieldFirstName)
	assert.Contains(t, errs[0].Fields, validation.FieldMobile)
	assert.Empty(t, rec.texts(RoleUser), "rejected details are not echoed")
	assert.Empty(t, fx.notifier.sent())
}

func TestSessionGeneralMessageAndDecline(t *testing.T) {
	fx := newChatFixture(t)
	ctx := context.Background()
	s := openSession(t, fx)
	rec := &recorder{}

	require.NoError(t, s.Handle(ctx, Event{Type: EventMessage, Text: "I want to book a cardiology appointment"}, rec.emit))
	assert.Equal(t, []string{
		"I understand you're looking for medical assistance.",
		"Let me help you book an appointment with the right specialist:",
	}, rec.texts(RoleAssistant))

	rec.reset()
	require.NoError(t, s.Handle(ctx, Event{Type: EventMessage, Text: "   "}, rec.emit))
	assert.Empty(t, rec.out)

	require.NoError(t, s.Handle(ctx, Event{Type: EventMessage, Text: "dental pain"}, rec.emit))
	rec.reset()
	require.NoError(t, s.Handle(ctx, Event{Type: EventDeclineOffer}, rec.emit))
	assert.Equal(t, []string{"No problem! Let me show you all available options:"}, rec.texts(RoleAssistant))

	rec.reset()
	require.NoError(t, s.Handle(ctx, Event{Type: EventAcceptOffer}, rec.emit))
	require.Len(t, rec.errors(), 1, "a declined offer cannot be accepted")
}

func TestOfferSurvivesReconnect(t *testing.T) {
	fx := newChatFixture(t)
	ctx := context.Background()
	first := openSession(t, fx)
	require.NoError(t, first.Handle(ctx, Event{Type: EventMessage, Text: "I need a dentist"}, (&recorder{}).emit))

	resumed, ok, err := fx.bot.Open(ctx, first.ID())
	require.NoError(t, err)
	require.True(t, ok)

	rec := &recorder{}
	require.NoError(t, resumed.Handle(ctx, Event{Type: EventAcceptOffer}, rec.emit))
	assert.Empty(t, rec.errors())
	flow := rec.lastState()
	require.NotNil(t, flow)
	assert.Equal(t, booking.StagePatient, flow.Stage)
	assert.Equal(t, "Dr. Sarah Johnson", flow.Selection.Doctor.Name)
	assert.Nil(t, flow.PendingOffer)

	// Restarting on yet another connection drops any new offer too.
	require.NoError(t, resumed.Handle(ctx, Event{Type: EventMessage, Text: "dental checkup"}, (&recorder{}).emit))
	again, _, err := fx.bot.Open(ctx, first.ID())
	require.NoError(t, err)
	require.NoError(t, again.Handle(ctx, Event{Type: EventRestart}, (&recorder{}).emit))

	rec.reset()
	require.NoError(t, resumed.Handle(ctx, Event{Type: EventAcceptOffer}, rec.emit))
	require.Len(t, rec.errors(), 1)
	assert.Equal(t, "There is no appointment offer to accept. Let's start again.", rec.errors()[0].Text)
}

func TestBotOpenResumesKnownSession(t *testing.T) {
	fx := newChatFixture(t)
	ctx := context.Background()
	first := openSession(t, fx)

	again, resumed, err := fx.bot.Open(ctx, first.ID())
	require.NoError(t, err)
	assert.True(t, resumed)
	assert.Equal(t, first.ID(), again.ID())

	fresh, resumed, err := fx.bot.Open(ctx, "expired-session")
	require.NoError(t, err)
	assert.False(t, resumed)
	assert.NotEqual(t, "expired-session", fresh.ID())
}

func TestSessionHandleStopsWhenCancelled(t *testing.T) {
	fx := newChatFixture(t)
	bot := fx.bot.WithScheduler(NewScheduler(1))
	s, _, err := bot.Open(context.Background(), "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	var got []Outbound
	err = s.Handle(ctx, Event{Type: EventStartBooking}, func(o Outbound) {
		got = append(got, o)
		if o.Type == TypeTyping {
			cancel()
		}
	})
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, got, 2)
	assert.Equal(t, RoleUser, got[0].Role)
	assert.Equal(t, TypeTyping, got[1].Type)
}
