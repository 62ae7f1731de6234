// Package slots turns a doctor's fixed per-period capacity into the time
// labels shown to patients.
//
// The capacity model is display-only: nothing is reserved or decremented
// when a slot is booked, so two patients can be offered the same label.
package slots

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/kims-booking/internal/catalog"
)

// Period is a coarse band of the day.
type Period string

const (
	Morning   Period = "morning"
	Afternoon Period = "afternoon"
	Evening   Period = "evening"
)

// ErrUnknownPeriod is returned by ParsePeriod.
var ErrUnknownPeriod = errors.New("slots: unknown period")

const (
	stepMinutes = 30
	labelLayout = "3:04 PM"
	dateLayout  = "2006-01-02"
)

type window struct {
	startHour int
	endHour   int
}

var windows = map[Period]window{
	Morning:   {startHour: 9, endHour: 12},
	Afternoon: {startHour: 14, endHour: 17},
	Evening:   {startHour: 18, endHour: 21},
}

// Periods returns the periods in chronological order.
func Periods() []Period {
	return []Period{Morning, Afternoon, Evening}
}

// ParsePeriod accepts a period name in any case.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := windows[p]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, s)
	}
	return p, nil
}

// PeriodOf reports which period a label such as "10:00 AM" belongs to.
func PeriodOf(label string) (Period, bool) {
	t, err := time.Parse(labelLayout, strings.TrimSpace(label))
	if err != nil {
		return "", false
	}
	minutes := t.Hour()*60 + t.Minute()
	for _, p := range Periods() {
		w := windows[p]
		if minutes >= w.startHour*60 && minutes <= w.endHour*60 {
			return p, true
		}
	}
	return "", false
}

// CapacityFor returns a doctor's slot count for the period.
func CapacityFor(d catalog.Doctor, p Period) int {
	switch p {
	case Morning:
		return d.Slots.Morning
	case Afternoon:
		return d.Slots.Afternoon
	case Evening:
		return d.Slots.Evening
	default:
		return 0
	}
}

// Slot is one bookable time of day.
type Slot struct {
	Label string    `json:"label"`
	Start time.Time `json:"start"`
}

// Generator produces slots relative to a clock and the hospital's timezone.
type Generator struct {
	now      func() time.Time
	location *time.Location
}

// NewGenerator builds a generator. A nil clock uses time.Now and a nil
// location uses UTC.
func NewGenerator(now func() time.Time, loc *time.Location) *Generator {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Generator{now: now, location: loc}
}

// Location returns the hospital timezone.
func (g *Generator) Location() *time.Location {
	return g.location
}

// Now returns the current time in the hospital timezone.
func (g *Generator) Now() time.Time {
	return g.now().In(g.location)
}

// Today returns midnight of the current day in the hospital timezone.
func (g *Generator) Today() time.Time {
	return g.Day(g.Now())
}

// Day truncates t to midnight of its calendar date in the hospital timezone.
func (g *Generator) Day(t time.Time) time.Time {
	t = t.In(g.location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, g.location)
}

// IsToday reports whether date falls on the current calendar day.
func (g *Generator) IsToday(date time.Time) bool {
	return g.Day(date).Equal(g.Today())
}

// IsPastDate reports whether date is before today.
func (g *Generator) IsPastDate(date time.Time) bool {
	return g.Day(date).Before(g.Today())
}

// ParseDate reads a YYYY-MM-DD date in the hospital timezone.
func (g *Generator) ParseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(s), g.location)
	if err != nil {
		return time.Time{}, fmt.Errorf("slots: parse date %q: %w", s, err)
	}
	return d, nil
}

// Generate returns up to count slots of the period on date, in chronological
// order. Slots run every 30 minutes from the period's start hour up to and
// including its end hour at minute zero. When date is today only slots
// strictly after the current time are kept.
func (g *Generator) Generate(p Period, count int, date time.Time) []Slot {
	w, ok := windows[p]
	if !ok || count <= 0 {
		return nil
	}
	day := g.Day(date)
	now := g.Now()
	today := g.IsToday(date)

	out := make([]Slot, 0, count)
	for minutes := w.startHour * 60; minutes <= w.endHour*60; minutes += stepMinutes {
		start := time.Date(day.Year(), day.Month(), day.Day(), minutes/60, minutes%60, 0, 0, g.location)
		if today && !start.After(now) {
			continue
		}
		out = append(out, Slot{Label: start.Format(labelLayout), Start: start})
		if len(out) == count {
			break
		}
	}
	return out
}

// Labels is Generate reduced to the display strings.
func (g *Generator) Labels(p Period, count int, date time.Time) []string {
	generated := g.Generate(p, count, date)
	out := make([]string, len(generated))
	for i, s := range generated {
		out[i] = s.Label
	}
	return out
}

// Find returns the offered slot with the given label, if any.
func (g *Generator) Find(p Period, count int, date time.Time, label string) (Slot, bool) {
	label = strings.TrimSpace(label)
	for _, s := range g.Generate(p, count, date) {
		if s.Label == label {
			return s, true
		}
	}
	return Slot{}, false
}
