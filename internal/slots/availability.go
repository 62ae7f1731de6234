package slots

import (
	"time"

	"github.com/wolfman30/kims-booking/internal/catalog"
)

// DefaultQuickDates is the length of the date strip offered to patients.
const DefaultQuickDates = 7

// Available counts the slots a doctor can still offer in the period on date.
func (g *Generator) Available(d catalog.Doctor, p Period, date time.Time) int {
	return len(g.Generate(p, CapacityFor(d, p), date))
}

// FirstAvailablePeriod returns the earliest period with at least one slot,
// falling back to morning when the doctor is fully unavailable.
func (g *Generator) FirstAvailablePeriod(d catalog.Doctor, date time.Time) Period {
	for _, p := range Periods() {
		if g.Available(d, p, date) > 0 {
			return p
		}
	}
	return Morning
}

// HasAvailability reports whether any doctor offers any slot on date.
func (g *Generator) HasAvailability(doctors []catalog.Doctor, date time.Time) bool {
	if g.IsPastDate(date) {
		return false
	}
	for _, d := range doctors {
		for _, p := range Periods() {
			if g.Available(d, p, date) > 0 {
				return true
			}
		}
	}
	return false
}

// QuickDates returns n consecutive calendar days starting at start.
func (g *Generator) QuickDates(start time.Time, n int) []time.Time {
	if n <= 0 {
		n = DefaultQuickDates
	}
	day := g.Day(start)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = day.AddDate(0, 0, i)
	}
	return out
}

// FirstBookableDate returns the first of the n days from start on which any
// doctor has a slot.
func (g *Generator) FirstBookableDate(doctors []catalog.Doctor, start time.Time, n int) (time.Time, bool) {
	for _, d := range g.QuickDates(start, n) {
		if g.HasAvailability(doctors, d) {
			return d, true
		}
	}
	return time.Time{}, false
}

// DaySummary describes one entry of the date strip.
type DaySummary struct {
	Date      string `json:"date"`
	Weekday   string `json:"weekday"`
	Today     bool   `json:"today"`
	Past      bool   `json:"past"`
	Available bool   `json:"available"`
}

// Summaries describes n days from start for the given roster.
func (g *Generator) Summaries(doctors []catalog.Doctor, start time.Time, n int) []DaySummary {
	dates := g.QuickDates(start, n)
	out := make([]DaySummary, len(dates))
	for i, d := range dates {
		out[i] = DaySummary{
			Date:      d.Format(dateLayout),
			Weekday:   d.Weekday().String()[:3],
			Today:     g.IsToday(d),
			Past:      g.IsPastDate(d),
			Available: g.HasAvailability(doctors, d),
		}
	}
	return out
}

// Schedule is a doctor's offered slots on one date.
type Schedule struct {
	Doctor        catalog.Doctor      `json:"doctor"`
	DefaultPeriod Period              `json:"default_period"`
	Counts        map[Period]int      `json:"counts"`
	Slots         map[Period][]string `json:"slots"`
}

// ScheduleFor builds the slot listing for one doctor on date.
func (g *Generator) ScheduleFor(d catalog.Doctor, date time.Time) Schedule {
	s := Schedule{
		Doctor:        d,
		DefaultPeriod: g.FirstAvailablePeriod(d, date),
		Counts:        make(map[Period]int, 3),
		Slots:         make(map[Period][]string, 3),
	}
	for _, p := range Periods() {
		labels := g.Labels(p, CapacityFor(d, p), date)
		s.Counts[p] = len(labels)
		s.Slots[p] = labels
	}
	return s
}
