package slots

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/kims-booking/internal/catalog"
)

var kolkata = time.FixedZone("IST", 5*3600+1800)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func at(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, kolkata)
}

func TestGenerateFutureDateIgnoresClock(t *testing.T) {
	now := time.Date(2026, 10, 19, 20, 45, 0, 0, kolkata)
	g := NewGenerator(fixedClock(now), kolkata)
	tomorrow := now.AddDate(0, 0, 1)

	labels := g.Labels(Morning, 5, tomorrow)
	assert.Equal(t, []string{"9:00 AM", "9:30 AM", "10:00 AM", "10:30 AM", "11:00 AM"}, labels)

	all := g.Labels(Morning, 100, tomorrow)
	assert.Equal(t, []string{"9:00 AM", "9:30 AM", "10:00 AM", "10:30 AM", "11:00 AM", "11:30 AM", "12:00 PM"}, all)

	for _, p := range Periods() {
		for capacity := 0; capacity <= 10; capacity++ {
			got := g.Generate(p, capacity, tomorrow)
			assert.Len(t, got, min(capacity, 7), "period %s capacity %d", p, capacity)
		}
	}
}

func TestGeneratePeriodBoundaries(t *testing.T) {
	g := NewGenerator(fixedClock(time.Date(2026, 1, 1, 0, 0, 0, 0, kolkata)), kolkata)
	day := time.Date(2026, 1, 2, 0, 0, 0, 0, kolkata)

	afternoon := g.Labels(Afternoon, 7, day)
	assert.Equal(t, "2:00 PM", afternoon[0])
	assert.Equal(t, "5:00 PM", afternoon[6])

	evening := g.Labels(Evening, 7, day)
	assert.Equal(t, "6:00 PM", evening[0])
	assert.Equal(t, "9:00 PM", evening[6])
}

func TestGenerateTodayDropsElapsedSlots(t *testing.T) {
	day := time.Date(2026, 10, 19, 0, 0, 0, 0, kolkata)
	// Past every morning slot except 12:00 PM.
	g := NewGenerator(fixedClock(at(day, 11, 45)), kolkata)

	got := g.Generate(Morning, 5, day)
	require.Len(t, got, 1)
	assert.Equal(t, "12:00 PM", got[0].Label)
	assert.True(t, got[0].Start.Equal(at(day, 12, 0)))
}

func TestGenerateTodayExcludesSlotAtCurrentMinute(t *testing.T) {
	day := time.Date(2026, 10, 19, 0, 0, 0, 0, kolkata)
	g := NewGenerator(fixedClock(at(day, 10, 0)), kolkata)

	labels := g.Labels(Morning, 5, day)
	assert.Equal(t, []string{"10:30 AM", "11:00 AM", "11:30 AM", "12:00 PM"}, labels)
}

func TestGenerateTodayIsChronologicalAndCapped(t *testing.T) {
	day := time.Date(2026, 10, 19, 0, 0, 0, 0, kolkata)
	for minute := 0; minute < 24*60; minute += 7 {
		g := NewGenerator(fixedClock(at(day, minute/60, minute%60)), kolkata)
		for _, p := range Periods() {
			got := g.Generate(p, 5, day)
			assert.LessOrEqual(t, len(got), 5)
			for i := 1; i < len(got); i++ {
				assert.True(t, got[i-1].Start.Before(got[i].Start))
			}
			for _, s := range got {
				assert.True(t, s.Start.After(g.Now()))
			}
		}
	}
}

func TestGenerateUsesHospitalTimezone(t *testing.T) {
	// 05:00 UTC is 10:30 IST on the same day.
	now := time.Date(2026, 10, 19, 5, 0, 0, 0, time.UTC)
	g := NewGenerator(fixedClock(now), kolkata)
	day := time.Date(2026, 10, 19, 0, 0, 0, 0, kolkata)

	labels := g.Labels(Morning, 7, day)
	assert.Equal(t, []string{"11:00 AM", "11:30 AM", "12:00 PM"}, labels)
}

func TestGenerateRejectsBadInput(t *testing.T) {
	g := NewGenerator(nil, nil)
	assert.Empty(t, g.Generate(Period("night"), 5, time.Now()))
	assert.Empty(t, g.Generate(Morning, 0, time.Now()))
	assert.Empty(t, g.Generate(Morning, -3, time.Now()))
}

func TestParsePeriodAndPeriodOf(t *testing.T) {
	p, err := ParsePeriod(" Evening ")
	require.NoError(t, err)
	assert.Equal(t, Evening, p)

	_, err = ParsePeriod("noon")
	assert.ErrorIs(t, err, ErrUnknownPeriod)

	got, ok := PeriodOf("10:00 AM")
	assert.True(t, ok)
	assert.Equal(t, Morning, got)

	got, ok = PeriodOf("5:00 PM")
	assert.True(t, ok)
	assert.Equal(t, Afternoon, got)

	_, ok = PeriodOf("1:00 PM")
	assert.False(t, ok)

	_, ok = PeriodOf("soon")
	assert.False(t, ok)
}

func TestFind(t *testing.T) {
	now := time.Date(2026, 10, 19, 8, 0, 0, 0, kolkata)
	g := NewGenerator(fixedClock(now), kolkata)
	tomorrow := now.AddDate(0, 0, 1)

	s, ok := g.Find(Morning, 5, tomorrow, "10:00 AM")
	require.True(t, ok)
	assert.Equal(t, 10, s.Start.Hour())

	_, ok = g.Find(Morning, 2, tomorrow, "10:00 AM")
	assert.False(t, ok, "beyond capacity")
}

func TestAvailabilityHelpers(t *testing.T) {
	day := time.Date(2026, 10, 19, 0, 0, 0, 0, kolkata)
	g := NewGenerator(fixedClock(at(day, 19, 0)), kolkata)

	patel := catalog.Doctor{ID: 3, Slots: catalog.Capacity{Morning: 0, Afternoon: 1, Evening: 6}}
	kumar := catalog.Doctor{ID: 1, Slots: catalog.Capacity{Morning: 5, Afternoon: 2, Evening: 0}}

	assert.Equal(t, 4, g.Available(patel, Evening, day))
	assert.Equal(t, Evening, g.FirstAvailablePeriod(patel, day))
	assert.Equal(t, Morning, g.FirstAvailablePeriod(kumar, day), "fallback when nothing left")
	assert.False(t, g.HasAvailability([]catalog.Doctor{kumar}, day))
	assert.True(t, g.HasAvailability([]catalog.Doctor{kumar, patel}, day))
	assert.False(t, g.HasAvailability([]catalog.Doctor{patel}, day.AddDate(0, 0, -1)), "past date")

	first, ok := g.FirstBookableDate([]catalog.Doctor{kumar}, day, 7)
	require.True(t, ok)
	assert.True(t, first.Equal(day.AddDate(0, 0, 1)))

	_, ok = g.FirstBookableDate([]catalog.Doctor{{ID: 9}}, day, 7)
	assert.False(t, ok)
}

func TestQuickDatesAndSummaries(t *testing.T) {
	day := time.Date(2026, 10, 19, 15, 0, 0, 0, kolkata)
	g := NewGenerator(fixedClock(day), kolkata)

	dates := g.QuickDates(day, 0)
	require.Len(t, dates, DefaultQuickDates)
	assert.Equal(t, 0, dates[0].Hour())
	assert.Equal(t, 25, dates[6].Day())

	summaries := g.Summaries(catalog.Doctors(), day.AddDate(0, 0, -1), 3)
	require.Len(t, summaries, 3)
	assert.True(t, summaries[0].Past)
	assert.False(t, summaries[0].Available)
	assert.True(t, summaries[1].Today)
	assert.Equal(t, "2026-10-20", summaries[2].Date)
	assert.Equal(t, "Tue", summaries[2].Weekday)
}

func TestScheduleFor(t *testing.T) {
	now := time.Date(2026, 10, 19, 8, 0, 0, 0, kolkata)
	g := NewGenerator(fixedClock(now), kolkata)
	reddy := catalog.Doctor{ID: 4, Slots: catalog.Capacity{Morning: 3, Afternoon: 0, Evening: 2}}

	s := g.ScheduleFor(reddy, now.AddDate(0, 0, 1))
	assert.Equal(t, Morning, s.DefaultPeriod)
	assert.Equal(t, 3, s.Counts[Morning])
	assert.Equal(t, 0, s.Counts[Afternoon])
	assert.Equal(t, []string{"6:00 PM", "6:30 PM"}, s.Slots[Evening])
}

func TestParseDate(t *testing.T) {
	g := NewGenerator(nil, kolkata)
	d, err := g.ParseDate("2026-10-20")
	require.NoError(t, err)
	assert.Equal(t, kolkata, d.Location())
	_, err = g.ParseDate("20/10/2026")
	assert.Error(t, err)
}
