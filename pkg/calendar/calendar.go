// Package calendar projects the canonical set onto month grids and a
// twelve-month year overview.
package calendar

import (
	"errors"
	"time"

	"tableflip.dev/daily/pkg/memory"
)

// ErrFutureMonth is returned when navigating past the current month.
var ErrFutureMonth = errors.New("calendar: month is in the future")

// Day is one cell of a month grid.
type Day struct {
	Date   string
	Day    int
	Entry  *memory.Entry
	Future bool
	Today  bool
}

// Capturable reports whether a memory may still be taken for the day.
func (d Day) Capturable() bool {
	return d.Entry == nil && !d.Future
}

// Month is every day of one calendar month, first to last.
type Month struct {
	Start time.Time
	Days  []Day
}

// Count is the number of days holding a memory.
func (m Month) Count() int {
	n := 0
	for _, d := range m.Days {
		if d.Entry != nil {
			n++
		}
	}
	return n
}

// BuildMonth lays out the month containing ref. Days after today are Future.
func BuildMonth(set *memory.Set, ref, today time.Time) Month {
	start := FirstOfMonth(ref)
	todayKey := memory.FormatDate(memory.Today(today))
	n := DaysIn(start)

	m := Month{Start: start, Days: make([]Day, n)}
	for i := 0; i < n; i++ {
		date := memory.FormatDate(start.AddDate(0, 0, i))
		e, _ := set.Lookup(date)
		m.Days[i] = Day{
			Date:   date,
			Day:    i + 1,
			Entry:  e,
			Future: date > todayKey,
			Today:  date == todayKey,
		}
	}
	return m
}

// MonthCell is one month of the year overview.
type MonthCell struct {
	Month       time.Month
	Count       int
	HasMemories bool
	Disabled    bool
}

// BuildYear summarises year into twelve cells. Months after today's month are
// disabled, as is every month of a later year.
func BuildYear(set *memory.Set, year int, today time.Time) []MonthCell {
	today = memory.Today(today)
	cells := make([]MonthCell, 12)
	for i := range cells {
		m := time.Month(i + 1)
		cells[i] = MonthCell{
			Month:    m,
			Disabled: year > today.Year() || (year == today.Year() && m > today.Month()),
		}
	}
	for _, e := range set.Entries() {
		t, err := e.Day()
		if err != nil || t.Year() != year {
			continue
		}
		c := &cells[t.Month()-1]
		c.Count++
		c.HasMemories = true
	}
	return cells
}

// CanNavigateForward reports whether the month after current is not later
// than today's month.
func CanNavigateForward(current, today time.Time) bool {
	return !FirstOfMonth(current).AddDate(0, 1, 0).After(FirstOfMonth(today))
}

// FirstOfMonth truncates t to local midnight on the first.
func FirstOfMonth(t time.Time) time.Time {
	t = t.In(time.Local)
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.Local)
}

// DaysIn returns the number of days in a month.
func DaysIn(month time.Time) int {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	return first.AddDate(0, 1, -1).Day()
}
