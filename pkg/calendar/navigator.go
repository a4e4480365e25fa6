package calendar

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Navigator tracks the month on display. Moving back is unrestricted;
// moving forward stops at the current month.
type Navigator struct {
	clock clockwork.Clock
	month time.Time
}

// NewNavigator starts at the current month.
func NewNavigator(clock clockwork.Clock) *Navigator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Navigator{clock: clock, month: FirstOfMonth(clock.Now())}
}

// Month is the first day of the month on display.
func (n *Navigator) Month() time.Time { return n.month }

// Today is the navigator's notion of now.
func (n *Navigator) Today() time.Time { return n.clock.Now() }

// CanNext reports whether Next would move.
func (n *Navigator) CanNext() bool {
	return CanNavigateForward(n.month, n.clock.Now())
}

// Next moves one month forward unless that would pass the current month.
func (n *Navigator) Next() bool {
	if !n.CanNext() {
		return false
	}
	n.month = n.month.AddDate(0, 1, 0)
	return true
}

// Prev moves one month back.
func (n *Navigator) Prev() {
	n.month = n.month.AddDate(0, -1, 0)
}

// Set jumps to the month containing t.
func (n *Navigator) Set(t time.Time) error {
	m := FirstOfMonth(t)
	if m.After(FirstOfMonth(n.clock.Now())) {
		return ErrFutureMonth
	}
	n.month = m
	return nil
}
