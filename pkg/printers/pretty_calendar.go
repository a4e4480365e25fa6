package printers

import (
	"fmt"

	"github.com/fatih/color"

	"tableflip.dev/daily/pkg/calendar"
)

// Month prints a month grid followed by a short legend.
func (pp *PrettyPrint) Month(m calendar.Month, canNext bool) {
	opts := calendar.DefaultOptions()
	_, _ = fmt.Fprintln(pp.out(), calendar.RenderMonth(m, opts))
	pp.NewLine()

	f := color.New(color.Faint)
	_, _ = f.Fprintf(pp.out(), "%d of %d days captured", m.Count(), len(m.Days))
	if !canNext {
		_, _ = f.Fprint(pp.out(), " · this is the latest month")
	}
	pp.NewLine()

	if pp.ShowID {
		for _, d := range m.Days {
			if d.Entry != nil {
				_, _ = f.Fprintf(pp.out(), "  %2d  %s\n", d.Day, d.Entry.ID)
			}
		}
	}
}

// Year prints the twelve-month overview.
func (pp *PrettyPrint) Year(year int, cells []calendar.MonthCell) {
	_, _ = fmt.Fprintln(pp.out(), calendar.RenderYear(year, cells, calendar.DefaultOptions()))
	pp.NewLine()
}
