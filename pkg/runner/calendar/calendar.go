package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	cal "tableflip.dev/daily/pkg/calendar"
	"tableflip.dev/daily/pkg/journal"
	"tableflip.dev/daily/pkg/printers"
)

const monthLayout = "2006-01"

type Calendar struct {
	Journal *journal.Service
	// Month is YYYY-MM; empty means the current month.
	Month string
	// Year, when set, prints the twelve-month overview instead.
	Year   int
	ShowID bool
	JSON   bool
	Out    io.Writer
}

type jsonDay struct {
	Date       string `json:"date"`
	Day        int    `json:"day"`
	ID         string `json:"id,omitempty"`
	Future     bool   `json:"future,omitempty"`
	Today      bool   `json:"today,omitempty"`
	Capturable bool   `json:"capturable"`
}

type jsonMonth struct {
	Month   string    `json:"month"`
	Count   int       `json:"count"`
	CanNext bool      `json:"canNext"`
	Days    []jsonDay `json:"days"`
}

type jsonCell struct {
	Month       string `json:"month"`
	Count       int    `json:"count"`
	HasMemories bool   `json:"hasMemories"`
	Disabled    bool   `json:"disabled"`
}

type jsonYear struct {
	Year   int        `json:"year"`
	Months []jsonCell `json:"months"`
}

func (n *Calendar) Do(ctx context.Context) error {
	if n.Journal == nil {
		return errors.New("can not show calendar, no journal")
	}
	out := n.Out
	if out == nil {
		out = color.Output
	}
	pp := printers.PrettyPrint{ShowID: n.ShowID, Out: out}

	snap := n.Journal.Load(ctx)
	if snap.Unavailable && !n.JSON {
		pp.Unavailable(snap.Err)
		pp.NewLine()
	}

	if n.Year != 0 {
		cells := cal.BuildYear(snap.Set, n.Year, n.Journal.Now())
		if n.JSON {
			return writeJSON(out, yearDoc(n.Year, cells))
		}
		pp.Year(n.Year, cells)
		return nil
	}

	nav := cal.NewNavigator(n.Journal.Clock)
	if m := strings.TrimSpace(n.Month); m != "" {
		t, err := time.ParseInLocation(monthLayout, m, time.Local)
		if err != nil {
			return fmt.Errorf("month must be YYYY-MM: %w", err)
		}
		if err := nav.Set(t); err != nil {
			return err
		}
	}

	month := cal.BuildMonth(snap.Set, nav.Month(), nav.Today())
	if n.JSON {
		return writeJSON(out, monthDoc(month, nav.CanNext()))
	}
	pp.Month(month, nav.CanNext())
	return nil
}

func monthDoc(m cal.Month, canNext bool) jsonMonth {
	doc := jsonMonth{
		Month:   m.Start.Format(monthLayout),
		Count:   m.Count(),
		CanNext: canNext,
		Days:    make([]jsonDay, 0, len(m.Days)),
	}
	for _, d := range m.Days {
		jd := jsonDay{Date: d.Date, Day: d.Day, Future: d.Future, Today: d.Today, Capturable: d.Capturable()}
		if d.Entry != nil {
			jd.ID = d.Entry.ID
		}
		doc.Days = append(doc.Days, jd)
	}
	return doc
}

func yearDoc(year int, cells []cal.MonthCell) jsonYear {
	doc := jsonYear{Year: year, Months: make([]jsonCell, 0, len(cells))}
	for _, c := range cells {
		doc.Months = append(doc.Months, jsonCell{
			Month:       c.Month.String(),
			Count:       c.Count,
			HasMemories: c.HasMemories,
			Disabled:    c.Disabled,
		})
	}
	return doc
}

func writeJSON(out io.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, string(b))
	return nil
}
