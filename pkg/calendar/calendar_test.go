package calendar

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"

	"tableflip.dev/daily/pkg/memory"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.Local)
}

func TestBuildMonthThirtyDays(t *testing.T) {
	set := memory.Normalize([]*memory.Entry{
		{ID: "five", Date: "2024-04-05", CapturedAt: 1},
		{ID: "seventeen", Date: "2024-04-17", CapturedAt: 1},
		{ID: "elsewhere", Date: "2024-05-05", CapturedAt: 1},
	})
	today := day(2024, time.April, 20)

	m := BuildMonth(set, day(2024, time.April, 1), today)
	if len(m.Days) != 30 {
		t.Fatalf("expected 30 days, got %d", len(m.Days))
	}
	for _, d := range m.Days {
		hasEntry := d.Entry != nil
		if want := d.Day == 5 || d.Day == 17; hasEntry != want {
			t.Fatalf("day %d: entry=%v, want %v", d.Day, hasEntry, want)
		}
		if want := d.Day > 20; d.Future != want {
			t.Fatalf("day %d: future=%v, want %v", d.Day, d.Future, want)
		}
		if d.Future && d.Capturable() {
			t.Fatalf("future day %d must not be capturable", d.Day)
		}
		if want := !hasEntry && d.Day <= 20; d.Capturable() != want {
			t.Fatalf("day %d: capturable=%v, want %v", d.Day, d.Capturable(), want)
		}
	}
	if !m.Days[19].Today {
		t.Fatal("expected day 20 to be today")
	}
	if m.Days[4].Entry.ID != "five" || m.Days[16].Entry.ID != "seventeen" {
		t.Fatal("entries resolved to the wrong days")
	}
	if m.Count() != 2 {
		t.Fatalf("expected 2 memories, got %d", m.Count())
	}
}

func TestBuildMonthLengths(t *testing.T) {
	set := memory.Normalize(nil)
	today := day(2025, time.January, 1)
	cases := map[time.Time]int{
		day(2024, time.February, 10): 29,
		day(2023, time.February, 10): 28,
		day(2024, time.December, 31): 31,
	}
	for ref, want := range cases {
		m := BuildMonth(set, ref, today)
		if len(m.Days) != want {
			t.Fatalf("%s: expected %d days, got %d", ref.Format("2006-01"), want, len(m.Days))
		}
		if m.Days[0].Date != ref.Format("2006-01")+"-01" {
			t.Fatalf("first day is %s", m.Days[0].Date)
		}
	}
}

func TestBuildYear(t *testing.T) {
	set := memory.Normalize([]*memory.Entry{
		{ID: "a", Date: "2024-01-05", CapturedAt: 1},
		{ID: "b", Date: "2024-01-06", CapturedAt: 1},
		{ID: "c", Date: "2024-03-01", CapturedAt: 1},
		{ID: "d", Date: "2023-03-01", CapturedAt: 1},
	})
	today := day(2024, time.April, 10)

	cells := BuildYear(set, 2024, today)
	type summary struct {
		Count    int
		Has      bool
		Disabled bool
	}
	var got []summary
	for _, c := range cells {
		got = append(got, summary{c.Count, c.HasMemories, c.Disabled})
	}
	want := []summary{
		{2, true, false}, {0, false, false}, {1, true, false}, {0, false, false},
		{0, false, true}, {0, false, true}, {0, false, true}, {0, false, true},
		{0, false, true}, {0, false, true}, {0, false, true}, {0, false, true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected year overview (-want +got):\n%s", diff)
	}

	for _, c := range BuildYear(set, 2023, today) {
		if c.Disabled {
			t.Fatalf("past year month %s should be enabled", c.Month)
		}
	}
	for _, c := range BuildYear(set, 2025, today) {
		if !c.Disabled {
			t.Fatalf("future year month %s should be disabled", c.Month)
		}
	}
}

func TestNavigatorForwardGuard(t *testing.T) {
	clock := clockwork.NewFakeClockAt(day(2024, time.April, 10))
	nav := NewNavigator(clock)

	if nav.CanNext() || nav.Next() {
		t.Fatal("must not move past the current month")
	}
	nav.Prev()
	nav.Prev()
	if got := nav.Month().Format("2006-01"); got != "2024-02" {
		t.Fatalf("expected 2024-02, got %s", got)
	}
	if !nav.Next() {
		t.Fatal("expected to move forward to March")
	}
	if !nav.Next() || nav.Next() {
		t.Fatal("expected to stop at April")
	}

	if err := nav.Set(day(2024, time.May, 1)); err != ErrFutureMonth {
		t.Fatalf("expected ErrFutureMonth, got %v", err)
	}
	if err := nav.Set(day(1999, time.December, 25)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := nav.Month().Format("2006-01"); got != "1999-12" {
		t.Fatalf("expected 1999-12, got %s", got)
	}

	clock.Advance(31 * 24 * time.Hour)
	if err := nav.Set(day(2024, time.May, 1)); err != nil {
		t.Fatalf("May should be reachable once it arrives: %v", err)
	}
}

func TestRenderMonth(t *testing.T) {
	set := memory.Normalize([]*memory.Entry{{ID: "a", Date: "2024-04-05", CapturedAt: 1}})
	out := RenderMonth(BuildMonth(set, day(2024, time.April, 1), day(2024, time.April, 20)), DefaultOptions())
	if !strings.Contains(out, "April 2024") {
		t.Fatalf("missing title:\n%s", out)
	}
	if !strings.Contains(out, "Su Mo Tu We Th Fr Sa") {
		t.Fatalf("missing weekday header:\n%s", out)
	}
	// April 2024 starts on a Monday and spans five weeks.
	if lines := strings.Split(out, "\n"); len(lines) != 7 {
		t.Fatalf("expected 7 lines, got %d:\n%s", len(lines), out)
	}
}

func TestRenderYear(t *testing.T) {
	out := RenderYear(2024, BuildYear(memory.Normalize(nil), 2024, day(2024, time.June, 1)), DefaultOptions())
	for _, m := range []string{"Jan", "Jun", "Dec"} {
		if !strings.Contains(out, m) {
			t.Fatalf("missing %s in:\n%s", m, out)
		}
	}
}
