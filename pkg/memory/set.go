package memory

import (
	"sort"
	"time"
)

// Set is the canonical, one-entry-per-date view of a store's raw entries.
// A Set is immutable once built; refetching produces a new one.
type Set struct {
	byDate map[string]*Entry
}

// Normalize collapses raw entries to at most one per date. The entry with the
// greater CapturedAt wins; exact ties go to the greater ID so the result does
// not depend on input order. Entries with a malformed date are dropped.
func Normalize(raw []*Entry) *Set {
	s := &Set{byDate: make(map[string]*Entry, len(raw))}
	for _, e := range raw {
		if e == nil || !ValidDate(e.Date) {
			continue
		}
		cur, ok := s.byDate[e.Date]
		if !ok || wins(e, cur) {
			s.byDate[e.Date] = e.Clone()
		}
	}
	return s
}

func wins(challenger, incumbent *Entry) bool {
	if challenger.CapturedAt != incumbent.CapturedAt {
		return challenger.CapturedAt > incumbent.CapturedAt
	}
	return challenger.ID > incumbent.ID
}

// Len is the number of distinct dates.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.byDate)
}

// Lookup returns the entry for date, if any.
func (s *Set) Lookup(date string) (*Entry, bool) {
	if s == nil {
		return nil, false
	}
	e, ok := s.byDate[date]
	return e, ok
}

// LookupDay is Lookup keyed by a time.
func (s *Set) LookupDay(t time.Time) (*Entry, bool) {
	return s.Lookup(FormatDate(t))
}

// Entries returns the canonical entries oldest first. The slice is fresh but
// the entries are shared with the set and must not be modified.
func (s *Set) Entries() []*Entry {
	if s == nil {
		return nil
	}
	out := make([]*Entry, 0, len(s.byDate))
	for _, e := range s.byDate {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date < out[j].Date
	})
	return out
}

// Equal reports whether both sets resolve every date to the same entry.
func (s *Set) Equal(o *Set) bool {
	if s.Len() != o.Len() {
		return false
	}
	if s.Len() == 0 {
		return true
	}
	for date, e := range s.byDate {
		other, ok := o.byDate[date]
		if !ok {
			return false
		}
		if e.ID != other.ID || e.CapturedAt != other.CapturedAt || e.Caption != other.Caption || e.Image.URL != other.Image.URL {
			return false
		}
	}
	return true
}
