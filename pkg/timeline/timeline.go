package timeline

import (
	"sort"

	"tableflip.dev/daily/pkg/memory"
)

// Direction orders the timeline by date.
type Direction int

const (
	Descending Direction = iota
	Ascending
)

// Toggle flips the direction.
func (d Direction) Toggle() Direction {
	if d == Ascending {
		return Descending
	}
	return Ascending
}

func (d Direction) String() string {
	if d == Ascending {
		return "ascending"
	}
	return "descending"
}

// Group is one calendar month of entries.
type Group struct {
	Key     string // 2006-01
	Label   string // January 2006
	Entries []*memory.Entry
}

// Build sorts the canonical set by date in dir and groups it by month. Groups
// appear in the order their month is first met in the sorted sequence, so
// they follow dir too. Build is recomputed on every call.
func Build(set *memory.Set, dir Direction) []Group {
	entries := set.Entries()
	sort.SliceStable(entries, func(i, j int) bool {
		if dir == Ascending {
			return entries[i].Date < entries[j].Date
		}
		return entries[i].Date > entries[j].Date
	})

	groups := make([]Group, 0)
	index := make(map[string]int)
	for _, e := range entries {
		key := e.Date[:7]
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Key: key, Label: label(e)})
		}
		groups[i].Entries = append(groups[i].Entries, e)
	}
	return groups
}

func label(e *memory.Entry) string {
	t, err := e.Day()
	if err != nil {
		return e.Date[:7]
	}
	return t.Format("January 2006")
}

// NeedsCapture reports whether today has no canonical entry yet.
func NeedsCapture(set *memory.Set, today string) bool {
	_, ok := set.Lookup(today)
	return !ok
}
