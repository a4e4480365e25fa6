// Package highlight draws the random reel of memories the slideshow plays.
package highlight

import (
	"math/rand/v2"
	"sync"

	"tableflip.dev/daily/pkg/memory"
)

const (
	// MinEntries is the smallest canonical set that yields a reel.
	MinEntries = 3
	// MaxEntries caps the reel length.
	MaxEntries = 10
)

// Selection is a drawn reel. An ineligible selection has no items.
type Selection struct {
	Items []*memory.Entry
	// Pool is the canonical set size the reel was drawn from.
	Pool int
}

// Eligible reports whether the set was large enough to draw from.
func (s Selection) Eligible() bool {
	return s.Pool >= MinEntries && len(s.Items) > 0
}

// Select samples up to MaxEntries entries uniformly without replacement, in
// random order. Sets smaller than MinEntries yield an empty selection.
func Select(set *memory.Set, r *rand.Rand) Selection {
	pool := set.Entries()
	sel := Selection{Pool: len(pool)}
	if len(pool) < MinEntries {
		return sel
	}
	n := min(len(pool), MaxEntries)
	// Partial Fisher-Yates: the first n slots end up a uniform sample.
	for i := 0; i < n; i++ {
		j := i + r.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	sel.Items = pool[:n:n]
	return sel
}

// Session owns the reel for one viewing session. The reel is redrawn when
// the canonical set changes or before a new show starts, and never while a
// show is playing.
type Session struct {
	mu     sync.Mutex
	rand   *rand.Rand
	set    *memory.Set
	sel    Selection
	locked bool
	stale  bool
}

// NewSession draws from r; a nil r uses a randomly seeded source.
func NewSession(r *rand.Rand) *Session {
	if r == nil {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Session{rand: r}
}

// Observe records a freshly fetched canonical set. An unchanged set keeps the
// current reel. A changed set redraws it unless a show is playing, in which
// case the redraw waits for Unlock.
func (s *Session) Observe(set *memory.Set) Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.set != nil && s.set.Equal(set) {
		return s.sel
	}
	s.set = set
	if s.locked {
		s.stale = true
		return s.sel
	}
	s.sel = Select(set, s.rand)
	return s.sel
}

// Prepare redraws the reel ahead of a new show and returns it.
func (s *Session) Prepare() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return s.sel
	}
	s.sel = Select(s.set, s.rand)
	s.stale = false
	return s.sel
}

// Lock freezes the reel while a show plays.
func (s *Session) Lock() {
	s.mu.Lock()
	s.locked = true
	s.mu.Unlock()
}

// Unlock releases the reel. A set change seen while locked is applied now.
func (s *Session) Unlock() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locked = false
	if s.stale {
		s.sel = Select(s.set, s.rand)
		s.stale = false
	}
	return s.sel
}

// Selection returns the current reel.
func (s *Session) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel
}
