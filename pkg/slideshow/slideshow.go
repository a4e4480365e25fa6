// Package slideshow plays a highlight reel as a timed, interruptible show.
package slideshow

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"tableflip.dev/daily/pkg/memory"
)

// DefaultInterval is how long each slide stays up.
const DefaultInterval = 3000 * time.Millisecond

// State is the engine's play state.
type State int

const (
	Idle State = iota
	Playing
)

func (s State) String() string {
	if s == Playing {
		return "playing"
	}
	return "idle"
}

// Status is a snapshot of the engine.
type Status struct {
	State    State
	Position int
	Len      int
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock drives the per-slide timer from c.
func WithClock(c clockwork.Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithInterval sets the per-slide duration. Non-positive values keep the
// default.
func WithInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.interval = d
		}
	}
}

// Engine is the Idle/Playing state machine. At most one timer is live; every
// arm or disarm bumps a generation so a callback from a superseded timer is
// ignored. Engines are safe for concurrent use.
type Engine struct {
	mu       sync.Mutex
	clock    clockwork.Clock
	interval time.Duration

	items   []*memory.Entry
	state   State
	pos     int
	timer   clockwork.Timer
	gen     uint64
	closed  bool
	changes chan Status
}

// New returns an idle engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		clock:    clockwork.NewRealClock(),
		interval: DefaultInterval,
		changes:  make(chan Status, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Interval is the configured per-slide duration.
func (e *Engine) Interval() time.Duration { return e.interval }

// Start plays items from position 0, cancelling any show in progress. It
// returns false, leaving the engine untouched, when items is empty or the
// engine is closed.
func (e *Engine) Start(items []*memory.Entry) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || len(items) == 0 {
		return false
	}
	e.disarm()
	e.items = append([]*memory.Entry(nil), items...)
	e.state = Playing
	e.pos = 0
	e.arm()
	e.notify()
	return true
}

// Stop returns to Idle, keeping the position.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.state != Playing {
		return
	}
	e.disarm()
	e.state = Idle
	e.notify()
}

// Advance moves one slide forward, never past the last. It does not finish
// the show; only the timer does.
func (e *Engine) Advance() {
	e.move(1)
}

// Retreat moves one slide back, never before the first.
func (e *Engine) Retreat() {
	e.move(-1)
}

func (e *Engine) move(delta int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || len(e.items) == 0 {
		return
	}
	next := min(max(e.pos+delta, 0), len(e.items)-1)
	if next == e.pos {
		return
	}
	e.pos = next
	if e.state == Playing {
		e.arm()
	}
	e.notify()
}

// Status reports the current state and position.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status()
}

// Current is the entry at the position, or nil before the first Start.
func (e *Engine) Current() *memory.Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.items) == 0 {
		return nil
	}
	return e.items[e.pos]
}

// Changes delivers the latest Status after every transition. Only the most
// recent unread Status is kept. The channel closes with the engine.
func (e *Engine) Changes() <-chan Status {
	return e.changes
}

// Close stops any timer and retires the engine. It is idempotent.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.disarm()
	e.state = Idle
	e.closed = true
	close(e.changes)
}

func (e *Engine) status() Status {
	return Status{State: e.state, Position: e.pos, Len: len(e.items)}
}

// arm replaces any live timer with a fresh one for the current slide.
func (e *Engine) arm() {
	e.disarm()
	gen := e.gen
	e.timer = e.clock.AfterFunc(e.interval, func() {
		e.tick(gen)
	})
}

func (e *Engine) disarm() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.gen++
}

func (e *Engine) tick(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.state != Playing || gen != e.gen {
		return
	}
	e.timer = nil
	if e.pos < len(e.items)-1 {
		e.pos++
		e.arm()
	} else {
		e.gen++
		e.state = Idle
		e.pos = 0
	}
	e.notify()
}

// notify publishes the status without blocking, replacing an unread one.
func (e *Engine) notify() {
	st := e.status()
	select {
	case e.changes <- st:
		return
	default:
	}
	select {
	case <-e.changes:
	default:
	}
	select {
	case e.changes <- st:
	default:
	}
}
