package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// EventType describes the nature of a persistence change notification.
type EventType int

const (
	// EventEntriesChanged means entries for Date were written or removed.
	EventEntriesChanged EventType = iota

	// EventInvalidated means the change could not be pinned to a date and
	// callers should refetch everything.
	EventInvalidated
)

// Event is emitted by Watch when underlying storage changes.
type Event struct {
	Type EventType
	Date string
}

const watchThrottle = 100 * time.Millisecond

// Watch streams change events until ctx is cancelled. Events are dropped
// rather than queued when the consumer lags; any later event still triggers a
// full refetch. The channel is closed once ctx is done.
func (p *Disk) Watch(ctx context.Context) (<-chan Event, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("store: create watcher: %w", err)
	}
	var closeOnce sync.Once
	closeWatcher := func() {
		closeOnce.Do(func() {
			if err := watcher.Close(); err != nil {
				p.logger.Warn("watcher close", zap.Error(err))
			}
		})
	}

	dirs, err := collectDirs(p.basePath)
	if err != nil {
		closeWatcher()
		return nil, fmt.Errorf("store: enumerate directories: %w", err)
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			closeWatcher()
			return nil, fmt.Errorf("store: watch %s: %w", dir, err)
		}
	}

	events := make(chan Event, 64)

	var sendMu sync.Mutex
	closed := false

	go func() {
		defer func() {
			sendMu.Lock()
			closed = true
			close(events)
			sendMu.Unlock()
		}()
		defer closeWatcher()

		watched := make(map[string]struct{}, len(dirs))
		for _, dir := range dirs {
			watched[dir] = struct{}{}
		}

		send := func(ev Event) {
			sendMu.Lock()
			defer sendMu.Unlock()
			if closed {
				return
			}
			select {
			case events <- ev:
			default:
			}
		}

		throttle := newEventThrottle(watchThrottle)
		defer throttle.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				p.logger.Debug("watcher error", zap.Error(err))
				throttle.Enqueue(Event{Type: EventInvalidated}, send)
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}

				if evt.Op&fsnotify.Create == fsnotify.Create {
					if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
						dir := filepath.Clean(evt.Name)
						if _, found := watched[dir]; !found {
							if err := watcher.Add(dir); err != nil {
								p.logger.Warn("watch directory", zap.String("dir", dir), zap.Error(err))
							} else {
								watched[dir] = struct{}{}
							}
						}
						throttle.Enqueue(Event{Type: EventInvalidated}, send)
						continue
					}
				}

				date := p.dateForPath(evt.Name)
				if date == "" {
					throttle.Enqueue(Event{Type: EventInvalidated}, send)
					continue
				}
				throttle.Enqueue(Event{Type: EventEntriesChanged, Date: date}, send)
			}
		}
	}()

	return events, nil
}

// collectDirs walks base and returns all directories that should be watched.
func collectDirs(base string) ([]string, error) {
	dirs := []string{base}
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() && path != base {
			dirs = append(dirs, path)
		}
		return nil
	})
	return dirs, err
}

// dateForPath maps YYYY/MM/DD-<id>.ext back to its date.
func (p *Disk) dateForPath(path string) string {
	rel, err := filepath.Rel(p.basePath, path)
	if err != nil || rel == "." {
		return ""
	}
	parts := strings.Split(rel, string(os.PathSeparator))
	if len(parts) != 3 {
		return ""
	}
	key := strings.Join(parts, "-")
	key = strings.TrimSuffix(strings.TrimSuffix(key, imageExt), recordExt)
	m := recordKey.FindStringSubmatch(key + recordExt)
	if m == nil {
		return ""
	}
	return m[1]
}

// eventThrottle coalesces a burst of filesystem writes into one event per
// date so the UI refetches once per burst.
type eventThrottle struct {
	mu      sync.Mutex
	timer   *time.Timer
	pending map[EventType]map[string]struct{}
	delay   time.Duration
}

func newEventThrottle(delay time.Duration) *eventThrottle {
	return &eventThrottle{
		delay:   delay,
		pending: make(map[EventType]map[string]struct{}),
	}
}

func (t *eventThrottle) Enqueue(ev Event, send func(Event)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending[ev.Type] == nil {
		t.pending[ev.Type] = make(map[string]struct{})
	}
	t.pending[ev.Type][ev.Date] = struct{}{}

	if t.timer == nil {
		t.timer = time.AfterFunc(t.delay, func() {
			t.flush(send)
		})
	}
}

func (t *eventThrottle) flush(send func(Event)) {
	t.mu.Lock()
	pending := t.pending
	t.pending = make(map[EventType]map[string]struct{})
	t.timer = nil
	t.mu.Unlock()

	// A full invalidation subsumes per-date changes.
	if _, ok := pending[EventInvalidated]; ok {
		send(Event{Type: EventInvalidated})
		return
	}
	for date := range pending[EventEntriesChanged] {
		send(Event{Type: EventEntriesChanged, Date: date})
	}
}

func (t *eventThrottle) Stop() {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()
}
