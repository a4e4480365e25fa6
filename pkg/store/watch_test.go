package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"tableflip.dev/daily/pkg/memory"
)

func TestDiskWatchEmitsEntryChanges(t *testing.T) {
	d, _ := newTestDisk(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := d.Watch(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	// Allow watcher goroutine to subscribe to directories before storing.
	time.Sleep(50 * time.Millisecond)

	if _, err := d.Create(ctx, &memory.Entry{Date: "2024-03-01", Image: memory.ImageRef{URL: "u"}, CapturedAt: 1}); err != nil {
		t.Fatalf("create entry: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case evt := <-ch:
			if evt.Type == EventInvalidated {
				return
			}
			if evt.Type == EventEntriesChanged {
				if evt.Date != "2024-03-01" {
					t.Fatalf("expected date 2024-03-01, got %q", evt.Date)
				}
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for change event")
		}
	}
}

func TestDiskWatchClosesOnCancel(t *testing.T) {
	d, _ := newTestDisk(t)
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := d.Watch(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after cancel")
		}
	}
}

func TestDateForPath(t *testing.T) {
	d, base := newTestDisk(t)
	cases := map[string]string{
		filepath.Join(base, "2024", "03", "01-abc.json"): "2024-03-01",
		filepath.Join(base, "2024", "03", "01-abc.img"):  "2024-03-01",
		filepath.Join(base, "2024", "03"):                "",
		filepath.Join(base, "daily.db"):                  "",
	}
	for path, want := range cases {
		if got := d.dateForPath(path); got != want {
			t.Fatalf("dateForPath(%s) = %q, want %q", path, got, want)
		}
	}
}

func TestThrottleInvalidationWins(t *testing.T) {
	th := newEventThrottle(10 * time.Millisecond)
	defer th.Stop()

	got := make(chan Event, 8)
	send := func(ev Event) { got <- ev }
	th.Enqueue(Event{Type: EventEntriesChanged, Date: "2024-03-01"}, send)
	th.Enqueue(Event{Type: EventInvalidated}, send)
	th.Enqueue(Event{Type: EventEntriesChanged, Date: "2024-03-02"}, send)

	select {
	case ev := <-got:
		if ev.Type != EventInvalidated {
			t.Fatalf("expected a single invalidation, got %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("throttle never flushed")
	}
	select {
	case ev := <-got:
		t.Fatalf("unexpected extra event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}
