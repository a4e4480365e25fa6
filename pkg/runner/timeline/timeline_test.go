package timeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"

	"tableflip.dev/daily/pkg/journal"
	"tableflip.dev/daily/pkg/memory"
	"tableflip.dev/daily/pkg/printers"
	"tableflip.dev/daily/pkg/store/storetest"
)

func init() {
	color.NoColor = true
}

func newJournal(p *storetest.Memory) *journal.Service {
	clock := clockwork.NewFakeClockAt(time.Date(2024, time.March, 2, 12, 0, 0, 0, time.Local))
	return &journal.Service{Persistence: p, Clock: clock}
}

func seeded() *storetest.Memory {
	return storetest.NewMemory(
		&memory.Entry{ID: "a", Date: "2024-01-10", CapturedAt: 1},
		&memory.Entry{ID: "b", Date: "2024-03-01", CapturedAt: 1},
		&memory.Entry{ID: "c", Date: "2024-03-01", CapturedAt: 5, Caption: "newer"},
		&memory.Entry{ID: "d", Date: "2024-02-20", CapturedAt: 1},
	)
}

func decode(t *testing.T, b []byte) jsonTimeline {
	t.Helper()
	var doc jsonTimeline
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatalf("bad json %q: %v", string(b), err)
	}
	return doc
}

func keys(doc jsonTimeline) []string {
	out := []string{}
	for _, g := range doc.Groups {
		for _, e := range g.Entries {
			out = append(out, g.Key+"/"+e.ID)
		}
	}
	return out
}

func TestTimelineJSONDescending(t *testing.T) {
	out := &bytes.Buffer{}
	r := Timeline{Journal: newJournal(seeded()), JSON: true, Out: out}
	if err := r.Do(context.Background()); err != nil {
		t.Fatal(err)
	}
	doc := decode(t, out.Bytes())
	want := []string{"2024-03/c", "2024-02/d", "2024-01/a"}
	if diff := cmp.Diff(want, keys(doc)); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
	if !doc.NeedsCapture {
		t.Fatal("no entry for 2024-03-02, expected a capture prompt")
	}
}

func TestTimelineJSONAscending(t *testing.T) {
	out := &bytes.Buffer{}
	r := Timeline{Journal: newJournal(seeded()), JSON: true, Ascending: true, Out: out}
	if err := r.Do(context.Background()); err != nil {
		t.Fatal(err)
	}
	doc := decode(t, out.Bytes())
	want := []string{"2024-01/a", "2024-02/d", "2024-03/c"}
	if diff := cmp.Diff(want, keys(doc)); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
	if doc.Order != "ascending" {
		t.Fatalf("expected ascending, got %s", doc.Order)
	}
}

func TestTimelineUnavailable(t *testing.T) {
	p := seeded()
	p.FetchErr = &memory.TransportError{Op: "list", Err: errors.New("offline")}
	out := &bytes.Buffer{}
	r := Timeline{Journal: newJournal(p), Out: out}
	if err := r.Do(context.Background()); err != nil {
		t.Fatalf("read failures must not surface: %v", err)
	}
	s := out.String()
	if !strings.Contains(s, "unavailable") || !strings.Contains(s, "no memories yet") {
		t.Fatalf("unexpected output:\n%s", s)
	}
}

func TestTimelinePrettyHint(t *testing.T) {
	out := &bytes.Buffer{}
	r := Timeline{Journal: newJournal(seeded()), Out: out}
	if err := r.Do(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Capture today") {
		t.Fatalf("missing capture hint:\n%s", out.String())
	}
}

func TestTimelineResolvesImages(t *testing.T) {
	p := storetest.NewMemory(
		&memory.Entry{ID: "a", Date: "2024-01-10", CapturedAt: 1, Image: memory.ImageRef{Data: []byte("raw")}},
		&memory.Entry{ID: "b", Date: "2024-02-11", CapturedAt: 1, Image: memory.ImageRef{URL: "https://x.test/b.jpg"}},
		&memory.Entry{ID: "c", Date: "2024-02-12", CapturedAt: 1},
	)
	fs := afero.NewMemMapFs()
	images := &printers.ImageResolver{Fs: fs, Dir: "/photos"}

	out := &bytes.Buffer{}
	r := Timeline{Journal: newJournal(p), JSON: true, Images: images, Out: out}
	if err := r.Do(context.Background()); err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	want := map[string]string{
		"a": filepath.Join("/photos", "2024-01-10-a.img"),
		"b": "https://x.test/b.jpg",
	}
	if diff := cmp.Diff(want, decode(t, out.Bytes()).Images); diff != "" {
		t.Fatalf("unexpected images (-want +got):\n%s", diff)
	}

	out.Reset()
	r.JSON = false
	if err := r.Do(context.Background()); err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if !strings.Contains(out.String(), want["a"]) {
		t.Fatalf("missing %s in:\n%s", want["a"], out.String())
	}
}
