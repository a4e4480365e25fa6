package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"

	"tableflip.dev/daily/pkg/calendar"
	"tableflip.dev/daily/pkg/journal"
	"tableflip.dev/daily/pkg/memory"
	"tableflip.dev/daily/pkg/store/storetest"
)

func newTestService(entries ...*memory.Entry) (*Service, *storetest.Memory) {
	p := storetest.NewMemory(entries...)
	clock := clockwork.NewFakeClockAt(time.Date(2024, time.April, 20, 9, 0, 0, 0, time.Local))
	return NewService(&journal.Service{Persistence: p, Clock: clock}), p
}

func TestServiceListMemoriesIsCanonical(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(
		&memory.Entry{ID: "old", Date: "2024-04-01", CapturedAt: 1, Image: memory.ImageRef{URL: "https://x.test/1.jpg"}},
		&memory.Entry{ID: "new", Date: "2024-04-01", CapturedAt: 2, Image: memory.ImageRef{Data: []byte("abc")}},
		&memory.Entry{ID: "other", Date: "2024-03-30", CapturedAt: 1},
	)

	memories, unavailable, err := svc.ListMemories(ctx)
	if err != nil {
		t.Fatalf("ListMemories failed: %v", err)
	}
	if unavailable {
		t.Fatal("expected the store to be available")
	}
	if len(memories) != 2 {
		t.Fatalf("expected 2 memories, got %d", len(memories))
	}
	if memories[0].ID != "other" || memories[1].ID != "new" {
		t.Fatalf("unexpected memories %+v", memories)
	}
	if memories[1].ImageBytes != 3 || memories[1].ImageURL != "" {
		t.Fatalf("inline image should report its size only: %+v", memories[1])
	}
}

func TestServiceMemoryByDate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(&memory.Entry{ID: "a", Date: "2024-04-02", CapturedAt: 1})

	dto, err := svc.MemoryByDate(ctx, "2024-04-02")
	if err != nil || dto.ID != "a" {
		t.Fatalf("unexpected result %+v %v", dto, err)
	}
	if _, err := svc.MemoryByDate(ctx, "2024-04-03"); !errors.Is(err, ErrNoMemory) {
		t.Fatalf("expected ErrNoMemory, got %v", err)
	}
	if _, err := svc.MemoryByDate(ctx, "04/02/2024"); err == nil {
		t.Fatal("expected a date format error")
	}
}

func TestServiceCaptureBase64(t *testing.T) {
	ctx := context.Background()
	svc, p := newTestService()

	payload := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png-bytes"))
	dto, err := svc.Capture(ctx, CaptureOptions{ImageBase64: payload, Caption: "hi"})
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if dto.Date != "2024-04-20" {
		t.Fatalf("expected today's date, got %s", dto.Date)
	}
	raw, _ := p.FetchAll(ctx)
	if len(raw) != 1 || string(raw[0].Image.Data) != "png-bytes" {
		t.Fatalf("unexpected stored entries %+v", raw)
	}
}

func TestServiceCaptureRejectsBothImages(t *testing.T) {
	svc, p := newTestService()
	_, err := svc.Capture(context.Background(), CaptureOptions{ImageURL: "https://x.test/a.jpg", ImageBase64: "YQ=="})
	if err == nil {
		t.Fatal("expected an error")
	}
	if p.Len() != 0 {
		t.Fatal("nothing should be stored")
	}
}

func TestServiceCaptureRejectsOversizedImage(t *testing.T) {
	defer func(n int) { maxImageBytes = n }(maxImageBytes)
	maxImageBytes = 4

	svc, p := newTestService()
	ctx := context.Background()
	// "aGVsbG8=" is five bytes.
	_, err := svc.Capture(ctx, CaptureOptions{Date: "2024-04-01", ImageBase64: "aGVsbG8="})
	var verr *memory.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected a validation error, got %v", err)
	}
	if p.Len() != 0 {
		t.Fatal("nothing should be stored")
	}

	// "aGVsbA==" is exactly four bytes.
	if _, err := svc.Capture(ctx, CaptureOptions{Date: "2024-04-01", ImageBase64: "aGVsbA=="}); err != nil {
		t.Fatalf("Capture at the limit failed: %v", err)
	}
}

func TestServiceCaptureRequiresImage(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Capture(context.Background(), CaptureOptions{Date: "2024-04-01"})
	var verr *memory.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected a validation error, got %v", err)
	}
}

func TestServiceRemove(t *testing.T) {
	ctx := context.Background()
	svc, p := newTestService(&memory.Entry{ID: "a", Date: "2024-04-02", CapturedAt: 1})
	if err := svc.Remove(ctx, "a"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if p.Len() != 0 {
		t.Fatal("expected the entry to be gone")
	}
	if err := svc.Remove(ctx, "a"); !errors.Is(err, memory.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestServiceCalendar(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(&memory.Entry{ID: "a", Date: "2024-04-05", CapturedAt: 1})

	month, err := svc.Calendar(ctx, "")
	if err != nil {
		t.Fatalf("Calendar failed: %v", err)
	}
	if month.Month != "2024-04" || month.CanNext || len(month.Days) != 30 || month.Days[4].MemoryID != "a" {
		t.Fatalf("unexpected month %+v", month)
	}
	if _, err := svc.Calendar(ctx, "2024-05"); !errors.Is(err, calendar.ErrFutureMonth) {
		t.Fatalf("expected ErrFutureMonth, got %v", err)
	}

	year, err := svc.Year(ctx, 2024)
	if err != nil {
		t.Fatalf("Year failed: %v", err)
	}
	if year.Months[3].Count != 1 || !year.Months[4].Disabled {
		t.Fatalf("unexpected year %+v", year)
	}
}

func TestServiceTimeline(t *testing.T) {
	svc, _ := newTestService(
		&memory.Entry{ID: "a", Date: "2024-03-05", CapturedAt: 1},
		&memory.Entry{ID: "b", Date: "2024-04-05", CapturedAt: 1},
	)
	tl, err := svc.Timeline(context.Background(), false)
	if err != nil {
		t.Fatalf("Timeline failed: %v", err)
	}
	if len(tl.Groups) != 2 || tl.Groups[0].Key != "2024-04" || !tl.NeedsCapture {
		t.Fatalf("unexpected timeline %+v", tl)
	}
}

func call(t *testing.T, r Runner, method string, params any) string {
	t.Helper()
	srv := r.newServer()
	req := map[string]any{"jsonrpc": "2.0", "id": 1, "method": method, "params": params}
	b, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	resp := srv.HandleMessage(context.Background(), b)
	out, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	return string(out)
}

func TestServerTools(t *testing.T) {
	svc, p := newTestService(&memory.Entry{ID: "a", Date: "2024-04-02", CapturedAt: 1, Caption: "pier"})
	r := Runner{Journal: svc.Journal}

	list := call(t, r, "tools/list", map[string]any{})
	for _, name := range []string{"list_memories", "get_memory", "get_timeline", "get_calendar", "capture_memory", "remove_memory"} {
		if !strings.Contains(list, name) {
			t.Fatalf("tool %s not registered: %s", name, list)
		}
	}

	got := call(t, r, "tools/call", map[string]any{"name": "list_memories", "arguments": map[string]any{}})
	if !strings.Contains(got, "pier") {
		t.Fatalf("unexpected list result: %s", got)
	}

	got = call(t, r, "tools/call", map[string]any{
		"name":      "capture_memory",
		"arguments": map[string]any{"date": "2024-04-03", "image_url": "https://x.test/3.jpg"},
	})
	if !strings.Contains(got, "2024-04-03") || p.Len() != 2 {
		t.Fatalf("unexpected capture result: %s", got)
	}

	got = call(t, r, "tools/call", map[string]any{"name": "remove_memory", "arguments": map[string]any{"id": "a"}})
	if !strings.Contains(got, "removed") || p.Len() != 1 {
		t.Fatalf("unexpected remove result: %s", got)
	}
}

func TestServerResources(t *testing.T) {
	svc, _ := newTestService(&memory.Entry{ID: "a", Date: "2024-04-02", CapturedAt: 1, Caption: "pier"})
	r := Runner{Journal: svc.Journal}

	got := call(t, r, "resources/read", map[string]any{"uri": "daily://memories"})
	if !strings.Contains(got, "pier") {
		t.Fatalf("unexpected resource: %s", got)
	}
	got = call(t, r, "resources/read", map[string]any{"uri": "daily://memories/2024-04-02"})
	if !strings.Contains(got, "pier") {
		t.Fatalf("unexpected templated resource: %s", got)
	}
}

func TestRunnerRequiresJournal(t *testing.T) {
	if err := (Runner{}).Do(context.Background()); err == nil {
		t.Fatal("expected an error")
	}
}

func TestServiceImageByDate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(
		&memory.Entry{ID: "a", Date: "2024-04-02", CapturedAt: 1, Image: memory.ImageRef{Data: []byte("GIF89a")}},
		&memory.Entry{ID: "b", Date: "2024-04-03", CapturedAt: 1, Image: memory.ImageRef{URL: "https://x.test/b.jpg"}},
	)

	img, err := svc.ImageByDate(ctx, "2024-04-02")
	if err != nil {
		t.Fatalf("ImageByDate failed: %v", err)
	}
	want := &ImageDTO{ID: "a", Date: "2024-04-02", MIMEType: "image/gif", Base64: "R0lGODlh"}
	if diff := cmp.Diff(want, img); diff != "" {
		t.Fatalf("unexpected image (-want +got):\n%s", diff)
	}

	img, err = svc.ImageByDate(ctx, "2024-04-03")
	if err != nil {
		t.Fatalf("ImageByDate failed: %v", err)
	}
	if img.URL != "https://x.test/b.jpg" || img.Base64 != "" {
		t.Fatalf("expected the remote URL, got %+v", img)
	}

	if _, err := svc.ImageByDate(ctx, "2024-04-04"); !errors.Is(err, ErrNoMemory) {
		t.Fatalf("expected ErrNoMemory, got %v", err)
	}
}

func TestServerServesInlineImages(t *testing.T) {
	svc, _ := newTestService(&memory.Entry{ID: "a", Date: "2024-04-02", CapturedAt: 1, Image: memory.ImageRef{Data: []byte("GIF89a")}})
	r := Runner{Journal: svc.Journal}

	got := call(t, r, "resources/read", map[string]any{"uri": "daily://memories/2024-04-02/image"})
	if !strings.Contains(got, `"blob":"R0lGODlh"`) || !strings.Contains(got, "image/gif") {
		t.Fatalf("unexpected image resource: %s", got)
	}

	got = call(t, r, "tools/call", map[string]any{
		"name":      "get_memory",
		"arguments": map[string]any{"date": "2024-04-02", "include_image": true},
	})
	if !strings.Contains(got, `"type":"image"`) || !strings.Contains(got, "R0lGODlh") {
		t.Fatalf("expected image content: %s", got)
	}

	got = call(t, r, "tools/call", map[string]any{"name": "get_memory", "arguments": map[string]any{"date": "2024-04-02"}})
	if strings.Contains(got, "R0lGODlh") {
		t.Fatalf("image attached without include_image: %s", got)
	}
}
