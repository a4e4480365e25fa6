package remove

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"tableflip.dev/daily/pkg/journal"
	"tableflip.dev/daily/pkg/memory"
	"tableflip.dev/daily/pkg/store/storetest"
)

func TestRemove(t *testing.T) {
	p := storetest.NewMemory(
		&memory.Entry{ID: "a", Date: "2024-01-01", CapturedAt: 1},
		&memory.Entry{ID: "b", Date: "2024-01-02", CapturedAt: 1},
	)
	out := &bytes.Buffer{}
	r := Remove{Journal: &journal.Service{Persistence: p}, IDs: []string{"a"}, Out: out}
	if err := r.Do(context.Background()); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if p.Len() != 1 {
		t.Fatalf("expected 1 entry left, got %d", p.Len())
	}
	if !bytes.Contains(out.Bytes(), []byte("removed a")) {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestRemoveMissing(t *testing.T) {
	p := storetest.NewMemory(&memory.Entry{ID: "a", Date: "2024-01-01", CapturedAt: 1})
	r := Remove{Journal: &journal.Service{Persistence: p}, IDs: []string{"zzz", "a"}, Out: &bytes.Buffer{}}
	err := r.Do(context.Background())
	if !errors.Is(err, memory.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if p.Len() != 1 {
		t.Fatal("later ids must not be removed after a failure")
	}
}

func TestRemoveNoIDs(t *testing.T) {
	r := Remove{Journal: &journal.Service{Persistence: storetest.NewMemory()}}
	if err := r.Do(context.Background()); err == nil {
		t.Fatal("expected an error")
	}
}
