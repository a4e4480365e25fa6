// Package storetest provides an in-memory store.Persistence for tests.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"tableflip.dev/daily/pkg/memory"
)

// Memory is a goroutine-safe in-memory Persistence. Setting FetchErr or
// WriteErr makes the matching calls fail.
type Memory struct {
	mu      sync.Mutex
	counter int
	entries map[string]*memory.Entry

	FetchErr error
	WriteErr error
}

// NewMemory seeds the store with entries, assigning ids where missing.
func NewMemory(entries ...*memory.Entry) *Memory {
	m := &Memory{entries: make(map[string]*memory.Entry)}
	for _, e := range entries {
		if e == nil || e.ID == "" {
			continue
		}
		var n int
		if _, err := fmt.Sscanf(e.ID, "id-%d", &n); err == nil && n > m.counter {
			m.counter = n
		}
	}
	for _, e := range entries {
		if e == nil {
			continue
		}
		cp := e.Clone()
		if cp.ID == "" {
			cp.ID = m.newID()
		}
		m.entries[cp.ID] = cp
	}
	return m
}

func (m *Memory) newID() string {
	for {
		m.counter++
		id := fmt.Sprintf("id-%d", m.counter)
		if _, taken := m.entries[id]; !taken {
			return id
		}
	}
}

func (m *Memory) FetchAll(_ context.Context) ([]*memory.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	out := make([]*memory.Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) Create(_ context.Context, e *memory.Entry) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return "", m.WriteErr
	}
	cp := e.Clone()
	cp.ID = m.newID()
	m.entries[cp.ID] = cp
	return cp.ID, nil
}

func (m *Memory) Replace(_ context.Context, id string, e *memory.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	if _, ok := m.entries[id]; !ok {
		return &memory.NotFoundError{ID: id}
	}
	cp := e.Clone()
	cp.ID = id
	m.entries[id] = cp
	return nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	if _, ok := m.entries[id]; !ok {
		return &memory.NotFoundError{ID: id}
	}
	delete(m.entries, id)
	return nil
}

// Len is the number of raw records held.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
