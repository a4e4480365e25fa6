package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"tableflip.dev/daily/pkg/memory"
)

func TestCreateSkipsSeededIDs(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(
		&memory.Entry{ID: "id-1", Date: "2024-04-01", Caption: "first"},
		&memory.Entry{ID: "id-2", Date: "2024-04-02", Caption: "second"},
		&memory.Entry{Date: "2024-04-03", Caption: "third"},
	)
	require.Equal(t, 3, m.Len())

	id, err := m.Create(ctx, &memory.Entry{Date: "2024-04-04", Caption: "fourth"})
	require.NoError(t, err)
	require.Equal(t, "id-4", id)
	require.Equal(t, 4, m.Len())

	all, err := m.FetchAll(ctx)
	require.NoError(t, err)
	captions := map[string]string{}
	for _, e := range all {
		captions[e.ID] = e.Caption
	}
	require.Equal(t, map[string]string{
		"id-1": "first",
		"id-2": "second",
		"id-3": "third",
		"id-4": "fourth",
	}, captions)
}

func TestCreateSkipsTakenIDs(t *testing.T) {
	m := NewMemory(&memory.Entry{ID: "id-9x", Date: "2024-04-01"}, &memory.Entry{ID: "id-10", Date: "2024-04-02"})
	id, err := m.Create(context.Background(), &memory.Entry{Date: "2024-04-03"})
	require.NoError(t, err)
	require.Equal(t, "id-11", id)
}
