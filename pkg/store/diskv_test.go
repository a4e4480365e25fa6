package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tableflip.dev/daily/pkg/memory"
)

func newTestDisk(t *testing.T) (*Disk, string) {
	t.Helper()
	base := t.TempDir()
	d, err := NewDisk(base, zap.NewNop())
	require.NoError(t, err)
	return d, base
}

func TestDiskEmpty(t *testing.T) {
	d, _ := newTestDisk(t)
	all, err := d.FetchAll(context.Background())
	require.NoError(t, err)
	require.NotNil(t, all)
	require.Empty(t, all)
}

func TestDiskCreateFetch(t *testing.T) {
	ctx := context.Background()
	d, base := newTestDisk(t)

	id, err := d.Create(ctx, &memory.Entry{
		Date:       "2024-03-01",
		Image:      memory.ImageRef{Data: []byte("jpeg")},
		Caption:    "hello",
		CapturedAt: 100,
	})
	require.NoError(t, err)
	require.Regexp(t, `^[0-9a-f]{32}$`, id)

	_, err = os.Stat(filepath.Join(base, "2024", "03", "01-"+id+".json"))
	require.NoError(t, err, "record should be partitioned by year and month")
	_, err = os.Stat(filepath.Join(base, "2024", "03", "01-"+id+".img"))
	require.NoError(t, err, "image should sit next to the record")

	all, err := d.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, id, all[0].ID)
	require.Equal(t, "2024-03-01", all[0].Date)
	require.Equal(t, "hello", all[0].Caption)
	require.Equal(t, int64(100), all[0].CapturedAt)
	require.Equal(t, []byte("jpeg"), all[0].Image.Data)
}

func TestDiskKeepsSameDateDuplicates(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDisk(t)
	for i := int64(1); i <= 3; i++ {
		_, err := d.Create(ctx, &memory.Entry{Date: "2024-03-01", Image: memory.ImageRef{URL: "u"}, CapturedAt: i})
		require.NoError(t, err)
	}
	all, err := d.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	set := memory.Normalize(all)
	e, ok := set.Lookup("2024-03-01")
	require.True(t, ok)
	require.Equal(t, int64(3), e.CapturedAt)
}

func TestDiskReplaceMovesDate(t *testing.T) {
	ctx := context.Background()
	d, base := newTestDisk(t)
	id, err := d.Create(ctx, &memory.Entry{Date: "2024-03-01", Image: memory.ImageRef{Data: []byte("a")}, CapturedAt: 1})
	require.NoError(t, err)

	err = d.Replace(ctx, id, &memory.Entry{Date: "2024-04-02", Image: memory.ImageRef{URL: "https://x.test/b.jpg"}, Caption: "moved", CapturedAt: 2})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(base, "2024", "03", "01-"+id+".json"))
	require.True(t, errors.Is(err, os.ErrNotExist))
	_, err = os.Stat(filepath.Join(base, "2024", "03", "01-"+id+".img"))
	require.True(t, errors.Is(err, os.ErrNotExist))

	all, err := d.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, id, all[0].ID)
	require.Equal(t, "2024-04-02", all[0].Date)
	require.Equal(t, "https://x.test/b.jpg", all[0].Image.URL)
	require.Nil(t, all[0].Image.Data)
}

func TestDiskMissingIDs(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDisk(t)
	e := &memory.Entry{Date: "2024-03-01", Image: memory.ImageRef{URL: "u"}}

	for _, id := range []string{"deadbeef", "../etc", ""} {
		require.ErrorIs(t, d.Replace(ctx, id, e), memory.ErrNotFound)
		require.ErrorIs(t, d.Delete(ctx, id), memory.ErrNotFound)
	}
}

func TestDiskDelete(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDisk(t)
	keep, err := d.Create(ctx, &memory.Entry{Date: "2024-03-01", Image: memory.ImageRef{URL: "u"}, CapturedAt: 1})
	require.NoError(t, err)
	drop, err := d.Create(ctx, &memory.Entry{Date: "2024-03-02", Image: memory.ImageRef{Data: []byte("x")}, CapturedAt: 1})
	require.NoError(t, err)

	require.NoError(t, d.Delete(ctx, drop))
	require.ErrorIs(t, d.Delete(ctx, drop), memory.ErrNotFound)

	all, err := d.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, keep, all[0].ID)
}

func TestDiskIgnoresForeignFiles(t *testing.T) {
	ctx := context.Background()
	d, base := newTestDisk(t)
	require.NoError(t, os.WriteFile(filepath.Join(base, "daily.db"), []byte("x"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(base, "2024", "03"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "2024", "03", "01-abc.json"), []byte("{not json"), 0o644))

	all, err := d.FetchAll(ctx)
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestKeyTransformRoundTrip(t *testing.T) {
	key := toKey("2024-03-01", "abc123", recordExt)
	pk := keyToPathTransform(key)
	require.Equal(t, []string{"2024", "03"}, pk.Path)
	require.Equal(t, "01-abc123.json", pk.FileName)
	require.Equal(t, key, pathToKeyTransform(pk))
}
