package printers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"tableflip.dev/daily/pkg/memory"
)

// ImageResolver turns an entry's photo into something a viewer can open:
// the URL for remote photos, or a file holding the inline bytes.
type ImageResolver struct {
	// Fs defaults to the OS filesystem.
	Fs afero.Fs
	// Dir defaults to a "daily" folder under the system temp dir.
	Dir string
}

// DefaultImageDir holds resolved inline photos.
func DefaultImageDir() string {
	return filepath.Join(os.TempDir(), "daily")
}

// ResolveImage resolves e with the default resolver.
func ResolveImage(e *memory.Entry) (string, error) {
	return ImageResolver{}.Resolve(e)
}

// Resolve returns "" for entries without a photo. Inline photos are written
// once to <dir>/<date>-<id><ext>; later calls reuse the file while its size
// still matches.
func (r ImageResolver) Resolve(e *memory.Entry) (string, error) {
	if e == nil {
		return "", nil
	}
	switch {
	case e.Image.URL != "" && !e.Image.Inline():
		return e.Image.URL, nil
	case !e.Image.Inline():
		return "", nil
	}

	fs := r.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	dir := r.Dir
	if dir == "" {
		dir = DefaultImageDir()
	}

	name := fmt.Sprintf("%s-%s%s", e.Date, safeName(e.ID), imageExt(e.Image.Data))
	path := filepath.Join(dir, name)
	if fi, err := fs.Stat(path); err == nil && fi.Size() == int64(len(e.Image.Data)) {
		return path, nil
	}

	if err := fs.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("resolve image: %w", err)
	}
	f, err := afero.TempFile(fs, dir, name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("resolve image: %w", err)
	}
	tmp := f.Name()
	if _, err := f.Write(e.Image.Data); err != nil {
		_ = f.Close()
		_ = fs.Remove(tmp)
		return "", fmt.Errorf("resolve image: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = fs.Remove(tmp)
		return "", fmt.Errorf("resolve image: %w", err)
	}
	if err := fs.Rename(tmp, path); err != nil {
		_ = fs.Remove(tmp)
		return "", fmt.Errorf("resolve image: %w", err)
	}
	return path, nil
}

// label is the resolved handle, or ImageLabel when resolving fails.
func (r ImageResolver) label(e *memory.Entry) string {
	h, err := r.Resolve(e)
	if err != nil || h == "" {
		return ImageLabel(e.Image)
	}
	return h
}

func imageExt(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	default:
		return ".img"
	}
}

func safeName(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, id)
}
