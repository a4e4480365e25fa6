package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/peterbourgon/diskv/v3"
	"go.uber.org/zap"

	"tableflip.dev/daily/pkg/memory"
)

const (
	recordExt = ".json"
	imageExt  = ".img"
)

var (
	recordKey = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})-([0-9a-f]+)\.json$`)
	validID   = regexp.MustCompile(`^[0-9a-f]+$`)
)

// Disk keeps entries in a diskv tree partitioned by year and month. Each
// entry is a JSON record plus an optional sibling holding the image bytes.
type Disk struct {
	d        *diskv.Diskv
	basePath string
	logger   *zap.Logger
}

var _ Persistence = (*Disk)(nil)
var _ Watcher = (*Disk)(nil)

// NewDisk opens (creating if needed) a disk store rooted at basePath.
func NewDisk(basePath string, logger *zap.Logger) (*Disk, error) {
	if basePath == "" {
		return nil, errors.New("store: base path required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("store: ensure base path: %w", err)
	}
	return &Disk{
		d: diskv.New(diskv.Options{
			BasePath:          basePath,
			AdvancedTransform: keyToPathTransform,
			InverseTransform:  pathToKeyTransform,
			CacheSizeMax:      0, // other processes write the same tree
		}),
		basePath: basePath,
		logger:   logger.Named("disk"),
	}, nil
}

// diskRecord is the on-disk metadata; image bytes live next to it.
type diskRecord struct {
	ID         string `json:"id"`
	Date       string `json:"date"`
	URL        string `json:"url,omitempty"`
	Caption    string `json:"caption,omitempty"`
	CapturedAt int64  `json:"timestamp"`
	HasImage   bool   `json:"hasImage,omitempty"`
}

func (p *Disk) FetchAll(ctx context.Context) ([]*memory.Entry, error) {
	all := make([]*memory.Entry, 0)
	for key := range p.d.Keys(ctx.Done()) {
		m := recordKey.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		e, err := p.read(m[1], m[2])
		if err != nil {
			p.logger.Warn("skipping unreadable entry", zap.String("key", key), zap.Error(err))
			continue
		}
		all = append(all, e)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return all, nil
}

func (p *Disk) read(date, id string) (*memory.Entry, error) {
	val, err := p.d.Read(toKey(date, id, recordExt))
	if err != nil {
		return nil, err
	}
	rec := diskRecord{}
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, err
	}
	e := &memory.Entry{
		ID:         id,
		Date:       date,
		Image:      memory.ImageRef{URL: rec.URL},
		Caption:    rec.Caption,
		CapturedAt: rec.CapturedAt,
	}
	if rec.HasImage {
		data, err := p.d.Read(toKey(date, id, imageExt))
		if err != nil {
			return nil, fmt.Errorf("read image: %w", err)
		}
		e.Image.Data = data
	}
	return e, nil
}

func (p *Disk) Create(ctx context.Context, e *memory.Entry) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := newID()
	if err := p.write(id, e); err != nil {
		return "", err
	}
	p.logger.Debug("created entry", zap.String("id", id), zap.String("date", e.Date))
	return id, nil
}

func (p *Disk) Replace(ctx context.Context, id string, e *memory.Entry) error {
	date, err := p.find(ctx, id)
	if err != nil {
		return err
	}
	if date != e.Date {
		p.erase(date, id)
	}
	if err := p.write(id, e); err != nil {
		return err
	}
	p.logger.Debug("replaced entry", zap.String("id", id), zap.String("date", e.Date))
	return nil
}

func (p *Disk) Delete(ctx context.Context, id string) error {
	date, err := p.find(ctx, id)
	if err != nil {
		return err
	}
	if err := p.d.Erase(toKey(date, id, recordExt)); err != nil {
		return fmt.Errorf("store: delete %s: %w", id, err)
	}
	if p.d.Has(toKey(date, id, imageExt)) {
		if err := p.d.Erase(toKey(date, id, imageExt)); err != nil {
			p.logger.Warn("orphaned image", zap.String("id", id), zap.Error(err))
		}
	}
	p.logger.Debug("deleted entry", zap.String("id", id))
	return nil
}

func (p *Disk) write(id string, e *memory.Entry) error {
	if !memory.ValidDate(e.Date) {
		return fmt.Errorf("store: invalid date %q", e.Date)
	}
	rec := diskRecord{
		ID:         id,
		Date:       e.Date,
		URL:        e.Image.URL,
		Caption:    e.Caption,
		CapturedAt: e.CapturedAt,
		HasImage:   e.Image.Inline(),
	}
	imgKey := toKey(e.Date, id, imageExt)
	if rec.HasImage {
		if err := p.d.Write(imgKey, e.Image.Data); err != nil {
			return fmt.Errorf("store: write image: %w", err)
		}
	} else if p.d.Has(imgKey) {
		if err := p.d.Erase(imgKey); err != nil {
			return fmt.Errorf("store: erase stale image: %w", err)
		}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := p.d.Write(toKey(e.Date, id, recordExt), data); err != nil {
		return fmt.Errorf("store: write record: %w", err)
	}
	return nil
}

func (p *Disk) erase(date, id string) {
	for _, ext := range []string{recordExt, imageExt} {
		key := toKey(date, id, ext)
		if !p.d.Has(key) {
			continue
		}
		if err := p.d.Erase(key); err != nil {
			p.logger.Warn("erase failed", zap.String("key", key), zap.Error(err))
		}
	}
}

// find returns the date an id is filed under.
func (p *Disk) find(ctx context.Context, id string) (string, error) {
	if !validID.MatchString(id) {
		return "", &memory.NotFoundError{ID: id}
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	suffix := "-" + id + recordExt
	for key := range p.d.Keys(ctx.Done()) {
		if m := recordKey.FindStringSubmatch(key); m != nil && strings.HasSuffix(key, suffix) {
			return m[1], nil
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "", &memory.NotFoundError{ID: id}
}

func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// keyToPathTransform files `YYYY-MM-DD-<id>.ext` under YYYY/MM as `DD-<id>.ext`.
func keyToPathTransform(key string) *diskv.PathKey {
	parts := strings.SplitN(key, "-", 3)
	if len(parts) < 3 {
		return &diskv.PathKey{FileName: key}
	}
	return &diskv.PathKey{
		Path:     parts[:2],
		FileName: parts[2],
	}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	if len(pathKey.Path) == 0 {
		return pathKey.FileName
	}
	return fmt.Sprintf("%s-%s", strings.Join(pathKey.Path, "-"), pathKey.FileName)
}

// toKey makes `date-id.ext`.
func toKey(date, id, ext string) string {
	return fmt.Sprintf("%s-%s%s", date, id, ext)
}
