package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"tableflip.dev/daily/pkg/logging"
	"tableflip.dev/daily/pkg/memory"
	"tableflip.dev/daily/pkg/store"
)

// ErrWatchUnsupported is returned by Watch for backends without change
// notifications.
var ErrWatchUnsupported = errors.New("journal: backend does not support watching")

var errNoPersistence = errors.New("journal: no persistence configured")

// Service reads the canonical entry set and forwards capture and removal
// intents to the store. The zero Clock and Logger are usable.
type Service struct {
	Persistence store.Persistence
	Logger      *zap.Logger
	Clock       clockwork.Clock
}

// Snapshot is one fetch of the canonical set. When the store could not be
// read, Set is empty and Unavailable is true.
type Snapshot struct {
	Set         *memory.Set
	Unavailable bool
	Err         error
	FetchedAt   time.Time
}

// CaptureRequest asks for a photo to be stored for Date. A non-empty
// ReplaceID overwrites that entry instead of adding one.
type CaptureRequest struct {
	Date      string `validate:"required,datetime=2006-01-02"`
	Image     memory.ImageRef
	Caption   string
	ReplaceID string
}

func (s *Service) clock() clockwork.Clock {
	if s.Clock == nil {
		return clockwork.NewRealClock()
	}
	return s.Clock
}

// Today is the local calendar date according to the service clock.
func (s *Service) Today() string {
	return memory.FormatDate(memory.Today(s.clock().Now()))
}

// Now is the service clock's current time.
func (s *Service) Now() time.Time {
	return s.clock().Now()
}

func (s *Service) logger() *zap.Logger {
	return logging.OrNop(s.Logger)
}

// Load fetches and normalizes every entry. Read failures never surface as
// errors; they yield an empty, unavailable snapshot.
func (s *Service) Load(ctx context.Context) Snapshot {
	snap := Snapshot{FetchedAt: s.clock().Now()}
	if s.Persistence == nil {
		snap.Set = memory.Normalize(nil)
		snap.Unavailable = true
		snap.Err = errNoPersistence
		return snap
	}
	raw, err := s.Persistence.FetchAll(ctx)
	if err != nil {
		s.logger().Warn("memories unavailable", zap.Error(err))
		snap.Set = memory.Normalize(nil)
		snap.Unavailable = true
		snap.Err = err
		return snap
	}
	snap.Set = memory.Normalize(raw)
	s.logger().Debug("loaded memories", zap.Int("raw", len(raw)), zap.Int("canonical", snap.Set.Len()))
	return snap
}

// Capture stores a new entry, or replaces req.ReplaceID in place. The
// returned entry carries the id the store assigned.
func (s *Service) Capture(ctx context.Context, req CaptureRequest) (*memory.Entry, error) {
	if err := validateCapture(req); err != nil {
		return nil, err
	}
	if s.Persistence == nil {
		return nil, errNoPersistence
	}

	e := &memory.Entry{
		Date:       req.Date,
		Image:      req.Image,
		Caption:    req.Caption,
		CapturedAt: s.clock().Now().UnixMilli(),
	}

	if req.ReplaceID == "" {
		id, err := s.Persistence.Create(ctx, e)
		if err != nil {
			return nil, err
		}
		e.ID = id
		s.logger().Info("captured memory", zap.String("id", id), zap.String("date", e.Date))
		return e, nil
	}

	current, err := s.find(ctx, req.ReplaceID)
	if err != nil {
		return nil, err
	}
	if current.Date != req.Date {
		return nil, &memory.ValidationError{Fields: []string{
			fmt.Sprintf("date %s does not match entry %s (%s)", req.Date, current.ID, current.Date),
		}}
	}
	if err := s.Persistence.Replace(ctx, req.ReplaceID, e); err != nil {
		return nil, err
	}
	e.ID = req.ReplaceID
	s.logger().Info("replaced memory", zap.String("id", e.ID), zap.String("date", e.Date))
	return e, nil
}

// Remove deletes the entry with id.
func (s *Service) Remove(ctx context.Context, id string) error {
	if id == "" {
		return &memory.ValidationError{Fields: []string{"id is required"}}
	}
	if s.Persistence == nil {
		return errNoPersistence
	}
	if err := s.Persistence.Delete(ctx, id); err != nil {
		return err
	}
	s.logger().Info("removed memory", zap.String("id", id))
	return nil
}

// Watch subscribes to store change events when the backend supports them.
func (s *Service) Watch(ctx context.Context) (<-chan store.Event, error) {
	w, ok := s.Persistence.(store.Watcher)
	if !ok {
		return nil, ErrWatchUnsupported
	}
	return w.Watch(ctx)
}

// find looks id up among the raw entries; a failed read is a write-path
// failure here and is returned as is.
func (s *Service) find(ctx context.Context, id string) (*memory.Entry, error) {
	raw, err := s.Persistence.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range raw {
		if e != nil && e.ID == id {
			return e, nil
		}
	}
	return nil, &memory.NotFoundError{ID: id}
}
