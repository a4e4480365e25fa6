package store

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"tableflip.dev/daily/pkg/logging"
	"tableflip.dev/daily/pkg/memory"
)

// Persistence is the contract every backend satisfies. FetchAll returns raw,
// unordered entries and may hold several per date; an empty store yields an
// empty slice and no error.
type Persistence interface {
	FetchAll(ctx context.Context) ([]*memory.Entry, error)
	Create(ctx context.Context, e *memory.Entry) (string, error)
	Replace(ctx context.Context, id string, e *memory.Entry) error
	Delete(ctx context.Context, id string) error
}

// Watcher is implemented by backends that can report external changes.
type Watcher interface {
	Watch(ctx context.Context) (<-chan Event, error)
}

// Load opens the backend named by cfg. When cfg is nil the file config is
// read first.
func Load(ctx context.Context, cfg Config, logger *zap.Logger) (Persistence, error) {
	if cfg == nil {
		fc, err := LoadConfig()
		if err != nil {
			return nil, err
		}
		cfg = fc
	}
	logger = logging.OrNop(logger)

	switch cfg.Backend() {
	case BackendDisk, "":
		return NewDisk(cfg.BasePath(), logger)
	case BackendSQLite:
		return NewSQLite(ctx, cfg.BasePath(), logger)
	case BackendCloud:
		return NewCloud(cfg.Cloud(), logger)
	default:
		return nil, fmt.Errorf("store: unknown backend %q", cfg.Backend())
	}
}

// Close releases p if it holds resources.
func Close(p Persistence) error {
	if c, ok := p.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
