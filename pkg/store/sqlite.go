package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"tableflip.dev/daily/pkg/memory"
)

const sqliteFile = "daily.db"

const schema = `
	CREATE TABLE IF NOT EXISTS entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		image BLOB,
		url TEXT NOT NULL DEFAULT '',
		caption TEXT NOT NULL DEFAULT '',
		captured_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_date ON entries(date);
	CREATE INDEX IF NOT EXISTS idx_entries_captured_at ON entries(captured_at);
`

// SQLite keeps entries in a single table; ids are the rowid in decimal.
type SQLite struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ Persistence = (*SQLite)(nil)

// NewSQLite opens daily.db under basePath, or dsn ":memory:" when basePath is
// ":memory:", and ensures the schema exists.
func NewSQLite(ctx context.Context, basePath string, logger *zap.Logger) (*SQLite, error) {
	dsn := basePath
	if basePath != ":memory:" {
		if err := os.MkdirAll(basePath, 0o755); err != nil {
			return nil, fmt.Errorf("store: ensure base path: %w", err)
		}
		dsn = filepath.Join(basePath, sqliteFile) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	if basePath == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: initialize schema: %w", err)
	}
	return &SQLite{db: db, logger: logger.Named("sqlite")}, nil
}

func (s *SQLite) FetchAll(ctx context.Context) ([]*memory.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, date, image, url, caption, captured_at FROM entries`)
	if err != nil {
		return nil, fmt.Errorf("store: query entries: %w", err)
	}
	defer rows.Close()

	all := make([]*memory.Entry, 0)
	for rows.Next() {
		var (
			id int64
			e  memory.Entry
		)
		if err := rows.Scan(&id, &e.Date, &e.Image.Data, &e.Image.URL, &e.Caption, &e.CapturedAt); err != nil {
			return nil, fmt.Errorf("store: scan entry: %w", err)
		}
		e.ID = strconv.FormatInt(id, 10)
		all = append(all, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate entries: %w", err)
	}
	return all, nil
}

func (s *SQLite) Create(ctx context.Context, e *memory.Entry) (string, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (date, image, url, caption, captured_at) VALUES (?, ?, ?, ?, ?)`,
		e.Date, blob(e.Image.Data), e.Image.URL, e.Caption, e.CapturedAt)
	if err != nil {
		return "", fmt.Errorf("store: insert entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("store: insert entry: %w", err)
	}
	s.logger.Debug("created entry", zap.Int64("id", id), zap.String("date", e.Date))
	return strconv.FormatInt(id, 10), nil
}

func (s *SQLite) Replace(ctx context.Context, id string, e *memory.Entry) error {
	rowID, err := parseRowID(id)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE entries SET date = ?, image = ?, url = ?, caption = ?, captured_at = ? WHERE id = ?`,
		e.Date, blob(e.Image.Data), e.Image.URL, e.Caption, e.CapturedAt, rowID)
	if err != nil {
		return fmt.Errorf("store: update entry: %w", err)
	}
	return affected(res, id)
}

func (s *SQLite) Delete(ctx context.Context, id string) error {
	rowID, err := parseRowID(id)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, rowID)
	if err != nil {
		return fmt.Errorf("store: delete entry: %w", err)
	}
	return affected(res, id)
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func parseRowID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, &memory.NotFoundError{ID: id}
	}
	return n, nil
}

func affected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: rows affected: %w", err)
	}
	if n == 0 {
		return &memory.NotFoundError{ID: id}
	}
	return nil
}

// blob keeps an absent image NULL rather than an empty blob.
func blob(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
