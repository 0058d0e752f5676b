// Package recent keeps the most-recently-opened documents in SQLite.
//
// The store is notified by a session after every successful open and serves
// the "Open Recent" list. Re-opening a path moves it to the front. Only the
// newest Config.Limit entries are retained.
package recent

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/scribe/dbopen"
	"github.com/hazyhaar/scribe/docpipe"
)

// Schema creates the recent_documents table. seq orders entries; it is
// bumped on every Add so ties on opened_at cannot reorder the list.
const Schema = `
CREATE TABLE IF NOT EXISTS recent_documents (
	path       TEXT PRIMARY KEY,
	seq        INTEGER NOT NULL,
	opened_at  INTEGER NOT NULL,
	open_count INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_recent_documents_seq ON recent_documents(seq DESC);
`

// ErrEmptyPath is returned by Add and Remove for an empty path.
var ErrEmptyPath = errors.New("recent: empty path")

// Entry is one remembered document.
type Entry struct {
	Path      string         `json:"path"`
	Format    docpipe.Format `json:"format"`
	OpenedAt  time.Time      `json:"opened_at"`
	OpenCount int            `json:"open_count"`
}

// Config holds store settings.
type Config struct {
	// Limit is the number of entries kept and the default List size. Default: 10.
	Limit int

	Logger *slog.Logger

	// Now overrides the clock. Default: time.Now.
	Now func() time.Time
}

func (c *Config) defaults() {
	if c.Limit <= 0 {
		c.Limit = 10
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// Store is a SQLite-backed MRU list. Safe for concurrent use.
type Store struct {
	db     *sql.DB
	cfg    Config
	logger *slog.Logger
	owned  bool
}

// New wraps an open database and ensures the schema exists. The caller
// keeps ownership of db.
func New(db *sql.DB, cfg Config) (*Store, error) {
	cfg.defaults()
	if _, err := db.Exec(Schema); err != nil {
		return nil, fmt.Errorf("recent: schema: %w", err)
	}
	return &Store{db: db, cfg: cfg, logger: cfg.Logger}, nil
}

// Open opens (or creates) the database file at path. Close releases it.
func Open(path string, cfg Config) (*Store, error) {
	db, err := dbopen.Open(path, dbopen.WithMkdirAll())
	if err != nil {
		return nil, err
	}
	s, err := New(db, cfg)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

// Close closes the database if the store opened it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

// Limit returns the retention size.
func (s *Store) Limit() int { return s.cfg.Limit }

// Add records path as the most recently opened document and prunes entries
// beyond the limit.
func (s *Store) Add(ctx context.Context, path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	now := s.cfg.Now().UnixNano()
	err := dbopen.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO recent_documents (path, seq, opened_at, open_count)
			VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM recent_documents), ?, 1)
			ON CONFLICT(path) DO UPDATE SET
				seq        = excluded.seq,
				opened_at  = excluded.opened_at,
				open_count = recent_documents.open_count + 1`,
			path, now); err != nil {
			return fmt.Errorf("recent: upsert: %w", err)
		}
		res, err := tx.ExecContext(ctx, `
			DELETE FROM recent_documents
			WHERE path NOT IN (SELECT path FROM recent_documents ORDER BY seq DESC LIMIT ?)`,
			s.cfg.Limit)
		if err != nil {
			return fmt.Errorf("recent: prune: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			s.logger.DebugContext(ctx, "recent documents pruned", "removed", n)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "recent document added", "path", path)
	return nil
}

// List returns up to limit entries, newest first. limit <= 0 uses the
// configured Limit.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = s.cfg.Limit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, opened_at, open_count FROM recent_documents
		ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent: list: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e        Entry
			openedAt int64
		)
		if err := rows.Scan(&e.Path, &openedAt, &e.OpenCount); err != nil {
			return nil, fmt.Errorf("recent: scan: %w", err)
		}
		e.OpenedAt = time.Unix(0, openedAt).UTC()
		e.Format = docpipe.Classify(e.Path)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Remove forgets path. Removing an unknown path is not an error.
func (s *Store) Remove(ctx context.Context, path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if _, err := dbopen.Exec(ctx, s.db, `DELETE FROM recent_documents WHERE path = ?`, path); err != nil {
		return fmt.Errorf("recent: remove: %w", err)
	}
	return nil
}

// Clear forgets every entry.
func (s *Store) Clear(ctx context.Context) error {
	res, err := dbopen.Exec(ctx, s.db, `DELETE FROM recent_documents`)
	if err != nil {
		return fmt.Errorf("recent: clear: %w", err)
	}
	n, _ := res.RowsAffected()
	s.logger.InfoContext(ctx, "recent documents cleared", "removed", n)
	return nil
}
