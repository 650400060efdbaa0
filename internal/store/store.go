// Package store persists tutoring sessions and their event log in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	_ "modernc.org/sqlite"
)

// connPragmas are applied by the driver to every pooled connection.
var connPragmas = []string{
	"busy_timeout(5000)",
	"foreign_keys(1)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
}

type Store struct {
	db  *sql.DB
	seq *sequenceCounter
}

// Open is OpenContext with a background context.
func Open(dsn string) (*Store, error) {
	return OpenContext(context.Background(), dsn)
}

// OpenContext connects to the database at dsn, which may be a file path
// or a "file:" URI, and brings the schema up to date.
func OpenContext(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", withPragmas(dsn))
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", dsn, err)
	}

	s, err := initStore(ctx, db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: %w", err)
	}
	return s, nil
}

func initStore(ctx context.Context, db *sql.DB) (*Store, error) {
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	if err := migrate(ctx, db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	seq, err := newSequenceCounter(db)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, seq: seq}, nil
}

// withPragmas appends the connection pragmas as _pragma DSN parameters so
// every connection in the pool gets them, not just the first.
func withPragmas(dsn string) string {
	params := make([]string, len(connPragmas))
	for i, p := range connPragmas {
		params[i] = "_pragma=" + p
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

// DB exposes the connection pool for ad-hoc queries.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) EventRepo() EventRepo {
	return &eventRepo{db: s.db, seq: s.seq}
}

func (s *Store) SessionRepo() SessionRepo {
	return &sessionRepo{db: s.db}
}

func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

// DefaultDBPath picks the database file: $VIDTUTOR_DB if set, otherwise
// vidtutor/vidtutor.db under $XDG_DATA_HOME (default ~/.local/share). The
// parent directory is created.
func DefaultDBPath() (string, error) {
	path := os.Getenv("VIDTUTOR_DB")
	if path == "" {
		base := os.Getenv("XDG_DATA_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("store: locate home: %w", err)
			}
			base = filepath.Join(home, ".local", "share")
		}
		path = filepath.Join(base, "vidtutor", "vidtutor.db")
	}
	return path, EnsureDir(path)
}

// EnsureDir creates the directory that will hold the database file.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
