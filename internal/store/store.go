package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Supported database/sql driver names.
const (
	DriverMattn   = "sqlite3" // github.com/mattn/go-sqlite3 (cgo)
	DriverModernc = "sqlite"  // modernc.org/sqlite (pure Go)
)

// Clock supplies the current time for updatedAt and timestamp tags.
type Clock interface {
	Now() time.Time
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// Option configures a Store at Open.
type Option func(*Store)

// WithDriver selects the database/sql driver. See DriverMattn and
// DriverModernc.
func WithDriver(name string) Option {
	return func(s *Store) { s.driver = name }
}

// WithLogger sets the logger used for diagnostics. Defaults to
// slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the wall clock. Used by tests for deterministic
// timestamps.
func WithClock(c Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

// Store persists tagged records in SQLite.
// The handle is opened once and shared by every operation; the store adds
// no locking of its own beyond SQLite's single-writer semantics.
type Store struct {
	db     *sql.DB
	driver string
	logger *slog.Logger
	clock  Clock
}

// Open creates or opens a SQLite database at the given path and ensures
// the records table exists.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//
// This function is idempotent - safe to call multiple times.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{
		driver: DriverMattn,
		logger: slog.Default(),
		clock:  wallClock{},
	}
	for _, opt := range opts {
		opt(s)
	}

	db, err := sql.Open(s.driver, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	s.db = db
	s.logger.Debug("store opened", "path", path, "driver", s.driver)
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Driver returns the database/sql driver name in use.
func (s *Store) Driver() string {
	return s.driver
}

// Count returns the number of stored rows of the given type.
func (s *Store) Count(ctx context.Context, recordType string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE type = ?`, recordType).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
