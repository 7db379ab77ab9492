// Package sqlstore implements ports.KeyValueStore on a SQL database through
// sqlx. SQLite (mattn/go-sqlite3) is the default; PostgreSQL (lib/pq) is
// supported for shared deployments.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // postgres driver
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver

	"github.com/jsamuelsen/quote-generator/internal/domain"
	"github.com/jsamuelsen/quote-generator/internal/platform/logging"
	"github.com/jsamuelsen/quote-generator/internal/ports"
)

// Supported drivers, as named in configuration.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv_entries (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

const (
	getQuery    = `SELECT value FROM kv_entries WHERE key = ?`
	upsertQuery = `INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	deleteQuery = `DELETE FROM kv_entries WHERE key = ?`
)

// Config configures the SQL store.
type Config struct {
	// Driver is "sqlite" or "postgres".
	Driver string

	// DSN is the data source name. For sqlite it is a file path, optionally
	// with query parameters.
	DSN string

	// Logger is the logger for store events. Defaults to slog.Default().
	Logger *slog.Logger
}

// Store is a SQL-backed key-value store.
type Store struct {
	db     *sqlx.DB
	driver string
	logger *slog.Logger

	get    string
	upsert string
	del    string
}

// Compile-time interface checks.
var (
	_ ports.KeyValueStore = (*Store)(nil)
	_ ports.HealthChecker = (*Store)(nil)
)

// Open connects to the database and ensures the schema exists.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	driverName, dsn, err := driverFor(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Driver == DriverSQLite {
		if err := ensureParentDir(cfg.DSN); err != nil {
			return nil, err
		}
	}

	db, err := sqlx.ConnectContext(ctx, driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", cfg.Driver, err)
	}

	if cfg.Driver == DriverSQLite {
		// SQLite allows a single writer; a shared connection avoids busy errors.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		db:     db,
		driver: cfg.Driver,
		logger: logger.With(slog.String("component", "sql_store"), slog.String("driver", cfg.Driver)),
		get:    db.Rebind(getQuery),
		upsert: db.Rebind(upsertQuery),
		del:    db.Rebind(deleteQuery),
	}, nil
}

func driverFor(cfg Config) (driverName, dsn string, err error) {
	switch cfg.Driver {
	case DriverSQLite:
		if cfg.DSN == "" {
			return "", "", errors.New("sqlite dsn is required")
		}

		return "sqlite3", sqliteDSN(cfg.DSN), nil
	case DriverPostgres:
		if cfg.DSN == "" {
			return "", "", errors.New("postgres dsn is required")
		}

		return "postgres", cfg.DSN, nil
	default:
		return "", "", fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

// ensureParentDir creates the directory holding a sqlite database file.
// In-memory and URI-style names are left alone.
func ensureParentDir(dsn string) error {
	path, _, _ := strings.Cut(dsn, "?")
	if path == "" || strings.HasPrefix(path, ":memory:") || strings.HasPrefix(path, "file:") {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating sqlite directory %q: %w", dir, err)
	}

	return nil
}

// sqliteDSN enables WAL and a busy timeout unless the caller passed options.
func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}

	return path + "?_journal_mode=WAL&_busy_timeout=5000"
}

// Get implements ports.KeyValueStore.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var value string

	err := s.db.GetContext(ctx, &value, s.get, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.NewNotFoundError("key", key)
	}

	if err != nil {
		return "", fmt.Errorf("reading %q: %w", key, err)
	}

	return value, nil
}

// Set implements ports.KeyValueStore.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, s.upsert, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("writing %q: %w", key, err)
	}

	logging.FromContext(ctx).Log(ctx, logging.LevelTrace, "kv entry written",
		slog.String("key", key),
		slog.Int("bytes", len(value)),
	)

	return nil
}

// Delete implements ports.KeyValueStore.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.del, key); err != nil {
		return fmt.Errorf("deleting %q: %w", key, err)
	}

	return nil
}

// Name implements ports.HealthChecker.
func (s *Store) Name() string {
	return "quote-store-" + s.driver
}

// Check implements ports.HealthChecker.
func (s *Store) Check(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database handle.
func (s *Store) Close() error {
	s.logger.Info("closing sql store")
	return s.db.Close()
}
