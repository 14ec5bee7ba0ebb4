package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tally/internal/kv"
	applog "tally/internal/log"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL driver and placeholder style.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

func (d Dialect) driverName() string {
	return string(d)
}

func (d Dialect) IsValid() bool {
	return d == SQLite || d == Postgres
}

// Store keeps each slot as one row of kv_slots.
type Store struct {
	db       *sql.DB
	dialect  Dialect
	getQuery string
	setQuery string
	logger   *applog.Logger
}

type Option func(*Store)

func WithLogger(l *applog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l.WithComponent(applog.ComponentStore)
		}
	}
}

var (
	_ kv.Store  = (*Store)(nil)
	_ kv.Closer = (*Store)(nil)
)

// Open connects, runs migrations and returns a ready store. For SQLite the
// dsn is a file path whose directory is created if needed.
func Open(dialect Dialect, dsn string, opts ...Option) (*Store, error) {
	if !dialect.IsValid() {
		return nil, fmt.Errorf("unsupported dialect: %s", dialect)
	}
	if dialect == SQLite {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}

	if dialect == Postgres {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dialect, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	get, set := queries(dialect)
	s := &Store{db: db, dialect: dialect, getQuery: get, setQuery: set, logger: applog.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func queries(dialect Dialect) (get, set string) {
	if dialect == Postgres {
		return `SELECT payload FROM kv_slots WHERE name = $1`,
			`INSERT INTO kv_slots (name, payload, updated_at) VALUES ($1, $2, NOW())
ON CONFLICT (name) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`
	}
	return `SELECT payload FROM kv_slots WHERE name = ?`,
		`INSERT INTO kv_slots (name, payload, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`
}

// Get implements kv.Store
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, s.getQuery, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get slot %s: %w", key, err)
	}
	return []byte(payload), nil
}

// Set implements kv.Store
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, s.setQuery, key, string(value)); err != nil {
		return fmt.Errorf("set slot %s: %w", key, err)
	}
	s.logger.DebugContext(ctx, "Slot written",
		applog.FieldStoreKey, key,
		applog.FieldBackend, string(s.dialect),
		"bytes", len(value))
	return nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
