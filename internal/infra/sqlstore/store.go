// Package sqlstore persists leads, partners and matches in a relational
// database through database/sql. Postgres (pgx) is used in production and
// SQLite (modernc) for local runs and tests.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // postgres driver "pgx"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // sqlite driver "sqlite"

	"github.com/hoclconnect/leads/internal/infra/resilience"
	"github.com/hoclconnect/leads/internal/port"
)

var tracer = otel.Tracer("sqlstore")

// Store implements port.LeadStore, port.PartnerStore and port.MatchStore.
type Store struct {
	db      *sql.DB
	dialect Dialect
	logger  *zap.Logger

	now   func() time.Time
	newID func() string
}

var (
	_ port.LeadStore    = (*Store)(nil)
	_ port.PartnerStore = (*Store)(nil)
	_ port.MatchStore   = (*Store)(nil)
	_ port.LeadStore    = (*Guarded)(nil)
)

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the id source.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// New wraps an open database handle.
func New(db *sql.DB, dialect Dialect, logger *zap.Logger, opts ...Option) *Store {
	s := &Store{
		db:      db,
		dialect: dialect,
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenConfig describes how to reach the database.
type OpenConfig struct {
	Dialect      Dialect
	DSN          string // postgres URL or SQLite file path
	MaxOpenConns int
	Retry        resilience.Config
}

// Open connects with retry, tunes the pool and pings the database.
func Open(ctx context.Context, cfg OpenConfig, logger *zap.Logger, opts ...Option) (*Store, error) {
	dsn := cfg.DSN
	if cfg.Dialect == DialectSQLite {
		dsn = sqliteDSN(cfg.DSN)
	}

	var db *sql.DB
	attempt := 0
	err := resilience.RetryWithBackoff(ctx, cfg.Retry, func() error {
		attempt++
		conn, err := sql.Open(cfg.Dialect.driverName(), dsn)
		if err != nil {
			return err
		}
		configurePool(conn, cfg)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := conn.PingContext(pingCtx); err != nil {
			conn.Close()
			logger.Warn("database ping failed",
				zap.String("dialect", string(cfg.Dialect)),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return err
		}
		db = conn
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Dialect, err)
	}

	logger.Info("database connected",
		zap.String("dialect", string(cfg.Dialect)),
		zap.Int("attempts", attempt),
	)
	return New(db, cfg.Dialect, logger, opts...), nil
}

func configurePool(db *sql.DB, cfg OpenConfig) {
	if cfg.Dialect == DialectSQLite {
		// one writer at a time avoids SQLITE_BUSY under concurrent inserts
		db.SetMaxOpenConns(1)
		return
	}
	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 10
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen / 2)
	db.SetConnMaxLifetime(5 * time.Minute)
}

func sqliteDSN(path string) string {
	return path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Ping checks database reachability.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Dialect returns the SQL dialect in use.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// timestamp returns the current time at the precision both dialects keep.
func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}
