package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the query surface shared by *pgxpool.Pool and pgxmock pools.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Options describes the console's Postgres pool. Only URL is required.
type Options struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	ConnectAttempts int
	Logger          *slog.Logger
}

const (
	defaultConnectAttempts = 3
	connectBaseWait        = time.Second
)

type DB struct {
	Pool *pgxpool.Pool
}

// New opens the pool and waits for the first successful ping. Connection
// errors are retried with 1s/2s/4s backoff; anything else fails at once.
func New(ctx context.Context, opts Options) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		cfg.MinConns = opts.MinConns
	}
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	attempts := opts.ConnectAttempts
	if attempts <= 0 {
		attempts = defaultConnectAttempts
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	for attempt := 0; ; attempt++ {
		err = pool.Ping(ctx)
		if err == nil {
			break
		}
		if attempt+1 >= attempts || !retryable(err) {
			pool.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}

		wait := backoff(attempt)
		log.Warn("database not reachable yet, retrying",
			"attempt", attempt+1,
			"wait", wait.String(),
			"error", err.Error(),
		)
		select {
		case <-ctx.Done():
			pool.Close()
			return nil, fmt.Errorf("ping database: %w", ctx.Err())
		case <-time.After(wait):
		}
	}

	log.Info("database connected", "max_conns", cfg.MaxConns, "min_conns", cfg.MinConns)
	return &DB{Pool: pool}, nil
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	return pgconn.SafeToRetry(err)
}

// backoff doubles from one second with a quarter of jitter either way.
func backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := connectBaseWait << attempt
	jitter := time.Duration(float64(base) * 0.25 * (2*rand.Float64() - 1)) // #nosec G404
	return base + jitter
}

func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

func (db *DB) Health(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}
