// Package db provides the Postgres pool abstraction and shared helpers used
// by the store.
package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/ocr-bench/internal/resilience"
)

// Pool is the subset of *pgxpool.Pool used by this module. It is satisfied
// by pgxmock.PgxPoolIface in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Ping(ctx context.Context) error
}

// ConnectConfig holds pool sizing and startup retry settings.
type ConnectConfig struct {
	MaxConns int32
	Retry    resilience.RetryConfig
}

// Connect opens a pgxpool and pings it, retrying transient failures such as
// a database that is still starting up.
func Connect(ctx context.Context, connString string, cfg ConnectConfig) (*pgxpool.Pool, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "db: parse config")
	}

	maxConns := int32(4)
	if cfg.MaxConns > 0 {
		maxConns = cfg.MaxConns
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "db: create pool")
	}

	retry := cfg.Retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.LogRetries("postgres")
	}
	if err := Ping(ctx, pool, retry); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// Ping checks connectivity with the given retry policy.
func Ping(ctx context.Context, pool Pool, retry resilience.RetryConfig) error {
	err := resilience.Do(ctx, retry, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	return eris.Wrap(err, "db: ping")
}
