// Package pgsink is a reference Processor implementation: it persists
// the records it is handed to Postgres via pgx, the way a real deployment of
// the runner would wire a durable side effect behind the handler.
package pgsink

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool builds a pgx connection pool from dsn. maxConns, when
// positive, overrides the pool's default size. The pool's connections
// are bounded in lifetime to avoid piling up stale connections behind
// a long-lived load balancer, and Ping is called once up front so a
// bad DSN or unreachable server fails at startup instead of on the
// first sink write.
func NewPool(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if pingErr := pool.Ping(ctx); pingErr != nil {
		pool.Close()
		return nil, pingErr
	}

	return pool, nil
}
