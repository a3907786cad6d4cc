package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/internship-ingest/internal/entity"
)

// NewPool opens a connection pool and verifies the database answers.
func NewPool(ctx context.Context, connString string, maxConns int) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = int32(maxConns)
	}
	cfg.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to connect to database: %w", entity.ErrStoreUnavailable, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: database unreachable: %w", entity.ErrStoreUnavailable, err)
	}
	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS internships (
	id         BIGSERIAL PRIMARY KEY,
	title      TEXT NOT NULL,
	company    TEXT,
	location   TEXT NOT NULL,
	url        TEXT NOT NULL UNIQUE,
	source     TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS crawl_runs (
	id          TEXT PRIMARY KEY,
	query       TEXT NOT NULL,
	location    TEXT NOT NULL,
	status      TEXT NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ,
	outcomes    JSONB NOT NULL DEFAULT '[]',
	candidates  INTEGER NOT NULL DEFAULT 0,
	inserted    INTEGER NOT NULL DEFAULT 0,
	error       TEXT NOT NULL DEFAULT ''
);`

// EnsureSchema creates the tables the service writes to when they do not exist yet.
// The UNIQUE constraint on internships.url is what enforces listing deduplication.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("%w: ensure schema: %w", entity.ErrStoreUnavailable, err)
	}
	return nil
}
