package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chrisdamba/tillmetrics/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    category   TEXT NOT NULL,
    price      NUMERIC(10, 2) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS orders (
    id                TEXT PRIMARY KEY,
    placed_at         TIMESTAMPTZ NOT NULL,
    customer_name     TEXT NOT NULL DEFAULT '',
    mode              TEXT NOT NULL,
    table_number      INTEGER,
    items             JSONB NOT NULL DEFAULT '[]',
    subtotal          NUMERIC(12, 2) NOT NULL,
    tax               NUMERIC(12, 2) NOT NULL,
    discount          NUMERIC(12, 2) NOT NULL,
    total             NUMERIC(12, 2) NOT NULL,
    payment_method    TEXT NOT NULL,
    status            TEXT NOT NULL,
    prep_time_minutes INTEGER NOT NULL DEFAULT 0,
    created_at        TIMESTAMPTZ NOT NULL,
    completed_at      TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS orders_placed_at_idx ON orders (placed_at);
`

// NewPool opens a pool for cfg and checks the connection.
func NewPool(ctx context.Context, cfg models.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}
	return pool, nil
}

func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}
