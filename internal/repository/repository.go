// Package repository provides the PostgreSQL storage layer.
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Default pool bounds.
const (
	DefaultMaxConns int32 = 10
	DefaultMinConns int32 = 2
)

// Repository stores users, projects and tasks in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// Option adjusts the pool configuration before connecting.
type Option func(*pgxpool.Config)

// WithPoolSize bounds the number of pooled connections. Non-positive values
// keep the defaults.
func WithPoolSize(maxConns, minConns int32) Option {
	return func(c *pgxpool.Config) {
		if maxConns > 0 {
			c.MaxConns = maxConns
		}
		if minConns > 0 {
			c.MinConns = min(minConns, c.MaxConns)
		}
	}
}

// New connects to databaseURL and verifies the connection.
func New(ctx context.Context, databaseURL string, opts ...Option) (*Repository, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	config.MaxConns = DefaultMaxConns
	config.MinConns = DefaultMinConns
	for _, opt := range opts {
		opt(config)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{pool: pool}, nil
}

// Ping checks database connectivity. It backs /readyz.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close releases every pooled connection.
func (r *Repository) Close() {
	r.pool.Close()
}

// Pool exposes the pool to schema helpers in tests.
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}

// inTx runs fn in a read-committed transaction and commits when fn returns nil.
func (r *Repository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
