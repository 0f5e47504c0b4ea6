package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Client manages a pgx connection pool.
type Client struct {
	pool *pgxpool.Pool
}

// NewClient opens a pool against dsn and verifies connectivity.
func NewClient(ctx context.Context, dsn string) (*Client, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pgx config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return &Client{pool: pool}, nil
}

// Pool returns the underlying pool for direct use.
func (c *Client) Pool() *pgxpool.Pool {
	return c.pool
}

// Health performs a connectivity check.
func (c *Client) Health(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

// Close releases the pool.
func (c *Client) Close() {
	if c != nil && c.pool != nil {
		c.pool.Close()
	}
}
