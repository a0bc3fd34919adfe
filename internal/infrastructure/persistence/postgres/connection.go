// Package postgres implements the PostgreSQL persistence layer for Learnify:
// activity logs, freeze state and spendable balances.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrConnectionClosed is returned once Close has been called.
var ErrConnectionClosed = errors.New("postgres: connection pool is closed")

// ══════════════════════════════════════════════════════════════════════════════
// POOL
// ══════════════════════════════════════════════════════════════════════════════

// PoolOptions tunes the pgx pool. Zero fields keep what the database URL
// (or pgx) already chose.
type PoolOptions struct {
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

// DefaultPoolOptions returns the pool settings used when none are configured.
func DefaultPoolOptions() PoolOptions {
	return PoolOptions{
		MaxConns:          10,
		MinConns:          2,
		MaxConnLifetime:   time.Hour,
		MaxConnIdleTime:   30 * time.Minute,
		HealthCheckPeriod: time.Minute,
	}
}

// poolConfig parses databaseURL and layers opts on top.
func poolConfig(databaseURL string, opts PoolOptions) (*pgxpool.Config, error) {
	if opts.MinConns > 0 && opts.MaxConns > 0 && opts.MinConns > opts.MaxConns {
		return nil, fmt.Errorf("postgres: min conns %d exceeds max conns %d", opts.MinConns, opts.MaxConns)
	}

	pc, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to parse database URL: %w", err)
	}
	if opts.MaxConns > 0 {
		pc.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		pc.MinConns = opts.MinConns
	}
	if opts.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = opts.MaxConnLifetime
	}
	if opts.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = opts.MaxConnIdleTime
	}
	if opts.HealthCheckPeriod > 0 {
		pc.HealthCheckPeriod = opts.HealthCheckPeriod
	}
	return pc, nil
}

// Connection is a pgx pool that refuses work after Close.
type Connection struct {
	pool   *pgxpool.Pool
	closed bool
	mu     sync.RWMutex
}

// Open creates the pool for databaseURL and verifies it with a ping.
func Open(ctx context.Context, databaseURL string, opts PoolOptions) (*Connection, error) {
	pc, err := poolConfig(databaseURL, opts)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: failed to ping database: %w", err)
	}
	return &Connection{pool: pool}, nil
}

// Close closes the pool. Later calls are no-ops.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.pool.Close()
}

// Ping checks if the database connection is alive.
func (c *Connection) Ping(ctx context.Context) error {
	pool, err := c.open()
	if err != nil {
		return err
	}
	return pool.Ping(ctx)
}

func (c *Connection) open() (*pgxpool.Pool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, ErrConnectionClosed
	}
	return c.pool, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// QUERIES
// ══════════════════════════════════════════════════════════════════════════════

// inTx runs fn in a read-committed transaction, committing when fn returns nil.
func (c *Connection) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	pool, err := c.open()
	if err != nil {
		return err
	}
	return pgx.BeginTxFunc(ctx, pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, fn)
}

func (c *Connection) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	pool, err := c.open()
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	return pool.Exec(ctx, sql, args...)
}

func (c *Connection) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	pool, err := c.open()
	if err != nil {
		return nil, err
	}
	return pool.Query(ctx, sql, args...)
}

func (c *Connection) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	pool, err := c.open()
	if err != nil {
		return errRow{err}
	}
	return pool.QueryRow(ctx, sql, args...)
}

// errRow reports err from Scan, like a pgx.Row whose query failed.
type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
