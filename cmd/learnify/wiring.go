package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/learnify/learnify-hub/config"
	"github.com/learnify/learnify-hub/internal/domain/leaderboard"
	"github.com/learnify/learnify-hub/internal/domain/ledger"
	"github.com/learnify/learnify-hub/internal/domain/streak"
	"github.com/learnify/learnify-hub/internal/infrastructure/metrics"
	"github.com/learnify/learnify-hub/internal/infrastructure/persistence/memory"
	"github.com/learnify/learnify-hub/internal/infrastructure/persistence/postgres"
	"github.com/learnify/learnify-hub/internal/infrastructure/persistence/redis"
	"github.com/learnify/learnify-hub/internal/infrastructure/persistence/sqlite"
	"github.com/learnify/learnify-hub/internal/interface/http/handlers"
	"github.com/learnify/learnify-hub/pkg/retry"
)

// store bundles the streak repository and the spendable ledger of one driver.
type store struct {
	Repository streak.Repository
	Ledger     ledger.Ledger

	// Pinger is nil for the in-memory driver.
	Pinger handlers.Pinger

	close func()
}

// Close releases the driver's connections.
func (s store) Close() {
	if s.close != nil {
		s.close()
	}
}

// openStore opens the configured store driver. PostgreSQL migrations are
// applied on startup; SQLite creates its schema on open.
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (store, error) {
	opening := cfg.Streak.OpeningBalance

	switch cfg.Store.Driver {
	case config.DriverPostgres:
		conn, err := connectPostgres(ctx, cfg, log)
		if err != nil {
			return store{}, err
		}
		if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
			conn.Close()
			return store{}, fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("database schema is up to date")

		return store{
			Repository: postgres.NewStreakRepository(conn),
			Ledger:     postgres.NewLedger(conn, opening),
			Pinger:     conn,
			close:      conn.Close,
		}, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return store{}, err
		}
		log.Info("sqlite store opened", "path", cfg.Store.SQLitePath)

		return store{
			Repository: sqlite.NewStreakRepository(db),
			Ledger:     sqlite.NewLedger(db, opening),
			Pinger:     db,
			close: func() {
				if err := db.Close(); err != nil {
					log.Warn("failed to close sqlite store", "error", err)
				}
			},
		}, nil

	default:
		log.Warn("using in-memory store; state is lost on restart")
		return store{
			Repository: memory.NewStreakRepository(),
			Ledger:     memory.NewLedger(opening),
		}, nil
	}
}

// connectPostgres opens the pool and verifies it.
func connectPostgres(ctx context.Context, cfg *config.Config, log *slog.Logger) (*postgres.Connection, error) {
	log.Info("connecting to database...")
	retryCfg := retry.DefaultConfig()
	retryCfg.Logger = log

	pool := postgres.PoolOptions{
		MaxConns:        int32(cfg.Store.MaxConns),
		MinConns:        int32(cfg.Store.MinConns),
		MaxConnLifetime: cfg.Store.MaxConnLifetime,
		MaxConnIdleTime: cfg.Store.MaxConnIdleTime,
	}

	conn, err := retry.DoWithData(ctx, "postgres", retryCfg, func(ctx context.Context) (*postgres.Connection, error) {
		conn, err := postgres.Open(ctx, cfg.Store.DatabaseURL, pool)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := conn.Ping(ctx); err != nil {
			conn.Close()
			return nil, fmt.Errorf("database ping failed: %w", err)
		}
		return conn, nil
	})
	if err != nil {
		return nil, err
	}
	log.Info("database connection established")
	return conn, nil
}

// openLeaderboard uses Redis when configured and reachable, otherwise an
// in-process board. The returned health check is nil without Redis.
func openLeaderboard(ctx context.Context, cfg *config.Config, log *slog.Logger) (leaderboard.Board, handlers.HealthCheckFunc, func()) {
	if !cfg.Redis.Enabled() {
		return memory.NewLeaderboard(), nil, func() {}
	}

	log.Info("connecting to Redis...")
	redisCfg := redis.DefaultConfig()
	redisCfg.Addr = cfg.Redis.Addr
	redisCfg.Password = cfg.Redis.Password
	redisCfg.DB = cfg.Redis.DB

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = 3
	retryCfg.Logger = log

	cache, err := retry.DoWithData(ctx, "redis", retryCfg, func(context.Context) (*redis.Cache, error) {
		return redis.NewCache(redisCfg)
	})
	if err != nil {
		log.Warn("failed to connect to Redis, leaderboard kept in memory", "error", err)
		return memory.NewLeaderboard(), nil, func() {}
	}
	log.Info("Redis connection established")

	closeFn := func() {
		if err := cache.Close(); err != nil {
			log.Warn("failed to close Redis", "error", err)
		}
	}
	return redis.NewLeaderboard(cache, "tokens"), handlers.NewPingCheck(cache), closeFn
}

// setupMetrics returns nil when metrics are disabled.
func setupMetrics(cfg *config.Config) *metrics.Metrics {
	if !cfg.Observability.MetricsEnabled {
		return nil
	}
	return metrics.New()
}
