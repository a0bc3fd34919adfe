package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/learnify/learnify-hub/config"
	"github.com/learnify/learnify-hub/internal/application/eventhandler"
	"github.com/learnify/learnify-hub/internal/application/pricing"
	"github.com/learnify/learnify-hub/internal/application/session"
	"github.com/learnify/learnify-hub/internal/infrastructure/external/pricefeed"
	"github.com/learnify/learnify-hub/internal/infrastructure/external/walletbridge"
	"github.com/learnify/learnify-hub/internal/infrastructure/messaging"
	"github.com/learnify/learnify-hub/internal/infrastructure/scheduler"
	"github.com/learnify/learnify-hub/internal/infrastructure/scheduler/jobs"
	api "github.com/learnify/learnify-hub/internal/interface/http"
	"github.com/learnify/learnify-hub/internal/interface/http/handlers"
	"github.com/learnify/learnify-hub/pkg/circuitbreaker"
	"github.com/learnify/learnify-hub/pkg/logger"
)

func newServeCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with the rollover and price polls",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*envFile)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. LOGGING & METRICS
	// ─────────────────────────────────────────────────────────────────────────
	slogger := setupSlog(cfg)
	appLog := setupLogger(cfg)
	reg := setupMetrics(cfg)

	slogger.Info("starting Learnify",
		"env", string(cfg.App.Environment),
		"version", cfg.App.Version,
		"store", cfg.Store.Driver,
		"timezone", cfg.Streak.Timezone,
	)

	ladder, err := config.LoadTierLadder(cfg.Streak.TiersFile)
	if err != nil {
		return err
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. STORAGE
	// ─────────────────────────────────────────────────────────────────────────
	st, err := openStore(ctx, cfg, slogger)
	if err != nil {
		return err
	}
	defer st.Close()

	board, boardCheck, closeBoard := openLeaderboard(ctx, cfg, slogger)
	defer closeBoard()

	// ─────────────────────────────────────────────────────────────────────────
	// 3. EXTERNAL CAPABILITIES
	// ─────────────────────────────────────────────────────────────────────────
	var onBreaker func(name string, from, to circuitbreaker.State)
	if reg != nil {
		onBreaker = reg.BreakerStateChanged
	}

	feedCfg := pricefeed.DefaultClientConfig(cfg.Prices.FeedURL)
	feedCfg.APIKey = cfg.Prices.APIKey
	feedCfg.Timeout = cfg.Prices.Timeout
	feedBreaker := circuitbreaker.PriceFeedBreaker(onBreaker)
	feedCfg.Breaker = feedBreaker
	feedCfg.Logger = slogger.With("component", "pricefeed")
	feed := pricefeed.NewClient(feedCfg)

	bridgeCfg := walletbridge.DefaultClientConfig(cfg.Wallet.BridgeURL)
	bridgeCfg.Timeout = cfg.Wallet.Timeout
	bridgeBreaker := circuitbreaker.WalletBridgeBreaker(onBreaker)
	bridgeCfg.Breaker = bridgeBreaker
	bridgeCfg.Logger = slogger.With("component", "walletbridge")
	bridge := walletbridge.NewClient(bridgeCfg)

	var (
		trackerMetrics pricing.Metrics
		sessionMetrics session.Metrics
		jobObserver    scheduler.Observer
		httpObserver   api.Observer
		busObserver    messaging.Observer
	)
	if reg != nil {
		trackerMetrics, sessionMetrics, jobObserver, httpObserver, busObserver = reg, reg, reg, reg, reg
	}

	tracker := pricing.NewTracker(feed, pricing.Config{
		Symbols:     cfg.Prices.Symbols,
		HistorySize: cfg.Prices.HistorySize,
		Timeout:     cfg.Prices.Timeout,
	}, trackerMetrics, appLog)

	// ─────────────────────────────────────────────────────────────────────────
	// 4. EVENTS & SESSIONS
	// ─────────────────────────────────────────────────────────────────────────
	busCfg := messaging.DefaultInMemoryEventBusConfig()
	busCfg.Logger = slogger.With("component", "eventbus")
	busCfg.Observer = busObserver
	bus := messaging.NewInMemoryEventBus(busCfg)
	defer bus.Close()

	manager, err := session.NewManager(session.Config{
		FreezeCost:      cfg.Streak.FreezeCost,
		TokensPerDay:    cfg.Streak.TokensPerDay,
		SeedDays:        cfg.Streak.SeedDays,
		SeedActiveRatio: cfg.Streak.SeedActiveRatio,
		Location:        cfg.Streak.Location,
	}, session.Dependencies{
		Repository: st.Repository,
		Ledger:     st.Ledger,
		Ladder:     ladder,
		Board:      board,
		Events:     bus,
		Connectors: bridge.Connectors(),
		Metrics:    sessionMetrics,
		Logger:     appLog,
	})
	if err != nil {
		return err
	}

	if err := eventhandler.NewEventLogger(slogger).Subscribe(bus); err != nil {
		return err
	}
	milestones := eventhandler.NewOnActivityRecordedHandler(board, manager, slogger, eventhandler.DefaultMilestoneConfig())
	if err := milestones.Subscribe(bus); err != nil {
		return err
	}

	restored, err := manager.Restore(ctx)
	if err != nil {
		return err
	}
	slogger.Info("sessions restored", "count", restored)

	// ─────────────────────────────────────────────────────────────────────────
	// 5. SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	sched := scheduler.New(scheduler.Config{
		Logger:   slogger.With("component", "scheduler"),
		Observer: jobObserver,
	})
	if err := registerJobs(sched, cfg, manager, tracker, slogger); err != nil {
		return err
	}

	// First price sample right away; the dashboard should not wait 30s.
	if _, err := tracker.Refresh(ctx); err != nil {
		slogger.Warn("initial price refresh failed", "error", err)
	}

	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := sched.Stop(); err != nil && !errors.Is(err, scheduler.ErrSchedulerNotRunning) {
			slogger.Error("scheduler stop failed", "error", err)
		}
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 6. HTTP API
	// ─────────────────────────────────────────────────────────────────────────
	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	health.SetTimeout(cfg.HTTP.HealthCheckTimeout)
	if st.Pinger != nil {
		health.AddCheck("store", handlers.NewPingCheck(st.Pinger))
	}
	if boardCheck != nil {
		health.AddCheck("redis", boardCheck)
	}

	httpCfg := api.DefaultConfig()
	httpCfg.Addr = cfg.HTTP.Addr
	httpCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	httpCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	httpCfg.APIKeyHashes = cfg.Security.APIKeyHashes
	httpCfg.Version = cfg.App.Version

	deps := api.Dependencies{
		Sessions:      manager,
		Ladder:        ladder,
		Prices:        tracker,
		Board:         board,
		Jobs:          sched,
		Breakers:      []api.Breaker{feedBreaker, bridgeBreaker},
		Observer:      httpObserver,
		HealthChecker: health,
		Logger:        appLog,
	}
	if reg != nil {
		deps.MetricsHandler = reg.Handler()
	}

	server, err := api.NewServer(httpCfg, deps)
	if err != nil {
		return err
	}
	errCh := server.StartAsync()

	// ─────────────────────────────────────────────────────────────────────────
	// 7. WAIT & SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	select {
	case <-ctx.Done():
		slogger.Info("received shutdown signal")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	slogger.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	slogger.Info("shutdown complete")
	return nil
}

// registerJobs adds the rollover poll and the price poll.
func registerJobs(sched *scheduler.Scheduler, cfg *config.Config, manager *session.Manager, tracker *pricing.Tracker, log *slog.Logger) error {
	rolloverEvery, err := scheduler.NewIntervalSchedule(cfg.Streak.RolloverInterval)
	if err != nil {
		return err
	}
	if err := sched.Register(jobs.NewRolloverCheckJob(manager, log.With("job", "rollover_check")), rolloverEvery); err != nil {
		return err
	}

	priceEvery, err := scheduler.NewIntervalSchedule(cfg.Prices.PollInterval)
	if err != nil {
		return err
	}
	return sched.Register(jobs.NewPriceRefreshJob(tracker, log.With("job", "price_refresh")), priceEvery)
}

// ══════════════════════════════════════════════════════════════════════════════
// LOGGING
// ══════════════════════════════════════════════════════════════════════════════

// setupSlog builds the process-wide slog logger used by the scheduler and
// the external clients.
func setupSlog(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	switch logger.ParseLevel(cfg.Observability.LogLevel) {
	case logger.LevelDebug:
		opts.Level = slog.LevelDebug
	case logger.LevelWarn:
		opts.Level = slog.LevelWarn
	case logger.LevelError:
		opts.Level = slog.LevelError
	}

	var handler slog.Handler
	if logger.ParseFormat(cfg.Observability.LogFormat) == logger.FormatText {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	log := slog.New(handler).With("service", cfg.App.Name)
	slog.SetDefault(log)
	return log
}

// setupLogger builds the application logger.
func setupLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	opts.Format = logger.ParseFormat(cfg.Observability.LogFormat)
	opts.AddCaller = !cfg.IsProduction()
	return logger.New(opts).With(logger.String("service", cfg.App.Name))
}
