package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/sweeper/internal/config"
	"github.com/JonMunkholm/sweeper/internal/core"
	_ "github.com/JonMunkholm/sweeper/internal/core/formats" // Register all formats
	"github.com/JonMunkholm/sweeper/internal/history"
	"github.com/JonMunkholm/sweeper/internal/logging"
	"github.com/JonMunkholm/sweeper/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"history_enabled", cfg.History.Enabled,
		"database", cfg.Database.Enabled(),
	)

	registry := core.DefaultRegistry()
	if t := cfg.Upload.DefaultTarget; t != "" {
		if _, ok := registry.Lookup(t); !ok {
			slog.Error("unknown default target format", "target", t)
			os.Exit(1)
		}
	}

	ctx := context.Background()

	store, closeStore, err := openHistory(ctx, cfg)
	if err != nil {
		slog.Error("failed to open sweep history", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	limiter := core.NewSweepLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime)
	opts := core.ServiceOptions{
		Registry: registry,
		Limiter:  limiter,
		Timeout:  cfg.Upload.Timeout,
	}
	if store != nil {
		opts.Recorder = store
	}
	service := core.NewService(opts)

	slog.Info("formats registered", "count", registry.Count())
	for _, c := range registry.All() {
		slog.Debug("format", "format", c.Format, "read", c.CanRead(), "write", c.CanWrite())
	}

	server := web.NewServer(service, store, cfg)

	// Cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())

	if store != nil {
		go history.StartRetention(jobCtx, store, history.RetentionConfig{
			RetentionDays: cfg.History.RetentionDays,
			CheckInterval: cfg.History.CheckInterval,
		})
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for in-flight sweeps to finish (with timeout)
		if active := limiter.ActiveCount(); active > 0 {
			slog.Info("waiting for sweeps to complete", "active", active)
			if err := limiter.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("sweeps did not complete in time", "error", err)
			} else {
				slog.Info("all sweeps completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}

// openHistory picks the history backend: Postgres when a database URL is
// configured, otherwise an in-memory ring. It returns a nil store when
// history is disabled.
func openHistory(ctx context.Context, cfg *config.Config) (history.Store, func(), error) {
	noop := func() {}
	if !cfg.History.Enabled {
		return nil, noop, nil
	}
	if !cfg.Database.Enabled() {
		slog.Info("using in-memory sweep history", "capacity", cfg.History.Capacity)
		return history.NewMemoryStore(cfg.History.Capacity), noop, nil
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, noop, err
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, noop, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, noop, err
	}

	// Log which database we connected to
	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}

	store, err := history.NewPostgresStore(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, noop, err
	}
	return store, pool.Close, nil
}
