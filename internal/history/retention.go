package history

// retention.go runs the background job that prunes old sweep records.
//
// The job runs once on start and then every CheckInterval until the context
// is cancelled. A failed prune is logged and retried on the next tick; it
// never stops the server.

import (
	"context"
	"log/slog"
	"time"
)

// RetentionConfig controls the prune job. Zero values select defaults.
type RetentionConfig struct {
	RetentionDays int           // Days to keep (default: 30)
	CheckInterval time.Duration // How often to run (default: 24h)
}

func (c RetentionConfig) withDefaults() RetentionConfig {
	if c.RetentionDays <= 0 {
		c.RetentionDays = 30
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = 24 * time.Hour
	}
	return c
}

// StartRetention blocks, pruning store periodically until ctx is done.
// Run it in its own goroutine.
func StartRetention(ctx context.Context, store Store, cfg RetentionConfig) {
	cfg = cfg.withDefaults()

	slog.Info("history retention started",
		"retention_days", cfg.RetentionDays,
		"check_interval", cfg.CheckInterval.String(),
	)

	runRetention(ctx, store, cfg, time.Now())

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("history retention stopped")
			return
		case now := <-ticker.C:
			runRetention(ctx, store, cfg, now)
		}
	}
}

// runRetention performs one prune pass relative to now.
func runRetention(ctx context.Context, store Store, cfg RetentionConfig, now time.Time) int64 {
	start := time.Now()
	cutoff := now.AddDate(0, 0, -cfg.RetentionDays)

	pruned, err := store.Prune(ctx, cutoff)
	if err != nil {
		slog.Error("history prune failed", "error", err)
		return 0
	}

	slog.Info("pruned sweep history",
		"records_pruned", pruned,
		"cutoff", cutoff.Format(time.RFC3339),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return pruned
}
