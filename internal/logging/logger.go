// Package logging configures log/slog for the server and the CLI and carries
// per-request and per-sweep identifiers into log entries.
//
// Entries logged through FromContext pick up chi's request id and, once a
// sweep has started, its sweep id, so one upload can be followed from the
// HTTP access line down to the history write.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// Setup installs the default logger for the server, writing to stdout.
// Use "json" format in production and "text" during development.
func Setup(level, format string) {
	lvl, err := ParseLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(New(os.Stdout, lvl, format))
}

// New builds a logger writing to w in "json" or "text" (default) format.
// The CLI passes stderr so cleaned output on stdout stays pipeable.
func New(w io.Writer, level slog.Leveler, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel maps debug, info, warn (or warning) and error to a slog level.
// An empty string is info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log level %q (must be debug, info, warn, or error)", level)
}

type sweepIDKey struct{}

// WithSweepID returns a context whose loggers tag entries with sweep_id.
func WithSweepID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sweepIDKey{}, id)
}

// SweepID returns the sweep id stored by WithSweepID, if any.
func SweepID(ctx context.Context) string {
	id, _ := ctx.Value(sweepIDKey{}).(string)
	return id
}

// FromContext returns the default logger with request_id and sweep_id
// attached when ctx carries them.
//
//	func handleSweep(w http.ResponseWriter, r *http.Request) {
//	    log := logging.FromContext(r.Context())
//	    log.Info("upload received", "file", header.Filename)
//	}
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	// Chi's RequestID middleware stores the ID in context
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	if id := SweepID(ctx); id != "" {
		logger = logger.With("sweep_id", id)
	}

	return logger
}

// WithFields is FromContext plus extra attributes.
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
