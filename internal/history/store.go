// Package history keeps summaries of past sweeps.
//
// A Store receives one core.SweepRecord per sweep through the core.Recorder
// interface. File contents are never stored. Two backends exist: an
// in-process ring (MemoryStore) used when no database is configured, and a
// Postgres table (PostgresStore). A retention job prunes old records from
// either.
package history

import (
	"context"
	"time"

	"github.com/JonMunkholm/sweeper/internal/core"
)

// DefaultRecentLimit caps Recent when the caller passes a non-positive limit.
const DefaultRecentLimit = 50

// Store is a sweep history backend.
type Store interface {
	core.Recorder

	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]core.SweepRecord, error)

	// Prune deletes records created before cutoff and returns how many
	// were removed.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultRecentLimit
	}
	return limit
}
