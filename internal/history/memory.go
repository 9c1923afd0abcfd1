package history

import (
	"context"
	"sync"
	"time"

	"github.com/JonMunkholm/sweeper/internal/core"
)

// DefaultMemoryCapacity is the ring size used when none is given.
const DefaultMemoryCapacity = 1000

// MemoryStore holds the most recent records in a fixed-size ring. When full,
// the oldest record is overwritten.
type MemoryStore struct {
	mu    sync.RWMutex
	buf   []core.SweepRecord
	next  int // slot the next record goes into
	count int
}

// NewMemoryStore creates a ring holding at most capacity records.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryStore{buf: make([]core.SweepRecord, capacity)}
}

// Record stores rec, evicting the oldest record when the ring is full.
func (m *MemoryStore) Record(ctx context.Context, rec core.SweepRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.buf[m.next] = rec
	m.next = (m.next + 1) % len(m.buf)
	if m.count < len(m.buf) {
		m.count++
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (m *MemoryStore) Recent(ctx context.Context, limit int) ([]core.SweepRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit = normalizeLimit(limit)

	m.mu.RLock()
	defer m.mu.RUnlock()

	n := min(limit, m.count)
	out := make([]core.SweepRecord, 0, n)
	for i := 1; i <= n; i++ {
		idx := (m.next - i + len(m.buf)) % len(m.buf)
		out = append(out, m.buf[idx])
	}
	return out, nil
}

// Prune drops every record created before cutoff.
func (m *MemoryStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Walk oldest to newest and keep survivors in order.
	kept := make([]core.SweepRecord, 0, m.count)
	start := (m.next - m.count + len(m.buf)) % len(m.buf)
	for i := 0; i < m.count; i++ {
		rec := m.buf[(start+i)%len(m.buf)]
		if !rec.CreatedAt.Before(cutoff) {
			kept = append(kept, rec)
		}
	}

	removed := int64(m.count - len(kept))
	clear(m.buf)
	copy(m.buf, kept)
	m.count = len(kept)
	m.next = len(kept) % len(m.buf)
	return removed, nil
}

// Len returns how many records are held.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.count
}
