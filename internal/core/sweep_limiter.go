package core

// sweep_limiter.go bounds how many sweeps run at once.
//
// Each sweep buffers its whole upload, the parsed table, the cleaned copy and
// the encoded output, so memory grows with the number of parallel sweeps.
// The limiter hands out a fixed number of slots; a request that cannot get
// one within maxWait fails with ErrTooManySweeps. WaitForDrain lets the
// server finish in-flight sweeps on shutdown.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManySweeps is returned when no slot frees up within the wait time.
var ErrTooManySweeps = errors.New("too many concurrent sweeps, please try again later")

// DefaultMaxConcurrentSweeps is used when the configured limit is not positive.
const DefaultMaxConcurrentSweeps = 5

// DefaultMaxWaitTime is how long Acquire waits for a slot by default.
const DefaultMaxWaitTime = 30 * time.Second

// SweepLimiter is a counting semaphore with drain support.
type SweepLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu      sync.Mutex
	active  int
	drained chan struct{} // closed whenever active == 0
}

// NewSweepLimiter allows at most maxConcurrent sweeps at a time.
func NewSweepLimiter(maxConcurrent int, maxWait time.Duration) *SweepLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentSweeps
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	drained := make(chan struct{})
	close(drained)

	return &SweepLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
		drained: drained,
	}
}

// Acquire blocks until a slot is free, ctx is done, or maxWait elapses.
// The returned release func must be called once the sweep finishes; extra
// calls are no-ops.
func (l *SweepLimiter) Acquire(ctx context.Context) (func(), error) {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		return l.enter(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrTooManySweeps
	}
}

// TryAcquire takes a slot only if one is free right now.
func (l *SweepLimiter) TryAcquire() (func(), bool) {
	select {
	case l.slots <- struct{}{}:
		return l.enter(), true
	default:
		return nil, false
	}
}

func (l *SweepLimiter) enter() func() {
	l.mu.Lock()
	if l.active == 0 {
		l.drained = make(chan struct{})
	}
	l.active++
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(l.leave)
	}
}

func (l *SweepLimiter) leave() {
	l.mu.Lock()
	l.active--
	if l.active == 0 {
		close(l.drained)
	}
	l.mu.Unlock()

	<-l.slots
}

// ActiveCount returns the number of sweeps holding a slot.
func (l *SweepLimiter) ActiveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// MaxConcurrent returns the slot count.
func (l *SweepLimiter) MaxConcurrent() int {
	return cap(l.slots)
}

// WaitForDrain blocks until no sweep holds a slot or ctx is done.
func (l *SweepLimiter) WaitForDrain(ctx context.Context) error {
	l.mu.Lock()
	drained := l.drained
	l.mu.Unlock()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LimiterStatus is a point-in-time view of the limiter.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state for monitoring.
func (l *SweepLimiter) Status() LimiterStatus {
	active := l.ActiveCount()
	return LimiterStatus{
		Active:        active,
		Available:     cap(l.slots) - active,
		MaxConcurrent: cap(l.slots),
	}
}
