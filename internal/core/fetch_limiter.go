package core

// fetch_limiter.go bounds how many feed files are fetched and parsed at once
// across all callers. A cache hit never takes a slot.

import (
	"context"
	"sync/atomic"
	"time"
)

const (
	// DefaultMaxConcurrentFetches is the default number of parallel feed loads.
	DefaultMaxConcurrentFetches = 4

	// DefaultFetchWait is how long a load waits for a slot before giving up.
	DefaultFetchWait = 10 * time.Second
)

// FetchLimiter is a semaphore with a bounded wait.
type FetchLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int64
}

// NewFetchLimiter allows maxConcurrent loads; waiters give up after maxWait
// with ErrTooManyFetches.
func NewFetchLimiter(maxConcurrent int, maxWait time.Duration) *FetchLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentFetches
	}
	if maxWait <= 0 {
		maxWait = DefaultFetchWait
	}
	return &FetchLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire takes a slot. The caller must Release it.
func (l *FetchLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-timer.C:
		return ErrTooManyFetches
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a slot taken by Acquire.
func (l *FetchLimiter) Release() {
	l.active.Add(-1)
	<-l.slots
}

// FetchLimiterStatus is a snapshot for health endpoints.
type FetchLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"maxConcurrent"`
}

// Status returns the limiter's current state.
func (l *FetchLimiter) Status() FetchLimiterStatus {
	return FetchLimiterStatus{
		Active:        int(l.active.Load()),
		Available:     cap(l.slots) - len(l.slots),
		MaxConcurrent: cap(l.slots),
	}
}

// WaitForDrain blocks until no load holds a slot or ctx ends.
func (l *FetchLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for l.active.Load() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
