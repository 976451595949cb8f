package ratelimit

import (
	"context"
	"sync"
	"time"
)

// FixedDelay spaces consecutive requests at least Delay apart.
type FixedDelay struct {
	mu    sync.Mutex
	delay time.Duration
	next  time.Time
	now   func() time.Time
}

// NewFixedDelay creates a fixed delay limiter.
func NewFixedDelay(cfg Config) *FixedDelay {
	cfg = applyDefaults(cfg)
	return &FixedDelay{delay: cfg.FixedDelay, now: time.Now}
}

// Wait reserves the next slot and sleeps until it starts.
func (fd *FixedDelay) Wait(ctx context.Context) error {
	fd.mu.Lock()
	now := fd.now()
	slot := now
	if fd.next.After(now) {
		slot = fd.next
	}
	fd.next = slot.Add(fd.delay)
	fd.mu.Unlock()

	wait := slot.Sub(now)
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Allow reports whether a request may start now, reserving the slot if so.
func (fd *FixedDelay) Allow() bool {
	fd.mu.Lock()
	defer fd.mu.Unlock()

	now := fd.now()
	if fd.next.After(now) {
		return false
	}
	fd.next = now.Add(fd.delay)
	return true
}

// Reset forgets the last request.
func (fd *FixedDelay) Reset() {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.next = time.Time{}
}
