package ratelimit

import (
	"context"
	"sync"
	"time"
)

type windowCounter struct {
	count int
	start time.Time
}

// MemoryLimiter keeps fixed-window counters in process memory.  Counters do
// not survive a restart and are not shared across instances; acceptable for
// a single-instance deployment and for tests.
type MemoryLimiter struct {
	window time.Duration
	mu     sync.Mutex
	byKey  map[string]*windowCounter

	// now is swappable so tests can step through windows without sleeping.
	now func() time.Time
}

func NewMemoryLimiter(window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		window: window,
		byKey:  make(map[string]*windowCounter),
		now:    time.Now,
	}
}

// counterLocked returns the live counter for key, resetting it when the
// window has elapsed.  Callers must hold the mutex.
func (l *MemoryLimiter) counterLocked(key string) *windowCounter {
	now := l.now()
	c, ok := l.byKey[key]
	if !ok || now.Sub(c.start) >= l.window {
		c = &windowCounter{start: now}
		l.byKey[key] = c
	}
	return c
}

func (l *MemoryLimiter) decisionLocked(c *windowCounter, limit int) Decision {
	d := Decision{Allowed: c.count <= limit, Remaining: limit - c.count}
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	if !d.Allowed {
		d.RetryAfter = l.window - l.now().Sub(c.start)
		if d.RetryAfter < 0 {
			d.RetryAfter = 0
		}
	}
	return d
}

func (l *MemoryLimiter) Hit(_ context.Context, key string, limit int) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c := l.counterLocked(key)
	c.count++
	return l.decisionLocked(c, limit), nil
}

func (l *MemoryLimiter) Check(_ context.Context, key string, limit int) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c := l.counterLocked(key)
	// Check gates the next attempt: deny once the counter has reached the
	// ceiling, without consuming quota.
	d := Decision{Allowed: c.count < limit, Remaining: limit - c.count}
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	if !d.Allowed {
		d.RetryAfter = l.window - l.now().Sub(c.start)
		if d.RetryAfter < 0 {
			d.RetryAfter = 0
		}
	}
	return d, nil
}

func (l *MemoryLimiter) RecordFailure(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counterLocked(key).count++
	return nil
}
