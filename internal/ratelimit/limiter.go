// Package ratelimit bounds bookmarklet token issuance and redemption
// attempts per user with a fixed-window counter.
package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"
)

// Decision is the outcome of a rate limit check
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter int // seconds until the window resets; 0 when allowed
}

// Limiter checks whether a request from the given key should be allowed
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// Memory is an in-process fixed-window rate limiter. The window expires
// passively: entries reset on the next request after the window elapses.
type Memory struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	count       int
	windowStart time.Time
}

// NewMemory creates an in-memory fixed-window limiter allowing limit
// requests per window
func NewMemory(limit int, window time.Duration) *Memory {
	m := &Memory{
		limit:   limit,
		window:  window,
		entries: make(map[string]*entry),
	}

	// Periodically drop stale entries so the map does not grow unbounded
	go m.cleanup()

	return m
}

// Allow checks if a request from the given key should be allowed
func (m *Memory) Allow(ctx context.Context, key string) (Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	e, exists := m.entries[key]

	if !exists || now.Sub(e.windowStart) > m.window {
		m.entries[key] = &entry{count: 1, windowStart: now}
		return Decision{Allowed: true, Remaining: m.limit - 1}, nil
	}

	e.count++
	if e.count > m.limit {
		retryAfter := int(math.Ceil((m.window - now.Sub(e.windowStart)).Seconds()))
		if retryAfter < 1 {
			retryAfter = 1
		}
		return Decision{Allowed: false, Remaining: 0, RetryAfter: retryAfter}, nil
	}

	return Decision{Allowed: true, Remaining: m.limit - e.count}, nil
}

// cleanup periodically removes expired entries to prevent memory leaks
func (m *Memory) cleanup() {
	ticker := time.NewTicker(m.window)
	defer ticker.Stop()

	for range ticker.C {
		m.mu.Lock()
		now := time.Now()
		for key, e := range m.entries {
			if now.Sub(e.windowStart) > m.window {
				delete(m.entries, key)
			}
		}
		m.mu.Unlock()
	}
}
