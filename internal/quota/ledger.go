// Package quota implements plan-based usage accounting. All quota mutation
// flows through the Ledger's CheckAndIncrement so counters can never drift
// past their effective limits.
package quota

import (
	"context"
	"fmt"
	"sync"

	"github.com/rankpilot/backend/internal/models"
)

// UsageSeeder supplies the persisted usage count for a (user, resource) pair.
// It is consulted once per pair, the first time the ledger touches it.
type UsageSeeder interface {
	CurrentUsage(ctx context.Context, userID, resource string) (int, error)
}

// SeederFunc adapts a function to the UsageSeeder interface
type SeederFunc func(ctx context.Context, userID, resource string) (int, error)

// CurrentUsage calls f
func (f SeederFunc) CurrentUsage(ctx context.Context, userID, resource string) (int, error) {
	return f(ctx, userID, resource)
}

// ExceededError is returned when a quota check fails. It carries the current
// usage and effective limit for caller-facing messaging.
type ExceededError struct {
	Resource string
	Usage    int
	Limit    int
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("quota exceeded for %s: %d/%d used", e.Resource, e.Usage, e.Limit)
}

// Result reports the usage and effective limit after a ledger operation
type Result struct {
	Usage int
	Limit int
}

// LimitReached reports whether the usage has met or passed the limit
func (r Result) LimitReached() bool {
	return r.Limit != models.Unlimited && r.Usage >= r.Limit
}

type counter struct {
	mu     sync.Mutex
	seeded bool
	count  int
}

// Ledger tracks per-user, per-resource usage against plan-tier limits.
// Each (user, resource) pair has its own mutex so concurrent users are
// never serialized against each other.
type Ledger struct {
	mu       sync.Mutex
	counters map[string]*counter
	seeder   UsageSeeder
}

// NewLedger creates a new quota ledger. The seeder may be nil, in which case
// all counters start at zero.
func NewLedger(seeder UsageSeeder) *Ledger {
	return &Ledger{
		counters: make(map[string]*counter),
		seeder:   seeder,
	}
}

func (l *Ledger) counter(userID, resource string) *counter {
	key := userID + "/" + resource
	l.mu.Lock()
	defer l.mu.Unlock()

	c, exists := l.counters[key]
	if !exists {
		c = &counter{}
		l.counters[key] = c
	}
	return c
}

// seedLocked loads the persisted count on first touch. Caller holds c.mu.
func (l *Ledger) seedLocked(ctx context.Context, c *counter, userID, resource string) error {
	if c.seeded {
		return nil
	}
	if l.seeder != nil {
		n, err := l.seeder.CurrentUsage(ctx, userID, resource)
		if err != nil {
			return fmt.Errorf("failed to seed quota counter for %s/%s: %w", userID, resource, err)
		}
		c.count = n
	}
	c.seeded = true
	return nil
}

// Check verifies that amount more units of usage would be permittable without
// accounting for them. Used as a precondition read at token issuance.
func (l *Ledger) Check(ctx context.Context, userID, resource string, amount int, tier string, overrides map[string]int) (Result, error) {
	limit := models.EffectiveLimit(tier, overrides, resource)

	c := l.counter(userID, resource)
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := l.seedLocked(ctx, c, userID, resource); err != nil {
		return Result{}, err
	}

	if limit != models.Unlimited && c.count+amount > limit {
		return Result{Usage: c.count, Limit: limit}, &ExceededError{Resource: resource, Usage: c.count, Limit: limit}
	}
	return Result{Usage: c.count, Limit: limit}, nil
}

// CheckAndIncrement resolves the effective limit, verifies that amount more
// units fit under it, and accounts for them. The check and increment are a
// single critical section per (user, resource) pair.
func (l *Ledger) CheckAndIncrement(ctx context.Context, userID, resource string, amount int, tier string, overrides map[string]int) (Result, error) {
	limit := models.EffectiveLimit(tier, overrides, resource)

	c := l.counter(userID, resource)
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := l.seedLocked(ctx, c, userID, resource); err != nil {
		return Result{}, err
	}

	if limit != models.Unlimited && c.count+amount > limit {
		return Result{Usage: c.count, Limit: limit}, &ExceededError{Resource: resource, Usage: c.count, Limit: limit}
	}

	c.count += amount
	return Result{Usage: c.count, Limit: limit}, nil
}

// Usage returns the current usage count for a (user, resource) pair
func (l *Ledger) Usage(ctx context.Context, userID, resource string) (int, error) {
	c := l.counter(userID, resource)
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := l.seedLocked(ctx, c, userID, resource); err != nil {
		return 0, err
	}
	return c.count, nil
}
