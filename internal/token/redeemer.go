package token

import (
	"context"
	"fmt"
	"time"
)

// Reason identifies why a redemption was rejected
type Reason string

// Redemption reject reasons
const (
	ReasonInvalidToken  Reason = "invalid_token"
	ReasonExpiredToken  Reason = "expired_token"
	ReasonMismatch      Reason = "mismatch"
	ReasonUsageExceeded Reason = "usage_exceeded"
)

// RedeemError is returned when a redemption is rejected. UsageCount and
// MaxUsage are populated for ReasonUsageExceeded so callers can report the
// exhausted ceiling.
type RedeemError struct {
	Reason     Reason
	UsageCount int
	MaxUsage   int
}

func (e *RedeemError) Error() string {
	if e.Reason == ReasonUsageExceeded {
		return fmt.Sprintf("token redemption rejected: %s (%d/%d)", e.Reason, e.UsageCount, e.MaxUsage)
	}
	return fmt.Sprintf("token redemption rejected: %s", e.Reason)
}

// Redemption describes a successful redemption: the triple the token was
// bound to plus its post-increment usage state.
type Redemption struct {
	UserID     string
	ProjectID  string
	LinkID     string
	UsageCount int
	MaxUsage   int
}

// Remaining returns how many redemptions the token still allows
func (r *Redemption) Remaining() int {
	remaining := r.MaxUsage - r.UsageCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Redeemer validates a client-presented token against the triple it was
// bound to and consumes one unit of its usage ceiling.
type Redeemer struct {
	store Store
}

// NewRedeemer creates a new token redeemer
func NewRedeemer(store Store) *Redeemer {
	return &Redeemer{store: store}
}

// Redeem validates the token and consumes one usage unit. Expired and
// exhausted tokens are removed from the store since they are useless.
// A project/link mismatch never mutates the token; this guards against a
// token being replayed against a different submission target.
func (r *Redeemer) Redeem(ctx context.Context, id, projectID, linkID string) (*Redemption, error) {
	t, err := r.store.Get(id)
	if err != nil {
		return nil, &RedeemError{Reason: ReasonInvalidToken}
	}

	now := time.Now()
	if t.Expired(now) {
		r.store.Remove(id)
		return nil, &RedeemError{Reason: ReasonExpiredToken}
	}

	if t.ProjectID != projectID || t.LinkID != linkID {
		return nil, &RedeemError{Reason: ReasonMismatch}
	}

	consumed, err := r.store.ConsumeOne(id, now)
	switch err {
	case nil:
	case ErrNotFound:
		// Removed between Get and ConsumeOne
		return nil, &RedeemError{Reason: ReasonInvalidToken}
	case ErrExpired:
		r.store.Remove(id)
		return nil, &RedeemError{Reason: ReasonExpiredToken}
	case ErrUsageExceeded:
		r.store.Remove(id)
		return nil, &RedeemError{
			Reason:     ReasonUsageExceeded,
			UsageCount: consumed.UsageCount,
			MaxUsage:   consumed.MaxUsage,
		}
	default:
		return nil, err
	}

	return &Redemption{
		UserID:     consumed.UserID,
		ProjectID:  consumed.ProjectID,
		LinkID:     consumed.LinkID,
		UsageCount: consumed.UsageCount,
		MaxUsage:   consumed.MaxUsage,
	}, nil
}
