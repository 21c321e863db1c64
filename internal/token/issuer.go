package token

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/rankpilot/backend/internal/models"
	"github.com/rankpilot/backend/internal/quota"
)

// DefaultTTL is how long an issued token stays redeemable
const DefaultTTL = 15 * time.Minute

// idRetries bounds Put retries in the unlikely case of an id collision
const idRetries = 3

// ActivityLogger records issuance events. Failures are logged and never
// block issuance.
type ActivityLogger interface {
	Record(ctx context.Context, entry *models.ActivityEntry) error
}

// Issuer mints capability tokens bound to a (user, project, link) triple,
// with a usage ceiling derived from the user's plan tier.
type Issuer struct {
	store    Store
	ledger   *quota.Ledger
	activity ActivityLogger
	ttl      time.Duration
}

// NewIssuer creates a new token issuer. The activity logger may be nil.
// A zero ttl means DefaultTTL.
func NewIssuer(store Store, ledger *quota.Ledger, activity ActivityLogger, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{
		store:    store,
		ledger:   ledger,
		activity: activity,
		ttl:      ttl,
	}
}

// Issued describes a freshly minted token for the bookmarklet client
type Issued struct {
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expires_at"`
	MaxUsage   int       `json:"max_usage"`
	UsageCount int       `json:"usage_count"`
}

// Issue mints a token for the user. Issuance is refused with the ledger's
// ExceededError when the user's submissions quota is already exhausted, so
// tokens that could never be legally redeemed are not created. The quota
// check here is a precondition read, not an increment; accounting happens
// at redemption.
func (i *Issuer) Issue(ctx context.Context, user *models.User, projectID, linkID string) (*Issued, error) {
	if _, err := i.ledger.Check(ctx, user.ID, models.ResourceSubmissions, 1, user.Tier, user.QuotaOverrides); err != nil {
		return nil, err
	}

	maxUsage := models.TokenUsageForTier(user.Tier)
	now := time.Now()

	for attempt := 0; attempt < idRetries; attempt++ {
		id, err := NewID()
		if err != nil {
			return nil, err
		}

		t := &Token{
			ID:        id,
			UserID:    user.ID,
			ProjectID: projectID,
			LinkID:    linkID,
			MaxUsage:  maxUsage,
			ExpiresAt: now.Add(i.ttl),
			CreatedAt: now,
		}

		err = i.store.Put(t)
		if err == ErrDuplicateID {
			continue
		}
		if err != nil {
			return nil, err
		}

		i.logIssued(ctx, user.ID, t)

		return &Issued{
			Token:      t.ID,
			ExpiresAt:  t.ExpiresAt,
			MaxUsage:   t.MaxUsage,
			UsageCount: t.UsageCount,
		}, nil
	}

	return nil, fmt.Errorf("failed to issue token: exhausted id retries")
}

func (i *Issuer) logIssued(ctx context.Context, userID string, t *Token) {
	if i.activity == nil {
		return
	}
	entry := &models.ActivityEntry{
		UserID: userID,
		Action: models.ActivityTokenIssued,
		Detail: fmt.Sprintf("issued token for project %s link %s (max_usage=%d)", t.ProjectID, t.LinkID, t.MaxUsage),
	}
	if err := i.activity.Record(ctx, entry); err != nil {
		log.Printf("[issuer] Failed to record activity for user %s: %v", userID, err)
	}
}
