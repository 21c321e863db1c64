// Package token implements the bookmarklet capability token pipeline:
// an in-process store of usage-bounded tokens, an issuer that mints them
// against plan quotas, and a redeemer that atomically consumes them.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	// IDPrefix is the prefix for all bookmarklet token identifiers
	IDPrefix = "bmk_"
	// IDLength is the length of the random part of a token identifier
	IDLength = 32
)

// Token is a capability credential bound to one (user, project, link) triple.
// It authorizes at most MaxUsage redemptions before ExpiresAt.
type Token struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	ProjectID  string    `json:"project_id"`
	LinkID     string    `json:"link_id"`
	UsageCount int       `json:"usage_count"`
	MaxUsage   int       `json:"max_usage"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// Expired reports whether the token is unusable due to its TTL
func (t *Token) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// Remaining returns how many redemptions the token still allows
func (t *Token) Remaining() int {
	remaining := t.MaxUsage - t.UsageCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// NewID generates a new unguessable token identifier
func NewID() (string, error) {
	bytes := make([]byte, IDLength/2)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate token id: %w", err)
	}
	return IDPrefix + hex.EncodeToString(bytes), nil
}
