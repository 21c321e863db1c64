package models

import (
	"time"
)

// User represents a user in the system
type User struct {
	ID             string         `json:"id" db:"id"`
	Email          string         `json:"email" db:"email"`
	PasswordHash   string         `json:"-" db:"password_hash"`
	Tier           string         `json:"tier" db:"tier"`
	QuotaOverrides map[string]int `json:"quota_overrides,omitempty" db:"quota_overrides"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

// APIKey represents an API key for a user
type APIKey struct {
	ID        string     `json:"id" db:"id"`
	UserID    string     `json:"user_id" db:"user_id"`
	KeyHash   string     `json:"-" db:"key_hash"`
	KeyPrefix string     `json:"key_prefix" db:"key_prefix"`
	Name      string     `json:"name" db:"name"`
	IsActive  bool       `json:"is_active" db:"is_active"`
	LastUsed  *time.Time `json:"last_used,omitempty" db:"last_used_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// PlanTier constants
const (
	TierFree       = "free"
	TierPro        = "pro"
	TierBusiness   = "business"
	TierEnterprise = "enterprise"
)

// IsValidTier checks if a tier is valid
func IsValidTier(tier string) bool {
	switch tier {
	case TierFree, TierPro, TierBusiness, TierEnterprise:
		return true
	default:
		return false
	}
}
