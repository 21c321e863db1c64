package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rankpilot/backend/internal/database"
	"github.com/rankpilot/backend/internal/models"
)

var (
	// ErrUserNotFound is returned when a user is not found
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when trying to create a user that already exists
	ErrUserExists = errors.New("user already exists")
)

// UserRepository handles user database operations
type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Tier == "" {
		user.Tier = models.TierFree
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	overrides, err := marshalOverrides(user.QuotaOverrides)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO users (id, email, password_hash, tier, quota_overrides, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.db.Exec(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Tier,
		overrides, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, tier, quota_overrides, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	return r.scanUser(r.db.QueryRow(ctx, query, id), "id")
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, tier, quota_overrides, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	return r.scanUser(r.db.QueryRow(ctx, query, email), "email")
}

// UpdateTier changes a user's plan tier (driven by billing webhooks)
func (r *UserRepository) UpdateTier(ctx context.Context, id, tier string) error {
	if !models.IsValidTier(tier) {
		return fmt.Errorf("invalid tier: %s", tier)
	}

	query := `UPDATE users SET tier = $1, updated_at = $2 WHERE id = $3`
	affected, err := r.db.Exec(ctx, query, tier, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update user tier: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetQuotaOverride sets or clears a per-user resource limit override
func (r *UserRepository) SetQuotaOverride(ctx context.Context, id string, overrides map[string]int) error {
	data, err := marshalOverrides(overrides)
	if err != nil {
		return err
	}

	query := `UPDATE users SET quota_overrides = $1, updated_at = $2 WHERE id = $3`
	affected, err := r.db.Exec(ctx, query, data, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update quota overrides: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) scanUser(row pgx.Row, by string) (*models.User, error) {
	var user models.User
	var overrides []byte
	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Tier,
		&overrides, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by %s: %w", by, err)
	}

	if len(overrides) > 0 {
		if err := json.Unmarshal(overrides, &user.QuotaOverrides); err != nil {
			return nil, fmt.Errorf("failed to decode quota overrides: %w", err)
		}
	}

	return &user, nil
}

func marshalOverrides(overrides map[string]int) ([]byte, error) {
	if overrides == nil {
		return nil, nil
	}
	data, err := json.Marshal(overrides)
	if err != nil {
		return nil, fmt.Errorf("failed to encode quota overrides: %w", err)
	}
	return data, nil
}

// isUniqueViolation checks if an error is a unique constraint violation
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
