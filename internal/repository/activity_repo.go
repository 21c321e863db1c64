package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rankpilot/backend/internal/database"
	"github.com/rankpilot/backend/internal/models"
)

// ActivityRepository records accepted and rejected bookmarklet actions
type ActivityRepository struct {
	db *database.DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *database.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Record persists an activity entry
func (r *ActivityRepository) Record(ctx context.Context, entry *models.ActivityEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	entry.CreatedAt = time.Now()

	query := `
		INSERT INTO activity_log (id, user_id, action, detail, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query,
		entry.ID, entry.UserID, entry.Action, entry.Detail, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}

	return nil
}

// ListByUser retrieves recent activity for a user
func (r *ActivityRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.ActivityEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, user_id, action, detail, created_at
		FROM activity_log
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	var entries []models.ActivityEntry
	for rows.Next() {
		var entry models.ActivityEntry
		err := rows.Scan(&entry.ID, &entry.UserID, &entry.Action, &entry.Detail, &entry.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
