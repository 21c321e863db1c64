package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rankpilot/backend/internal/database"
	"github.com/rankpilot/backend/internal/models"
)

// SubmissionRepository persists accepted directory submissions
type SubmissionRepository struct {
	db *database.DB
}

// NewSubmissionRepository creates a new submission repository
func NewSubmissionRepository(db *database.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Create persists a submission record
func (r *SubmissionRepository) Create(ctx context.Context, sub *models.Submission) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	now := time.Now()
	sub.CreatedAt = now
	sub.UpdatedAt = now

	query := `
		INSERT INTO submissions (id, user_id, project_id, link_id, directory_name, category, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query,
		sub.ID, sub.UserID, sub.ProjectID, sub.LinkID,
		sub.DirectoryName, sub.Category, sub.Status, sub.Notes,
		sub.CreatedAt, sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}

	return nil
}

// CountSuccessfulByUser returns the number of successful submissions for a
// user. This is the persisted count the quota ledger seeds from.
func (r *SubmissionRepository) CountSuccessfulByUser(ctx context.Context, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM submissions WHERE user_id = $1 AND status = $2`
	var count int
	err := r.db.QueryRow(ctx, query, userID, models.SubmissionStatusSuccess).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count submissions: %w", err)
	}
	return count, nil
}

// ListByUser retrieves recent submissions for a user
func (r *SubmissionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.Submission, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, user_id, project_id, link_id, directory_name, category, status, notes, created_at, updated_at
		FROM submissions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	var subs []models.Submission
	for rows.Next() {
		var sub models.Submission
		err := rows.Scan(
			&sub.ID, &sub.UserID, &sub.ProjectID, &sub.LinkID,
			&sub.DirectoryName, &sub.Category, &sub.Status, &sub.Notes,
			&sub.CreatedAt, &sub.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		subs = append(subs, sub)
	}

	return subs, rows.Err()
}
