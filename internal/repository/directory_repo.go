package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rankpilot/backend/internal/database"
	"github.com/rankpilot/backend/internal/models"
)

var (
	// ErrDirectoryNotFound is returned when a directory is not found
	ErrDirectoryNotFound = errors.New("directory not found")
	// ErrLinkNotFound is returned when a submission link is not found
	ErrLinkNotFound = errors.New("link not found")
)

// DirectoryRepository handles directory catalog and link database operations
type DirectoryRepository struct {
	db *database.DB
}

// NewDirectoryRepository creates a new directory repository
func NewDirectoryRepository(db *database.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

// GetByID retrieves a directory by ID
func (r *DirectoryRepository) GetByID(ctx context.Context, id string) (*models.Directory, error) {
	query := `
		SELECT id, name, url, category, domain_authority, is_active, created_at
		FROM directories
		WHERE id = $1
	`
	var dir models.Directory
	err := r.db.QueryRow(ctx, query, id).Scan(
		&dir.ID, &dir.Name, &dir.URL, &dir.Category,
		&dir.DomainAuthority, &dir.IsActive, &dir.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDirectoryNotFound
		}
		return nil, fmt.Errorf("failed to get directory by id: %w", err)
	}

	return &dir, nil
}

// GetLinkByID retrieves a submission link with its directory name and category
func (r *DirectoryRepository) GetLinkByID(ctx context.Context, id string) (*models.Link, error) {
	query := `
		SELECT l.id, l.project_id, l.directory_id, d.name, d.category, l.target_url, l.created_at
		FROM links l
		JOIN directories d ON l.directory_id = d.id
		WHERE l.id = $1
	`
	var link models.Link
	err := r.db.QueryRow(ctx, query, id).Scan(
		&link.ID, &link.ProjectID, &link.DirectoryID,
		&link.DirectoryName, &link.DirectoryCategory, &link.TargetURL, &link.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get link by id: %w", err)
	}

	return &link, nil
}

// ListActive retrieves all active directories
func (r *DirectoryRepository) ListActive(ctx context.Context) ([]models.Directory, error) {
	query := `
		SELECT id, name, url, category, domain_authority, is_active, created_at
		FROM directories
		WHERE is_active = true
		ORDER BY domain_authority DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list directories: %w", err)
	}
	defer rows.Close()

	var dirs []models.Directory
	for rows.Next() {
		var dir models.Directory
		err := rows.Scan(
			&dir.ID, &dir.Name, &dir.URL, &dir.Category,
			&dir.DomainAuthority, &dir.IsActive, &dir.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan directory: %w", err)
		}
		dirs = append(dirs, dir)
	}

	return dirs, rows.Err()
}
