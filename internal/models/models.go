package models

import (
	"time"
)

// Directory represents a web directory the bookmarklet can submit to
type Directory struct {
	ID              string    `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	URL             string    `json:"url" db:"url"`
	Category        string    `json:"category,omitempty" db:"category"`
	DomainAuthority int       `json:"domain_authority" db:"domain_authority"`
	IsActive        bool      `json:"is_active" db:"is_active"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// Project represents a tracked website belonging to a user
type Project struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Domain    string    `json:"domain" db:"domain"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Link represents a directory submission target tracked within a project
type Link struct {
	ID                string    `json:"id" db:"id"`
	ProjectID         string    `json:"project_id" db:"project_id"`
	DirectoryID       string    `json:"directory_id" db:"directory_id"`
	DirectoryName     string    `json:"directory_name" db:"directory_name"`
	DirectoryCategory string    `json:"directory_category,omitempty" db:"directory_category"`
	TargetURL         string    `json:"target_url" db:"target_url"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// Submission status constants
const (
	SubmissionStatusSuccess = "success"
)

// Submission represents a recorded directory submission
type Submission struct {
	ID            string    `json:"id" db:"id"`
	UserID        string    `json:"user_id" db:"user_id"`
	ProjectID     string    `json:"project_id" db:"project_id"`
	LinkID        string    `json:"link_id" db:"link_id"`
	DirectoryName string    `json:"directory_name" db:"directory_name"`
	Category      string    `json:"category,omitempty" db:"category"`
	Status        string    `json:"status" db:"status"`
	Notes         string    `json:"notes,omitempty" db:"notes"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// ActivityEntry records an accepted or rejected bookmarklet action
type ActivityEntry struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Action    string    `json:"action" db:"action"`
	Detail    string    `json:"detail,omitempty" db:"detail"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Activity action constants
const (
	ActivitySubmissionAccepted = "submission_accepted"
	ActivitySubmissionRejected = "submission_rejected"
	ActivityTokenIssued        = "token_issued"
)
