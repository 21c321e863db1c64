// Package service contains the submission authorization orchestration.
package service

import (
	"context"
	"fmt"
	"log"

	"github.com/rankpilot/backend/internal/models"
	"github.com/rankpilot/backend/internal/quota"
	"github.com/rankpilot/backend/internal/token"
)

// UserStore supplies the user profile (plan tier and quota overrides)
type UserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// LinkStore resolves submission targets
type LinkStore interface {
	GetLinkByID(ctx context.Context, id string) (*models.Link, error)
}

// SubmissionStore persists accepted submissions
type SubmissionStore interface {
	Create(ctx context.Context, sub *models.Submission) error
}

// ActivityLogger records accepted and rejected actions. Failures are logged
// and never block the response.
type ActivityLogger interface {
	Record(ctx context.Context, entry *models.ActivityEntry) error
}

// SubmitInput is a redemption attempt from the bookmarklet or dashboard
type SubmitInput struct {
	Token     string
	ProjectID string
	LinkID    string

	// Optional page metadata captured by the bookmarklet
	PageURL         string
	PageTitle       string
	PageDescription string
}

// SubmitResult reports the outcome of an accepted submission
type SubmitResult struct {
	UserID           string
	Tier             string
	UsageCount       int
	MaxUsage         int
	RemainingUsage   int
	TotalSubmissions int
	SubmissionLimit  int
	PlanLimits       models.PlanLimits
	LimitReached     bool
}

// Authorizer decides whether a submission may be recorded. A redemption
// attempt passes through the token redeemer, then the quota ledger, and only
// when both succeed is a submission persisted.
type Authorizer struct {
	redeemer    *token.Redeemer
	ledger      *quota.Ledger
	users       UserStore
	links       LinkStore
	submissions SubmissionStore
	activity    ActivityLogger
}

// NewAuthorizer creates a new submission authorizer. The activity logger may
// be nil.
func NewAuthorizer(redeemer *token.Redeemer, ledger *quota.Ledger, users UserStore, links LinkStore, submissions SubmissionStore, activity ActivityLogger) *Authorizer {
	return &Authorizer{
		redeemer:    redeemer,
		ledger:      ledger,
		users:       users,
		links:       links,
		submissions: submissions,
		activity:    activity,
	}
}

// Submit runs the authorization pipeline for one redemption attempt.
//
// The token's usage increment is not rolled back when the subsequent quota
// check fails: an already-spent token unit is the accepted cost of the
// attempt. The same holds for a persistence failure after both checks pass;
// the error is surfaced and the caller must re-attempt with a fresh unit.
func (a *Authorizer) Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	link, err := a.links.GetLinkByID(ctx, in.LinkID)
	if err != nil {
		return nil, err
	}

	red, err := a.redeemer.Redeem(ctx, in.Token, in.ProjectID, in.LinkID)
	if err != nil {
		return nil, err
	}

	user, err := a.users.GetByID(ctx, red.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load token owner: %w", err)
	}

	res, err := a.ledger.CheckAndIncrement(ctx, user.ID, models.ResourceSubmissions, 1, user.Tier, user.QuotaOverrides)
	if err != nil {
		a.logActivity(ctx, user.ID, models.ActivitySubmissionRejected,
			fmt.Sprintf("quota check failed for link %s: %v", in.LinkID, err))
		return nil, err
	}

	sub := &models.Submission{
		UserID:        user.ID,
		ProjectID:     red.ProjectID,
		LinkID:        red.LinkID,
		DirectoryName: link.DirectoryName,
		Category:      link.DirectoryCategory,
		Status:        models.SubmissionStatusSuccess,
		Notes:         submissionNotes(in),
	}
	if err := a.submissions.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to persist submission: %w", err)
	}

	a.logActivity(ctx, user.ID, models.ActivitySubmissionAccepted,
		fmt.Sprintf("submitted %s to %s (%d/%d token usage)", link.TargetURL, link.DirectoryName, red.UsageCount, red.MaxUsage))

	return &SubmitResult{
		UserID:           user.ID,
		Tier:             user.Tier,
		UsageCount:       red.UsageCount,
		MaxUsage:         red.MaxUsage,
		RemainingUsage:   red.Remaining(),
		TotalSubmissions: res.Usage,
		SubmissionLimit:  res.Limit,
		PlanLimits:       models.EffectiveLimits(user.Tier, user.QuotaOverrides),
		LimitReached:     res.LimitReached(),
	}, nil
}

func (a *Authorizer) logActivity(ctx context.Context, userID, action, detail string) {
	if a.activity == nil {
		return
	}
	entry := &models.ActivityEntry{
		UserID: userID,
		Action: action,
		Detail: detail,
	}
	if err := a.activity.Record(ctx, entry); err != nil {
		log.Printf("[authorizer] Failed to record activity for user %s: %v", userID, err)
	}
}

// submissionNotes folds the originating token and page metadata into the
// submission record's free-text notes
func submissionNotes(in SubmitInput) string {
	notes := fmt.Sprintf("token=%s", in.Token)
	if in.PageURL != "" {
		notes += fmt.Sprintf(" url=%s", in.PageURL)
	}
	if in.PageTitle != "" {
		notes += fmt.Sprintf(" title=%q", in.PageTitle)
	}
	if in.PageDescription != "" {
		notes += fmt.Sprintf(" description=%q", in.PageDescription)
	}
	return notes
}
