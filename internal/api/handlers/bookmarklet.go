package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/rankpilot/backend/internal/api/request"
	"github.com/rankpilot/backend/internal/api/response"
	"github.com/rankpilot/backend/internal/auth"
	"github.com/rankpilot/backend/internal/middleware"
	"github.com/rankpilot/backend/internal/models"
	"github.com/rankpilot/backend/internal/quota"
	"github.com/rankpilot/backend/internal/ratelimit"
	"github.com/rankpilot/backend/internal/repository"
	"github.com/rankpilot/backend/internal/service"
	"github.com/rankpilot/backend/internal/token"
)

// BookmarkletHandler handles token issuance and redemption for the
// directory submission bookmarklet
type BookmarkletHandler struct {
	users      *repository.UserRepository
	projects   *repository.ProjectRepository
	issuer     *token.Issuer
	authorizer *service.Authorizer
	limiter    ratelimit.Limiter
	trustProxy bool
}

// NewBookmarkletHandler creates a new bookmarklet handler. trustProxy
// controls whether proxy headers are honored when rate limiting anonymous
// callers by IP.
func NewBookmarkletHandler(
	users *repository.UserRepository,
	projects *repository.ProjectRepository,
	issuer *token.Issuer,
	authorizer *service.Authorizer,
	limiter ratelimit.Limiter,
	trustProxy bool,
) *BookmarkletHandler {
	return &BookmarkletHandler{
		users:      users,
		projects:   projects,
		issuer:     issuer,
		authorizer: authorizer,
		limiter:    limiter,
		trustProxy: trustProxy,
	}
}

// IssueTokenRequest is the body for token issuance
type IssueTokenRequest struct {
	ProjectID string `json:"project_id"`
	LinkID    string `json:"link_id"`
}

// IssueTokenResponse describes a freshly minted bookmarklet token
type IssueTokenResponse struct {
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expires_at"`
	MaxUsage   int       `json:"max_usage"`
	UsageCount int       `json:"usage_count"`
}

// SubmitRequest is the body for a redemption attempt
type SubmitRequest struct {
	Token     string `json:"token"`
	ProjectID string `json:"project_id"`
	LinkID    string `json:"link_id"`

	// Page metadata captured by the bookmarklet (public variant)
	URL         string `json:"url,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// SubmitResponse reports an accepted submission to the caller
type SubmitResponse struct {
	Success                bool                   `json:"success"`
	UsageCount             int                    `json:"usage_count"`
	MaxUsage               int                    `json:"max_usage"`
	RemainingUsage         int                    `json:"remaining_usage"`
	TotalSubmissions       int                    `json:"total_submissions"`
	PlanLimits             map[string]interface{} `json:"plan_limits"`
	SubmissionLimitReached bool                   `json:"submission_limit_reached"`
}

// IssueToken handles token issuance for the bookmarklet
// POST /api/v1/bookmarklet/token
func (h *BookmarkletHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	sessionUser := auth.GetUser(r.Context())
	if sessionUser == nil {
		response.Unauthorized(w, "")
		return
	}

	decision, err := h.limiter.Allow(r.Context(), sessionUser.ID)
	if err != nil {
		log.Printf("[bookmarklet] Rate limiter failure for user %s: %v", sessionUser.ID, err)
	} else if !decision.Allowed {
		writeRateLimited(w, decision.RetryAfter)
		return
	}

	var req IssueTokenRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, "invalid_request", "Invalid request body")
		return
	}
	if req.ProjectID == "" || req.LinkID == "" {
		response.BadRequest(w, "invalid_request", "project_id and link_id are required")
		return
	}

	// Session claims carry only id/email/tier; overrides live in the profile
	user, err := h.users.GetByID(r.Context(), sessionUser.ID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			response.NotFound(w, "user_not_found", "User not found")
			return
		}
		response.InternalError(w, "Failed to load user")
		return
	}

	if !h.ownsProject(w, r, user.ID, req.ProjectID) {
		return
	}

	issued, err := h.issuer.Issue(r.Context(), user, req.ProjectID, req.LinkID)
	if err != nil {
		var exceeded *quota.ExceededError
		if errors.As(err, &exceeded) {
			response.Error(w, http.StatusTooManyRequests, "quota_exceeded", map[string]interface{}{
				"limit_type":    models.ResourceSubmissions,
				"current_usage": exceeded.Usage,
				"plan_limits":   models.EffectiveLimits(user.Tier, user.QuotaOverrides).Render(),
			})
			return
		}
		log.Printf("[bookmarklet] Token issuance failed for user %s: %v", user.ID, err)
		response.InternalError(w, "Failed to issue token")
		return
	}

	response.JSON(w, http.StatusOK, IssueTokenResponse{
		Token:      issued.Token,
		ExpiresAt:  issued.ExpiresAt,
		MaxUsage:   issued.MaxUsage,
		UsageCount: issued.UsageCount,
	})
}

// Submit handles the session-authenticated redemption variant
// POST /api/v1/bookmarklet/submit
func (h *BookmarkletHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sessionUser := auth.GetUser(r.Context())
	if sessionUser == nil {
		response.Unauthorized(w, "")
		return
	}

	decision, err := h.limiter.Allow(r.Context(), sessionUser.ID)
	if err != nil {
		log.Printf("[bookmarklet] Rate limiter failure for user %s: %v", sessionUser.ID, err)
	} else if !decision.Allowed {
		writeRateLimited(w, decision.RetryAfter)
		return
	}

	var req SubmitRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, "invalid_request", "Invalid request body")
		return
	}
	if req.Token == "" || req.ProjectID == "" || req.LinkID == "" {
		response.BadRequest(w, "invalid_request", "token, project_id and link_id are required")
		return
	}

	if !h.ownsProject(w, r, sessionUser.ID, req.ProjectID) {
		return
	}

	h.submit(w, r, req)
}

// PublicSubmit handles the unauthenticated redemption variant used by the
// bookmarklet itself; the token is the credential
// POST /api/v1/public/bookmarklet/submit
func (h *BookmarkletHandler) PublicSubmit(w http.ResponseWriter, r *http.Request) {
	// The caller is anonymous, so throttle by client IP instead of user id
	decision, err := h.limiter.Allow(r.Context(), middleware.ClientIP(r, h.trustProxy))
	if err != nil {
		log.Printf("[bookmarklet] Rate limiter failure: %v", err)
	} else if !decision.Allowed {
		writeRateLimited(w, decision.RetryAfter)
		return
	}

	var req SubmitRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, "invalid_request", "Invalid request body")
		return
	}
	if req.Token == "" || req.ProjectID == "" || req.LinkID == "" {
		response.BadRequest(w, "invalid_request", "token, project_id and link_id are required")
		return
	}

	h.submit(w, r, req)
}

// submit runs the authorizer and maps its outcome to the wire
func (h *BookmarkletHandler) submit(w http.ResponseWriter, r *http.Request, req SubmitRequest) {
	result, err := h.authorizer.Submit(r.Context(), service.SubmitInput{
		Token:           req.Token,
		ProjectID:       req.ProjectID,
		LinkID:          req.LinkID,
		PageURL:         req.URL,
		PageTitle:       req.Title,
		PageDescription: req.Description,
	})
	if err != nil {
		writeSubmitError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, SubmitResponse{
		Success:                true,
		UsageCount:             result.UsageCount,
		MaxUsage:               result.MaxUsage,
		RemainingUsage:         result.RemainingUsage,
		TotalSubmissions:       result.TotalSubmissions,
		PlanLimits:             result.PlanLimits.Render(),
		SubmissionLimitReached: result.LimitReached,
	})
}

// ownsProject verifies the project belongs to the caller. Foreign projects
// are reported as not found to avoid leaking their existence.
func (h *BookmarkletHandler) ownsProject(w http.ResponseWriter, r *http.Request, userID, projectID string) bool {
	project, err := h.projects.GetByID(r.Context(), projectID)
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			response.NotFound(w, "project_not_found", "Project not found")
			return false
		}
		response.InternalError(w, "Failed to load project")
		return false
	}
	if project.UserID != userID {
		response.NotFound(w, "project_not_found", "Project not found")
		return false
	}
	return true
}

// writeSubmitError maps authorizer failures onto the wire contract
func writeSubmitError(w http.ResponseWriter, err error) {
	if errors.Is(err, repository.ErrLinkNotFound) {
		response.NotFound(w, "link_not_found", "Link not found")
		return
	}

	var redeemErr *token.RedeemError
	if errors.As(err, &redeemErr) {
		switch redeemErr.Reason {
		case token.ReasonUsageExceeded:
			response.Error(w, http.StatusTooManyRequests, string(redeemErr.Reason), map[string]interface{}{
				"current_usage": redeemErr.UsageCount,
				"max_usage":     redeemErr.MaxUsage,
			})
		default:
			response.Error(w, http.StatusBadRequest, string(redeemErr.Reason), nil)
		}
		return
	}

	var exceeded *quota.ExceededError
	if errors.As(err, &exceeded) {
		response.Error(w, http.StatusForbidden, "quota_exceeded", map[string]interface{}{
			"message":       exceeded.Error(),
			"current_usage": exceeded.Usage,
			"limit":         models.RenderLimit(exceeded.Limit),
		})
		return
	}

	log.Printf("[bookmarklet] Submission failed: %v", err)
	response.InternalError(w, "Failed to record submission")
}

// writeRateLimited writes a 429 with the seconds until the window resets
func writeRateLimited(w http.ResponseWriter, retryAfter int) {
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	response.Error(w, http.StatusTooManyRequests, "rate_limited", map[string]interface{}{
		"message":     "Too many requests. Please try again later.",
		"retry_after": retryAfter,
	})
}
