package handlers

import (
	"errors"
	"net/http"

	"github.com/rankpilot/backend/internal/api/response"
	"github.com/rankpilot/backend/internal/auth"
	"github.com/rankpilot/backend/internal/models"
	"github.com/rankpilot/backend/internal/quota"
	"github.com/rankpilot/backend/internal/repository"
)

// UsageHandler reports quota usage for the dashboard
type UsageHandler struct {
	users  *repository.UserRepository
	ledger *quota.Ledger
}

// NewUsageHandler creates a new usage handler
func NewUsageHandler(users *repository.UserRepository, ledger *quota.Ledger) *UsageHandler {
	return &UsageHandler{
		users:  users,
		ledger: ledger,
	}
}

// ResourceUsage reports usage against the effective limit for one resource
type ResourceUsage struct {
	Used  int         `json:"used"`
	Limit interface{} `json:"limit"` // "unlimited" when the limit is -1
}

// UsageResponse reports per-resource usage for the current user
type UsageResponse struct {
	UserID    string                   `json:"user_id"`
	Tier      string                   `json:"tier"`
	Resources map[string]ResourceUsage `json:"resources"`
}

// GetUsage returns quota usage for the current user
// GET /api/v1/user/usage
func (h *UsageHandler) GetUsage(w http.ResponseWriter, r *http.Request) {
	sessionUser := auth.GetUser(r.Context())
	if sessionUser == nil {
		response.Unauthorized(w, "")
		return
	}

	user, err := h.users.GetByID(r.Context(), sessionUser.ID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			response.NotFound(w, "user_not_found", "User not found")
			return
		}
		response.InternalError(w, "Failed to load user")
		return
	}

	resources := make(map[string]ResourceUsage, len(models.Resources))
	for _, resource := range models.Resources {
		used, err := h.ledger.Usage(r.Context(), user.ID, resource)
		if err != nil {
			response.InternalError(w, "Failed to load usage")
			return
		}
		limit := models.EffectiveLimit(user.Tier, user.QuotaOverrides, resource)
		resources[resource] = ResourceUsage{
			Used:  used,
			Limit: models.RenderLimit(limit),
		}
	}

	response.JSON(w, http.StatusOK, UsageResponse{
		UserID:    user.ID,
		Tier:      user.Tier,
		Resources: resources,
	})
}
