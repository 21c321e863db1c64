package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/rankpilot/backend/internal/api/request"
	"github.com/rankpilot/backend/internal/api/response"
	"github.com/rankpilot/backend/internal/auth"
	"github.com/rankpilot/backend/internal/models"
	"github.com/rankpilot/backend/internal/quota"
	"github.com/rankpilot/backend/internal/repository"
)

// ProjectHandler handles project endpoints
type ProjectHandler struct {
	users    *repository.UserRepository
	projects *repository.ProjectRepository
	ledger   *quota.Ledger
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(users *repository.UserRepository, projects *repository.ProjectRepository, ledger *quota.Ledger) *ProjectHandler {
	return &ProjectHandler{
		users:    users,
		projects: projects,
		ledger:   ledger,
	}
}

// CreateProjectRequest represents a project creation request
type CreateProjectRequest struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

// CreateProject creates a new project, counting it against the projects quota
// POST /api/v1/projects
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	sessionUser := auth.GetUser(r.Context())
	if sessionUser == nil {
		response.Unauthorized(w, "")
		return
	}

	var req CreateProjectRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, "invalid_request", "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Domain) == "" {
		response.BadRequest(w, "invalid_request", "name and domain are required")
		return
	}

	user, err := h.users.GetByID(r.Context(), sessionUser.ID)
	if err != nil {
		response.InternalError(w, "Failed to load user")
		return
	}

	result, err := h.ledger.CheckAndIncrement(r.Context(), user.ID, models.ResourceProjects, 1, user.Tier, user.QuotaOverrides)
	if err != nil {
		var exceeded *quota.ExceededError
		if errors.As(err, &exceeded) {
			response.Error(w, http.StatusForbidden, "quota_exceeded", map[string]interface{}{
				"message":       exceeded.Error(),
				"limit_type":    models.ResourceProjects,
				"current_usage": exceeded.Usage,
				"limit":         models.RenderLimit(exceeded.Limit),
			})
			return
		}
		response.InternalError(w, "Failed to check quota")
		return
	}

	project := &models.Project{
		UserID: user.ID,
		Name:   strings.TrimSpace(req.Name),
		Domain: strings.TrimSpace(req.Domain),
	}
	if err := h.projects.Create(r.Context(), project); err != nil {
		log.Printf("[projects] Failed to create project for user %s (quota at %d/%d): %v",
			user.ID, result.Usage, result.Limit, err)
		response.InternalError(w, "Failed to create project")
		return
	}

	response.Created(w, project)
}

// ListProjects lists the authenticated user's projects
// GET /api/v1/projects
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, "")
		return
	}

	projects, err := h.projects.ListByUser(r.Context(), userID)
	if err != nil {
		response.InternalError(w, "Failed to list projects")
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{"projects": projects})
}
