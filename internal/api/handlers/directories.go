package handlers

import (
	"net/http"

	"github.com/rankpilot/backend/internal/api/request"
	"github.com/rankpilot/backend/internal/api/response"
	"github.com/rankpilot/backend/internal/auth"
	"github.com/rankpilot/backend/internal/repository"
)

// DirectoryHandler serves the directory catalog and submission history
type DirectoryHandler struct {
	directories *repository.DirectoryRepository
	submissions *repository.SubmissionRepository
	activity    *repository.ActivityRepository
}

// NewDirectoryHandler creates a new directory handler
func NewDirectoryHandler(
	directories *repository.DirectoryRepository,
	submissions *repository.SubmissionRepository,
	activity *repository.ActivityRepository,
) *DirectoryHandler {
	return &DirectoryHandler{
		directories: directories,
		submissions: submissions,
		activity:    activity,
	}
}

// ListDirectories lists active directories the bookmarklet can submit to
// GET /api/v1/directories
func (h *DirectoryHandler) ListDirectories(w http.ResponseWriter, r *http.Request) {
	dirs, err := h.directories.ListActive(r.Context())
	if err != nil {
		response.InternalError(w, "Failed to list directories")
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{"directories": dirs})
}

// ListSubmissions lists the current user's recent submissions
// GET /api/v1/user/submissions
func (h *DirectoryHandler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, "")
		return
	}

	limit := request.GetQueryInt(r, "limit", 50)
	subs, err := h.submissions.ListByUser(r.Context(), userID, limit)
	if err != nil {
		response.InternalError(w, "Failed to list submissions")
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{"submissions": subs})
}

// ListActivity lists the current user's recent bookmarklet activity
// GET /api/v1/user/activity
func (h *DirectoryHandler) ListActivity(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, "")
		return
	}

	limit := request.GetQueryInt(r, "limit", 50)
	entries, err := h.activity.ListByUser(r.Context(), userID, limit)
	if err != nil {
		response.InternalError(w, "Failed to list activity")
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{"activity": entries})
}
