package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rankpilot/backend/internal/api/response"
	"github.com/rankpilot/backend/internal/cache"
	"github.com/rankpilot/backend/internal/database"
)

// HealthChecker provides health check functionality
type HealthChecker struct {
	db    *database.DB
	cache *cache.Redis
}

// NewHealthChecker creates a new health checker. The cache may be nil when
// Redis is not configured.
func NewHealthChecker(db *database.DB, cache *cache.Redis) *HealthChecker {
	return &HealthChecker{
		db:    db,
		cache: cache,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

// Health handles GET /health
func (h *HealthChecker) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	services := make(map[string]string)
	overallStatus := "healthy"

	if err := h.db.Ping(ctx); err != nil {
		services["database"] = "unhealthy"
		overallStatus = "degraded"
	} else {
		services["database"] = "healthy"
	}

	if h.cache != nil {
		if err := h.cache.Health(ctx); err != nil {
			services["redis"] = "unhealthy"
			overallStatus = "degraded"
		} else {
			services["redis"] = "healthy"
		}
	}

	status := http.StatusOK
	if overallStatus != "healthy" {
		status = http.StatusServiceUnavailable
	}

	response.JSON(w, status, HealthResponse{
		Status:    overallStatus,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  services,
	})
}

// LivenessProbe handles GET /health/live
func LivenessProbe(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ReadinessProbe handles GET /health/ready
func (h *HealthChecker) ReadinessProbe(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		response.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
