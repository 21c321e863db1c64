package handlers

import (
	"errors"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rankpilot/backend/internal/api/request"
	"github.com/rankpilot/backend/internal/api/response"
	"github.com/rankpilot/backend/internal/auth"
	"github.com/rankpilot/backend/internal/models"
	"github.com/rankpilot/backend/internal/repository"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	users         *repository.UserRepository
	jwtService    *auth.JWTService
	apiKeyService *auth.APIKeyService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	users *repository.UserRepository,
	jwtService *auth.JWTService,
	apiKeyService *auth.APIKeyService,
) *AuthHandler {
	return &AuthHandler{
		users:         users,
		jwtService:    jwtService,
		apiKeyService: apiKeyService,
	}
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse represents an authentication response
type AuthResponse struct {
	Token     string        `json:"token"`
	ExpiresIn int64         `json:"expires_in"`
	User      *UserResponse `json:"user"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Tier      string    `json:"tier"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateAPIKeyRequest represents a request to create an API key
type CreateAPIKeyRequest struct {
	Name string `json:"name"`
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Register handles user registration
// POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, "invalid_request", "Invalid request body")
		return
	}

	if !emailRegex.MatchString(req.Email) {
		response.BadRequest(w, "invalid_email", "Invalid email address")
		return
	}

	if err := auth.ValidatePasswordStrength(req.Password); err != nil {
		response.BadRequest(w, "weak_password", err.Error())
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		response.InternalError(w, "Failed to process registration")
		return
	}

	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: passwordHash,
		Tier:         models.TierFree,
	}

	if err := h.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			response.Error(w, http.StatusConflict, "email_taken", map[string]interface{}{
				"message": "An account with this email already exists",
			})
			return
		}
		log.Printf("[auth] Failed to create user: %v", err)
		response.InternalError(w, "Failed to create account")
		return
	}

	h.writeAuthResponse(w, http.StatusCreated, user)
}

// Login handles user login
// POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, "invalid_request", "Invalid request body")
		return
	}

	user, err := h.users.GetByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		// Same response for unknown email and bad password
		response.Unauthorized(w, "Invalid email or password")
		return
	}

	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		response.Unauthorized(w, "Invalid email or password")
		return
	}

	h.writeAuthResponse(w, http.StatusOK, user)
}

// GetCurrentUser returns the authenticated user's profile
// GET /api/v1/user/me
func (h *AuthHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
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

	response.JSON(w, http.StatusOK, &UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Tier:      user.Tier,
		CreatedAt: user.CreatedAt,
	})
}

// CreateAPIKey creates a new API key for the authenticated user
// POST /api/v1/user/api-keys
func (h *AuthHandler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	sessionUser := auth.GetUser(r.Context())
	if sessionUser == nil {
		response.Unauthorized(w, "")
		return
	}

	var req CreateAPIKeyRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, "invalid_request", "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		response.BadRequest(w, "invalid_request", "name is required")
		return
	}

	generated, err := h.apiKeyService.Generate(r.Context(), sessionUser.ID, req.Name)
	if err != nil {
		log.Printf("[auth] Failed to generate api key for user %s: %v", sessionUser.ID, err)
		response.InternalError(w, "Failed to create API key")
		return
	}

	response.Created(w, generated)
}

// ListAPIKeys lists the authenticated user's API keys
// GET /api/v1/user/api-keys
func (h *AuthHandler) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	sessionUser := auth.GetUser(r.Context())
	if sessionUser == nil {
		response.Unauthorized(w, "")
		return
	}

	keys, err := h.apiKeyService.List(r.Context(), sessionUser.ID)
	if err != nil {
		response.InternalError(w, "Failed to list API keys")
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{"api_keys": keys})
}

// RevokeAPIKey revokes one of the authenticated user's API keys
// DELETE /api/v1/user/api-keys/{keyID}
func (h *AuthHandler) RevokeAPIKey(w http.ResponseWriter, r *http.Request) {
	sessionUser := auth.GetUser(r.Context())
	if sessionUser == nil {
		response.Unauthorized(w, "")
		return
	}

	keyID := request.GetURLParam(r, "keyID")
	if err := h.apiKeyService.Revoke(r.Context(), keyID, sessionUser.ID); err != nil {
		if errors.Is(err, auth.ErrAPIKeyNotFound) {
			response.NotFound(w, "api_key_not_found", "API key not found")
			return
		}
		response.InternalError(w, "Failed to revoke API key")
		return
	}

	response.NoContent(w)
}

func (h *AuthHandler) writeAuthResponse(w http.ResponseWriter, status int, user *models.User) {
	tokenString, err := h.jwtService.Generate(user)
	if err != nil {
		log.Printf("[auth] Failed to sign session token for user %s: %v", user.ID, err)
		response.InternalError(w, "Failed to create session")
		return
	}

	response.JSON(w, status, AuthResponse{
		Token:     tokenString,
		ExpiresIn: int64(h.jwtService.Expiration().Seconds()),
		User: &UserResponse{
			ID:        user.ID,
			Email:     user.Email,
			Tier:      user.Tier,
			CreatedAt: user.CreatedAt,
		},
	})
}
