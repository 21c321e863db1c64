package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rankpilot/backend/internal/models"
)

// Context keys for authentication
type contextKey string

// UserContextKey is the context key for the authenticated user
const UserContextKey contextKey = "user"

// Middleware holds dependencies for authentication middleware
type Middleware struct {
	jwtService    *JWTService
	apiKeyService *APIKeyService
}

// NewMiddleware creates a new auth middleware
func NewMiddleware(jwtService *JWTService, apiKeyService *APIKeyService) *Middleware {
	return &Middleware{
		jwtService:    jwtService,
		apiKeyService: apiKeyService,
	}
}

// Authenticate middleware authenticates requests via JWT token or API key
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := m.authenticate(r)
		if err != nil {
			writeAuthError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authenticate attempts to authenticate a request
func (m *Middleware) authenticate(r *http.Request) (*models.User, error) {
	// Try API key first (X-API-Key header)
	apiKey := r.Header.Get("X-API-Key")
	if apiKey != "" {
		return m.apiKeyService.Validate(r.Context(), apiKey)
	}

	// Try JWT token (Authorization header)
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, ErrInvalidToken
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil, ErrInvalidToken
	}

	claims, err := m.jwtService.Validate(parts[1])
	if err != nil {
		return nil, err
	}

	return &models.User{
		ID:    claims.UserID,
		Email: claims.Email,
		Tier:  claims.Tier,
	}, nil
}

// GetUser returns the authenticated user from context
func GetUser(ctx context.Context) *models.User {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// GetUserID returns the authenticated user ID from context, or "" when the
// request is unauthenticated
func GetUserID(ctx context.Context) string {
	user := GetUser(ctx)
	if user == nil {
		return ""
	}
	return user.ID
}

// writeAuthError writes an authentication error response
func writeAuthError(w http.ResponseWriter, err error) {
	message := "Authentication required"

	switch err {
	case ErrExpiredToken:
		message = "Token has expired"
	case ErrInvalidToken:
		message = "Invalid authentication token"
	case ErrAPIKeyNotFound:
		message = "Invalid API key"
	case ErrAPIKeyRevoked:
		message = "API key has been revoked"
	case ErrAPIKeyInvalid:
		message = "Invalid API key format"
	}

	writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
		"error":   "unauthorized",
		"message": message,
	})
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
