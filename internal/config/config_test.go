package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
	assert.Empty(t, cfg.RedisURL)
	assert.False(t, cfg.TrustProxyHeaders)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiration)
	assert.Equal(t, 5, cfg.RateLimitRequests)
	assert.Equal(t, 60*time.Second, cfg.RateLimitWindow)
	assert.Equal(t, 15*time.Minute, cfg.TokenTTL)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("RATE_LIMIT_REQUESTS", "10")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("BOOKMARKLET_TOKEN_TTL", "5m")
	t.Setenv("CORS_ORIGINS", "https://app.rankpilot.io, https://staging.rankpilot.io")
	t.Setenv("TRUST_PROXY_HEADERS", "true")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 10, cfg.RateLimitRequests)
	assert.Equal(t, 30*time.Second, cfg.RateLimitWindow)
	assert.Equal(t, 5*time.Minute, cfg.TokenTTL)
	assert.Equal(t, []string{"https://app.rankpilot.io", "https://staging.rankpilot.io"}, cfg.CORSOrigins)
	assert.True(t, cfg.TrustProxyHeaders)
}

func TestLoadMalformedValues(t *testing.T) {
	t.Setenv("RATE_LIMIT_REQUESTS", "many")
	t.Setenv("RATE_LIMIT_WINDOW", "soon")

	cfg := Load()

	assert.Equal(t, 5, cfg.RateLimitRequests)
	assert.Equal(t, 60*time.Second, cfg.RateLimitWindow)
}
