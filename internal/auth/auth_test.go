package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rankpilot/backend/internal/models"
)

func TestJWTService_GenerateAndValidate(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)
	user := &models.User{ID: "user-1", Email: "user@example.com", Tier: models.TierPro}

	tokenString, err := svc.Generate(user)
	require.NoError(t, err)

	claims, err := svc.Validate(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, models.TierPro, claims.Tier)
	assert.Equal(t, "rankpilot", claims.Issuer)
}

func TestJWTService_ValidateInvalid(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)

	_, err := svc.Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_ValidateWrongSecret(t *testing.T) {
	user := &models.User{ID: "user-1", Email: "user@example.com", Tier: models.TierFree}

	tokenString, err := NewJWTService("secret-a", time.Hour).Generate(user)
	require.NoError(t, err)

	_, err = NewJWTService("secret-b", time.Hour).Validate(tokenString)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_ValidateExpired(t *testing.T) {
	svc := NewJWTService("test-secret", -time.Minute)
	user := &models.User{ID: "user-1", Email: "user@example.com", Tier: models.TierFree}

	tokenString, err := svc.Generate(user)
	require.NoError(t, err)

	_, err = svc.Validate(tokenString)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestContextAccessors(t *testing.T) {
	user := &models.User{ID: "user-1", Email: "user@example.com", Tier: models.TierFree}
	ctx := context.WithValue(context.Background(), UserContextKey, user)

	assert.Equal(t, user, GetUser(ctx))
	assert.Equal(t, "user-1", GetUserID(ctx))

	// Unauthenticated context
	assert.Nil(t, GetUser(context.Background()))
	assert.Equal(t, "", GetUserID(context.Background()))
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Correct1Horse")
	require.NoError(t, err)
	assert.NotEqual(t, "Correct1Horse", hash)

	assert.True(t, CheckPassword("Correct1Horse", hash))
	assert.False(t, CheckPassword("Wrong1Horse", hash))
}

func TestValidatePasswordStrength(t *testing.T) {
	cases := []struct {
		name     string
		password string
		want     error
	}{
		{"valid", "Correct1Horse", nil},
		{"too short", "Ab1", ErrPasswordTooShort},
		{"too long", strings.Repeat("Aa1", 30), ErrPasswordTooLong},
		{"no uppercase", "correct1horse", ErrPasswordNoUpper},
		{"no lowercase", "CORRECT1HORSE", ErrPasswordNoLower},
		{"no digit", "CorrectHorse", ErrPasswordNoDigit},
		{"common", "Password123", ErrPasswordCommon},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePasswordStrength(tc.password)
			if tc.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.want)
			}
		})
	}
}
