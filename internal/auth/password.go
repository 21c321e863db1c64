package auth

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinPasswordLength is the minimum required password length
	MinPasswordLength = 8
	// MaxPasswordLength is the maximum allowed password length (bcrypt limit)
	MaxPasswordLength = 72
	// DefaultBcryptCost is the default bcrypt cost factor
	DefaultBcryptCost = 12
)

var (
	// ErrPasswordTooShort is returned when password is too short
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	// ErrPasswordTooLong is returned when password is too long
	ErrPasswordTooLong = errors.New("password must be at most 72 characters")
	// ErrPasswordNoUpper is returned when password has no uppercase letter
	ErrPasswordNoUpper = errors.New("password must contain at least one uppercase letter")
	// ErrPasswordNoLower is returned when password has no lowercase letter
	ErrPasswordNoLower = errors.New("password must contain at least one lowercase letter")
	// ErrPasswordNoDigit is returned when password has no digit
	ErrPasswordNoDigit = errors.New("password must contain at least one digit")
	// ErrPasswordCommon is returned when password is too common
	ErrPasswordCommon = errors.New("password is too common")
)

// Common passwords to reject (partial list)
var commonPasswords = map[string]bool{
	"password":    true,
	"12345678":    true,
	"123456789":   true,
	"1234567890":  true,
	"qwerty":      true,
	"qwertyuiop":  true,
	"password1":   true,
	"password123": true,
	"letmein":     true,
	"welcome":     true,
	"admin":       true,
	"iloveyou":    true,
	"sunshine":    true,
	"seotools":    true,
	"rankpilot":   true,
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), DefaultBcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// CheckPassword compares a password with its hash
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// ValidatePasswordStrength validates password meets security requirements
func ValidatePasswordStrength(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}

	if commonPasswords[strings.ToLower(password)] {
		return ErrPasswordCommon
	}

	var (
		hasUpper bool
		hasLower bool
		hasDigit bool
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasDigit = true
		}
	}

	if !hasUpper {
		return ErrPasswordNoUpper
	}
	if !hasLower {
		return ErrPasswordNoLower
	}
	if !hasDigit {
		return ErrPasswordNoDigit
	}

	return nil
}
