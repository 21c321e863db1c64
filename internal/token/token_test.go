package token

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := NewID()
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(id, IDPrefix))
		assert.Len(t, id, len(IDPrefix)+IDLength)
		assert.False(t, seen[id], "generated a duplicate id")
		seen[id] = true
	}
}

func TestTokenExpired(t *testing.T) {
	now := time.Now()
	tok := &Token{ExpiresAt: now.Add(time.Minute)}

	assert.False(t, tok.Expired(now))
	assert.True(t, tok.Expired(now.Add(2*time.Minute)))
	// Exactly at the boundary the token is still live
	assert.False(t, tok.Expired(tok.ExpiresAt))
}

func TestTokenRemaining(t *testing.T) {
	tok := &Token{MaxUsage: 5, UsageCount: 3}
	assert.Equal(t, 2, tok.Remaining())

	tok.UsageCount = 5
	assert.Equal(t, 0, tok.Remaining())

	tok.UsageCount = 7
	assert.Equal(t, 0, tok.Remaining())
}
