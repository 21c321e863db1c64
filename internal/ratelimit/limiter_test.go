package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_AllowsUpToLimit(t *testing.T) {
	limiter := NewMemory(5, time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		d, err := limiter.Allow(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 4-i, d.Remaining)
		assert.Equal(t, 0, d.RetryAfter)
	}

	// The sixth request in the window is denied with a positive retry hint
	d, err := limiter.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.GreaterOrEqual(t, d.RetryAfter, 1)
	assert.LessOrEqual(t, d.RetryAfter, 60)
}

func TestMemory_WindowReset(t *testing.T) {
	limiter := NewMemory(2, 50*time.Millisecond)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, err := limiter.Allow(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}

	d, err := limiter.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	time.Sleep(80 * time.Millisecond)

	// A fresh window starts clean
	d, err = limiter.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)
}

func TestMemory_KeyIsolation(t *testing.T) {
	limiter := NewMemory(1, time.Minute)
	ctx := context.Background()

	d, err := limiter.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = limiter.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	// user-2 is unaffected by user-1's exhausted window
	d, err = limiter.Allow(ctx, "user-2")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestMemory_DeniedRequestsDoNotExtendWindow(t *testing.T) {
	limiter := NewMemory(1, 50*time.Millisecond)
	ctx := context.Background()

	d, err := limiter.Allow(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, d.Allowed)

	// Hammering while denied must not push the reset point out
	for i := 0; i < 5; i++ {
		d, err = limiter.Allow(ctx, "user-1")
		require.NoError(t, err)
		assert.False(t, d.Allowed)
	}

	time.Sleep(80 * time.Millisecond)

	d, err = limiter.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}
