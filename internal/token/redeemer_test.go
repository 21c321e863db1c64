package token

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedToken(t *testing.T, store Store, maxUsage int, expiresAt time.Time) *Token {
	t.Helper()
	tok := newTestToken("bmk_test", maxUsage, expiresAt)
	require.NoError(t, store.Put(tok))
	return tok
}

func TestRedeemer_Redeem(t *testing.T) {
	store := NewMemoryStore()
	seedToken(t, store, 1, time.Now().Add(time.Minute))
	redeemer := NewRedeemer(store)

	red, err := redeemer.Redeem(context.Background(), "bmk_test", "project-1", "link-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", red.UserID)
	assert.Equal(t, 1, red.UsageCount)
	assert.Equal(t, 1, red.MaxUsage)
	assert.Equal(t, 0, red.Remaining())
}

// A single-use token redeemed twice: the second attempt is rejected with
// usage_exceeded and the token is gone afterwards.
func TestRedeemer_SingleUseExhaustion(t *testing.T) {
	store := NewMemoryStore()
	seedToken(t, store, 1, time.Now().Add(time.Minute))
	redeemer := NewRedeemer(store)
	ctx := context.Background()

	_, err := redeemer.Redeem(ctx, "bmk_test", "project-1", "link-1")
	require.NoError(t, err)

	_, err = redeemer.Redeem(ctx, "bmk_test", "project-1", "link-1")
	var rejected *RedeemError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, ReasonUsageExceeded, rejected.Reason)
	assert.Equal(t, 1, rejected.UsageCount)
	assert.Equal(t, 1, rejected.MaxUsage)

	// The exhausted token was removed, so a third try reads as invalid
	_, err = redeemer.Redeem(ctx, "bmk_test", "project-1", "link-1")
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, ReasonInvalidToken, rejected.Reason)
}

func TestRedeemer_UnknownToken(t *testing.T) {
	redeemer := NewRedeemer(NewMemoryStore())

	_, err := redeemer.Redeem(context.Background(), "bmk_missing", "project-1", "link-1")
	var rejected *RedeemError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, ReasonInvalidToken, rejected.Reason)
}

func TestRedeemer_Expired(t *testing.T) {
	store := NewMemoryStore()
	seedToken(t, store, 1, time.Now().Add(-time.Minute))
	redeemer := NewRedeemer(store)

	_, err := redeemer.Redeem(context.Background(), "bmk_test", "project-1", "link-1")
	var rejected *RedeemError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, ReasonExpiredToken, rejected.Reason)

	// Expired tokens are evicted on touch
	_, err = store.Get("bmk_test")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedeemer_Mismatch(t *testing.T) {
	store := NewMemoryStore()
	seedToken(t, store, 1, time.Now().Add(time.Minute))
	redeemer := NewRedeemer(store)
	ctx := context.Background()

	cases := []struct {
		name      string
		projectID string
		linkID    string
	}{
		{"wrong project", "project-2", "link-1"},
		{"wrong link", "project-1", "link-2"},
		{"both wrong", "project-2", "link-2"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := redeemer.Redeem(ctx, "bmk_test", tc.projectID, tc.linkID)
			var rejected *RedeemError
			require.ErrorAs(t, err, &rejected)
			assert.Equal(t, ReasonMismatch, rejected.Reason)
		})
	}

	// Mismatched attempts never consume usage
	got, err := store.Get("bmk_test")
	require.NoError(t, err)
	assert.Equal(t, 0, got.UsageCount)

	// The token remains redeemable against its own triple
	_, err = redeemer.Redeem(ctx, "bmk_test", "project-1", "link-1")
	require.NoError(t, err)
}

// Concurrent redemption of a single-slot token: exactly one winner.
func TestRedeemer_ConcurrentSingleSlot(t *testing.T) {
	const attempts = 20

	store := NewMemoryStore()
	seedToken(t, store, 1, time.Now().Add(time.Minute))
	redeemer := NewRedeemer(store)

	var successes int64
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := redeemer.Redeem(context.Background(), "bmk_test", "project-1", "link-1"); err == nil {
				atomic.AddInt64(&successes, 1)
			}
		}()
	}

	close(start)
	wg.Wait()

	assert.Equal(t, int64(1), successes)
}
