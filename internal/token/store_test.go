package token

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestToken(id string, maxUsage int, expiresAt time.Time) *Token {
	return &Token{
		ID:        id,
		UserID:    "user-1",
		ProjectID: "project-1",
		LinkID:    "link-1",
		MaxUsage:  maxUsage,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
}

func TestMemoryStore_PutAndGet(t *testing.T) {
	store := NewMemoryStore()
	tok := newTestToken("bmk_abc", 1, time.Now().Add(time.Minute))

	require.NoError(t, store.Put(tok))

	got, err := store.Get("bmk_abc")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, 0, got.UsageCount)

	// Snapshots must not alias store state
	got.UsageCount = 99
	again, err := store.Get("bmk_abc")
	require.NoError(t, err)
	assert.Equal(t, 0, again.UsageCount)
}

func TestMemoryStore_PutDuplicate(t *testing.T) {
	store := NewMemoryStore()
	tok := newTestToken("bmk_abc", 1, time.Now().Add(time.Minute))

	require.NoError(t, store.Put(tok))
	assert.ErrorIs(t, store.Put(tok), ErrDuplicateID)
}

func TestMemoryStore_GetNotFound(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get("bmk_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ConsumeOne(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Put(newTestToken("bmk_abc", 2, time.Now().Add(time.Minute))))

	now := time.Now()

	got, err := store.ConsumeOne("bmk_abc", now)
	require.NoError(t, err)
	assert.Equal(t, 1, got.UsageCount)

	got, err = store.ConsumeOne("bmk_abc", now)
	require.NoError(t, err)
	assert.Equal(t, 2, got.UsageCount)

	// An exceeded consume still returns the unchanged snapshot
	got, err = store.ConsumeOne("bmk_abc", now)
	assert.ErrorIs(t, err, ErrUsageExceeded)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.UsageCount)
	assert.Equal(t, 2, got.MaxUsage)
}

func TestMemoryStore_ConsumeOneExpired(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Put(newTestToken("bmk_abc", 5, time.Now().Add(-time.Minute))))

	snapshot, err := store.ConsumeOne("bmk_abc", time.Now())
	assert.ErrorIs(t, err, ErrExpired)
	require.NotNil(t, snapshot)
	assert.Equal(t, 0, snapshot.UsageCount)

	// Failed consumption must not mutate
	got, err := store.Get("bmk_abc")
	require.NoError(t, err)
	assert.Equal(t, 0, got.UsageCount)
}

func TestMemoryStore_ConsumeOneNotFound(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.ConsumeOne("bmk_missing", time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Remove(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Put(newTestToken("bmk_abc", 1, time.Now().Add(time.Minute))))

	store.Remove("bmk_abc")

	_, err := store.Get("bmk_abc")
	assert.ErrorIs(t, err, ErrNotFound)

	// Removing again is a no-op
	store.Remove("bmk_abc")
}

// The ceiling invariant: n+k concurrent consumptions of a token with
// maxUsage=n yield exactly n successes, regardless of interleaving.
func TestMemoryStore_ConsumeOneConcurrent(t *testing.T) {
	const maxUsage = 5
	const attempts = 50

	store := NewMemoryStore()
	require.NoError(t, store.Put(newTestToken("bmk_abc", maxUsage, time.Now().Add(time.Minute))))

	var successes, exceeded int64
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := store.ConsumeOne("bmk_abc", time.Now())
			switch err {
			case nil:
				atomic.AddInt64(&successes, 1)
			case ErrUsageExceeded:
				atomic.AddInt64(&exceeded, 1)
			}
		}()
	}

	close(start)
	wg.Wait()

	assert.Equal(t, int64(maxUsage), successes)
	assert.Equal(t, int64(attempts-maxUsage), exceeded)

	got, err := store.Get("bmk_abc")
	require.NoError(t, err)
	assert.Equal(t, maxUsage, got.UsageCount)
}
