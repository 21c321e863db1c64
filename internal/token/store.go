package token

import (
	"errors"
	"hash/fnv"
	"sync"
	"time"
)

var (
	// ErrDuplicateID is returned when inserting a token whose id already exists
	ErrDuplicateID = errors.New("token id already exists")
	// ErrNotFound is returned when a token id is unknown
	ErrNotFound = errors.New("token not found")
	// ErrExpired is returned when a token is past its TTL
	ErrExpired = errors.New("token has expired")
	// ErrUsageExceeded is returned when a token's usage ceiling is reached
	ErrUsageExceeded = errors.New("token usage ceiling reached")
)

// Store holds the authoritative token table. Tokens are owned exclusively by
// the store; callers receive copies and mutate usage only through ConsumeOne.
type Store interface {
	// Put inserts a new token. Fails with ErrDuplicateID if the id exists.
	Put(t *Token) error

	// Get returns a snapshot of the token, or ErrNotFound.
	Get(id string) (*Token, error)

	// ConsumeOne atomically verifies the token exists, is unexpired, and is
	// below its usage ceiling, then increments its usage count. The three
	// checks and the increment form a single critical section per token id.
	// On failure no mutation occurs. With ErrExpired or ErrUsageExceeded the
	// returned snapshot reflects the unchanged token so callers can report
	// its usage state; with ErrNotFound the snapshot is nil.
	ConsumeOne(id string, now time.Time) (*Token, error)

	// Remove deletes a token. Removing an unknown id is a no-op.
	Remove(id string)
}

const shardCount = 32

// MemoryStore is an in-process sharded token store. Sharding keeps unrelated
// tokens from serializing against each other while each shard's mutex makes
// check-then-increment indivisible per token.
type MemoryStore struct {
	shards [shardCount]*storeShard
}

type storeShard struct {
	mu     sync.Mutex
	tokens map[string]*Token
}

// NewMemoryStore creates a new in-memory token store
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	for i := range s.shards {
		s.shards[i] = &storeShard{tokens: make(map[string]*Token)}
	}
	return s
}

func (s *MemoryStore) shard(id string) *storeShard {
	h := fnv.New32a()
	h.Write([]byte(id))
	return s.shards[h.Sum32()%shardCount]
}

// Put inserts a new token, rejecting duplicate identifiers
func (s *MemoryStore) Put(t *Token) error {
	shard := s.shard(t.ID)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	if _, exists := shard.tokens[t.ID]; exists {
		return ErrDuplicateID
	}

	copied := *t
	shard.tokens[t.ID] = &copied
	return nil
}

// Get returns a snapshot of the token
func (s *MemoryStore) Get(id string) (*Token, error) {
	shard := s.shard(id)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	t, exists := shard.tokens[id]
	if !exists {
		return nil, ErrNotFound
	}

	snapshot := *t
	return &snapshot, nil
}

// ConsumeOne atomically consumes one unit of the token's usage ceiling
func (s *MemoryStore) ConsumeOne(id string, now time.Time) (*Token, error) {
	shard := s.shard(id)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	t, exists := shard.tokens[id]
	if !exists {
		return nil, ErrNotFound
	}
	if t.Expired(now) {
		snapshot := *t
		return &snapshot, ErrExpired
	}
	if t.UsageCount >= t.MaxUsage {
		snapshot := *t
		return &snapshot, ErrUsageExceeded
	}

	t.UsageCount++
	snapshot := *t
	return &snapshot, nil
}

// Remove deletes a token
func (s *MemoryStore) Remove(id string) {
	shard := s.shard(id)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	delete(shard.tokens, id)
}
