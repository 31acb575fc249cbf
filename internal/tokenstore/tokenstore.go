// Package tokenstore records revoked auth tokens until they expire.
package tokenstore

import (
	"context"
	"sync"
	"time"
)

// Store is a denylist of token ids.
type Store interface {
	// Revoke denies id for ttl. A non-positive ttl is a no-op.
	Revoke(ctx context.Context, id string, ttl time.Duration) error
	IsRevoked(ctx context.Context, id string) (bool, error)
}

// MemoryStore is a process-local Store used when no redis is configured.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]time.Time), now: time.Now}
}

func (s *MemoryStore) Revoke(_ context.Context, id string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, exp := range s.entries {
		if !exp.After(now) {
			delete(s.entries, k)
		}
	}
	s.entries[id] = now.Add(ttl)
	return nil
}

func (s *MemoryStore) IsRevoked(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.entries[id]
	if !ok {
		return false, nil
	}
	if !exp.After(s.now()) {
		delete(s.entries, id)
		return false, nil
	}
	return true, nil
}

var _ Store = (*MemoryStore)(nil)
