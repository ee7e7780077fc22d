package repository

import (
	"context"
	"sync"
	"time"
)

// MemoryDedupStore keeps processed payment event ids in process memory.
// Used as the failover target when redis is down and in tests.
type MemoryDedupStore struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

func NewMemoryDedupStore() *MemoryDedupStore {
	return &MemoryDedupStore{seen: make(map[string]time.Time)}
}

func (r *MemoryDedupStore) FirstSeen(ctx context.Context, externalID string, ttl time.Duration) (bool, error) {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	expiresAt, ok := r.seen[externalID]
	if ok && now.Before(expiresAt) {
		return false, nil
	}
	r.seen[externalID] = now.Add(ttl)

	// Opportunistic cleanup of expired entries.
	for id, exp := range r.seen {
		if now.After(exp) {
			delete(r.seen, id)
		}
	}
	return true, nil
}

func (r *MemoryDedupStore) Forget(ctx context.Context, externalID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.seen, externalID)
	return nil
}
