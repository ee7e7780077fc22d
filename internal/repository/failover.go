package repository

import (
	"context"
	"sync/atomic"
	"time"

	"officebook/internal/domain"

	"github.com/rs/zerolog"
)

// FailoverDedupStore prefers the primary store and falls back to the
// secondary when the primary errors, probing for recovery once a minute.
// During a failover window dedup guarantees weaken to per-process.
type FailoverDedupStore struct {
	primary   domain.DedupStore
	fallback  domain.DedupStore
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck time.Time
}

func NewFailoverDedupStore(primary, fallback domain.DedupStore, logger *zerolog.Logger) *FailoverDedupStore {
	return &FailoverDedupStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverDedupStore) FirstSeen(ctx context.Context, externalID string, ttl time.Duration) (bool, error) {
	if !r.isDown.Load() {
		first, err := r.primary.FirstSeen(ctx, externalID, ttl)
		if err == nil {
			return first, nil
		}
		r.logger.Error().Err(err).Msg("primary dedup store failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	// Try to recover after 1 minute.
	if r.isDown.Load() && time.Since(r.lastCheck) > time.Minute {
		first, err := r.primary.FirstSeen(ctx, externalID, ttl)
		if err == nil {
			r.isDown.Store(false)
			return first, nil
		}
		r.lastCheck = time.Now()
	}

	return r.fallback.FirstSeen(ctx, externalID, ttl)
}

func (r *FailoverDedupStore) Forget(ctx context.Context, externalID string) error {
	if !r.isDown.Load() {
		err := r.primary.Forget(ctx, externalID)
		if err == nil {
			return nil
		}
		r.logger.Error().Err(err).Msg("primary dedup store failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	return r.fallback.Forget(ctx, externalID)
}
