package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/bright-dela/alx-project-nexus/internal/cache"
)

// LockStore records temporary account locks. A lock expires on its own after
// the configured duration.
type LockStore struct {
	store    cache.Store
	duration time.Duration
}

func NewLockStore(store cache.Store, duration time.Duration) *LockStore {
	return &LockStore{store: store, duration: duration}
}

func (s *LockStore) Lock(ctx context.Context, email string) error {
	if err := s.store.Set(ctx, accountLockedKey(email), "1", s.duration); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *LockStore) IsLocked(ctx context.Context, email string) (bool, error) {
	_, err := s.store.Get(ctx, accountLockedKey(email))
	if errors.Is(err, cache.ErrCacheMiss) {
		return false, nil
	}
	if err != nil {
		return false, unavailable(err)
	}
	return true, nil
}

func (s *LockStore) Unlock(ctx context.Context, email string) error {
	if err := s.store.Delete(ctx, accountLockedKey(email)); err != nil {
		return unavailable(err)
	}
	return nil
}

// UnlockAll lifts every active lock and returns how many were removed.
func (s *LockStore) UnlockAll(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteByPrefix(ctx, accountLockedPrefix)
	if err != nil {
		return n, unavailable(err)
	}
	return n, nil
}
