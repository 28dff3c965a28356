package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/bright-dela/alx-project-nexus/internal/cache"
)

// DenylistStore records revoked token IDs until the token would have
// expired anyway.
type DenylistStore struct {
	store cache.Store
	now   func() time.Time
}

func NewDenylistStore(store cache.Store) *DenylistStore {
	return &DenylistStore{store: store, now: time.Now}
}

// Blacklist revokes jti until expiresAt. Tokens already past expiry are
// skipped since they can no longer authenticate.
func (s *DenylistStore) Blacklist(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now()).Truncate(time.Second)
	if ttl <= 0 {
		return nil
	}
	if err := s.store.Set(ctx, blacklistKey(jti), "1", ttl); err != nil {
		return unavailable(err)
	}
	return nil
}

// Revoke denylists jti unless it already is, reporting whether this call
// revoked it. Concurrent callers for the same jti see exactly one true. An
// expired token cannot be revoked and reports false.
func (s *DenylistStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) (bool, error) {
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return false, nil
	}
	ok, err := s.store.SetNX(ctx, blacklistKey(jti), "1", ttl)
	if err != nil {
		return false, unavailable(err)
	}
	return ok, nil
}

func (s *DenylistStore) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	_, err := s.store.Get(ctx, blacklistKey(jti))
	if errors.Is(err, cache.ErrCacheMiss) {
		return false, nil
	}
	if err != nil {
		return false, unavailable(err)
	}
	return true, nil
}
