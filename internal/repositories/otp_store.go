package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/bright-dela/alx-project-nexus/internal/cache"
	"github.com/bright-dela/alx-project-nexus/internal/models"
)

// OTPStore keeps at most one live code per (purpose, email).
type OTPStore struct {
	store cache.Store
	ttl   time.Duration
}

func NewOTPStore(store cache.Store, ttl time.Duration) *OTPStore {
	return &OTPStore{store: store, ttl: ttl}
}

// Save overwrites any existing code and restarts its lifetime.
func (s *OTPStore) Save(ctx context.Context, purpose models.OTPPurpose, email, code string) error {
	if err := s.store.Set(ctx, otpKey(purpose, email), code, s.ttl); err != nil {
		return unavailable(err)
	}
	return nil
}

// Get returns the stored code, or found=false if none is live.
func (s *OTPStore) Get(ctx context.Context, purpose models.OTPPurpose, email string) (string, bool, error) {
	code, err := s.store.Get(ctx, otpKey(purpose, email))
	if errors.Is(err, cache.ErrCacheMiss) {
		return "", false, nil
	}
	if err != nil {
		return "", false, unavailable(err)
	}
	return code, true, nil
}

func (s *OTPStore) Delete(ctx context.Context, purpose models.OTPPurpose, email string) error {
	if err := s.store.Delete(ctx, otpKey(purpose, email)); err != nil {
		return unavailable(err)
	}
	return nil
}
