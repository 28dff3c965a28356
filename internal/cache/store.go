// Package cache provides the key-value store behind one-time codes, lockout
// counters and the token denylist.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache: key not found")

// Store is a string key-value store with per-key expiry. Implementations
// apply their configured key prefix transparently.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// SetNX stores value only when key is absent and reports whether it did.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
	// DeleteByPrefix removes every key starting with prefix and reports how
	// many were removed.
	DeleteByPrefix(ctx context.Context, prefix string) (int64, error)
	Ping(ctx context.Context) error
}

// CounterStore is a Store that can also increment a counter atomically,
// refreshing its expiry on every increment.
type CounterStore interface {
	Store
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}
