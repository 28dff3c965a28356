package repositories

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/bright-dela/alx-project-nexus/internal/cache"
)

// CacheAttemptCounter counts failed logins with a read-modify-write on the
// cache. Concurrent failures for the same email can lose increments; use
// AtomicAttemptCounter where that matters.
type CacheAttemptCounter struct {
	store  cache.Store
	window time.Duration
}

func NewCacheAttemptCounter(store cache.Store, window time.Duration) *CacheAttemptCounter {
	return &CacheAttemptCounter{store: store, window: window}
}

// Increment adds one failure and refreshes the window, returning the new count.
func (c *CacheAttemptCounter) Increment(ctx context.Context, email string) (int, error) {
	count, err := c.Count(ctx, email)
	if err != nil {
		return 0, err
	}
	count++

	if err := c.store.Set(ctx, failedLoginKey(email), strconv.Itoa(count), c.window); err != nil {
		return 0, unavailable(err)
	}
	return count, nil
}

func (c *CacheAttemptCounter) Count(ctx context.Context, email string) (int, error) {
	return readCount(ctx, c.store, email)
}

func (c *CacheAttemptCounter) Reset(ctx context.Context, email string) error {
	if err := c.store.Delete(ctx, failedLoginKey(email)); err != nil {
		return unavailable(err)
	}
	return nil
}

// ResetAll clears every failure counter and returns how many were removed.
func (c *CacheAttemptCounter) ResetAll(ctx context.Context) (int64, error) {
	return resetAllCounts(ctx, c.store)
}

// AtomicAttemptCounter increments with a single atomic cache operation.
type AtomicAttemptCounter struct {
	store  cache.CounterStore
	window time.Duration
}

func NewAtomicAttemptCounter(store cache.CounterStore, window time.Duration) *AtomicAttemptCounter {
	return &AtomicAttemptCounter{store: store, window: window}
}

func (c *AtomicAttemptCounter) Increment(ctx context.Context, email string) (int, error) {
	n, err := c.store.IncrWithTTL(ctx, failedLoginKey(email), c.window)
	if err != nil {
		return 0, unavailable(err)
	}
	return int(n), nil
}

func (c *AtomicAttemptCounter) Count(ctx context.Context, email string) (int, error) {
	return readCount(ctx, c.store, email)
}

func (c *AtomicAttemptCounter) Reset(ctx context.Context, email string) error {
	if err := c.store.Delete(ctx, failedLoginKey(email)); err != nil {
		return unavailable(err)
	}
	return nil
}

// ResetAll clears every failure counter and returns how many were removed.
func (c *AtomicAttemptCounter) ResetAll(ctx context.Context) (int64, error) {
	return resetAllCounts(ctx, c.store)
}

func resetAllCounts(ctx context.Context, store cache.Store) (int64, error) {
	n, err := store.DeleteByPrefix(ctx, failedLoginPrefix)
	if err != nil {
		return n, unavailable(err)
	}
	return n, nil
}

func readCount(ctx context.Context, store cache.Store, email string) (int, error) {
	raw, err := store.Get(ctx, failedLoginKey(email))
	if errors.Is(err, cache.ErrCacheMiss) {
		return 0, nil
	}
	if err != nil {
		return 0, unavailable(err)
	}

	count, err := strconv.Atoi(raw)
	if err != nil {
		// a corrupt counter restarts from zero
		return 0, nil
	}
	return count, nil
}
