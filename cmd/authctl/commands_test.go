package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bright-dela/alx-project-nexus/internal/cache"
	"github.com/bright-dela/alx-project-nexus/internal/models"
	"github.com/bright-dela/alx-project-nexus/internal/repositories"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClaims struct {
	byID map[string]*models.SecurityClaim
}

func (f *fakeClaims) ListUnresolved(ctx context.Context, limit int) ([]*models.SecurityClaim, error) {
	var out []*models.SecurityClaim
	for _, c := range f.byID {
		if !c.Resolved && len(out) < limit {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeClaims) SetResolved(ctx context.Context, id string, resolved bool) (*models.SecurityClaim, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	c.Resolved = resolved
	return c, nil
}

type fixture struct {
	cli     *cli
	out     *bytes.Buffer
	claims  *fakeClaims
	locks   *repositories.LockStore
	counter *repositories.CacheAttemptCounter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := cache.NewRedisStore(client, "auth")

	f := &fixture{
		out: &bytes.Buffer{},
		claims: &fakeClaims{byID: map[string]*models.SecurityClaim{
			"c1": {
				ID:          "c1",
				UserID:      "u1",
				ClaimType:   models.ClaimAccountLocked,
				Description: "Account locked after 5 failed login attempts",
				IPAddress:   "203.0.113.7",
				CreatedAt:   time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
			},
		}},
		locks:   repositories.NewLockStore(store, 30*time.Minute),
		counter: repositories.NewCacheAttemptCounter(store, 30*time.Minute),
	}
	f.cli = &cli{claims: f.claims, locks: f.locks, attempts: f.counter, out: f.out}
	return f
}

func TestCLI_ListClaims(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.cli.run(context.Background(), []string{"claims", "-limit", "10"}))

	assert.Contains(t, f.out.String(), "account_locked")
	assert.Contains(t, f.out.String(), "203.0.113.7")
}

func TestCLI_ResolveAndReopen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.cli.run(ctx, []string{"resolve", "c1"}))
	assert.True(t, f.claims.byID["c1"].Resolved)
	assert.Contains(t, f.out.String(), "claim c1 resolved")

	f.out.Reset()
	require.NoError(t, f.cli.run(ctx, []string{"claims"}))
	assert.Contains(t, f.out.String(), "no unresolved security claims")

	require.NoError(t, f.cli.run(ctx, []string{"unresolve", "c1"}))
	assert.False(t, f.claims.byID["c1"].Resolved)

	err := f.cli.run(ctx, []string{"resolve", "missing"})
	assert.ErrorContains(t, err, "not found")
}

func TestCLI_UnlockClearsLockAndCounter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.locks.Lock(ctx, "ama@example.com"))
	_, err := f.counter.Increment(ctx, "ama@example.com")
	require.NoError(t, err)

	require.NoError(t, f.cli.run(ctx, []string{"unlock", " Ama@Example.com "}))

	locked, err := f.locks.IsLocked(ctx, "ama@example.com")
	require.NoError(t, err)
	assert.False(t, locked)

	count, err := f.counter.Count(ctx, "ama@example.com")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCLI_UnlockAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, email := range []string{"a@example.com", "b@example.com"} {
		require.NoError(t, f.locks.Lock(ctx, email))
		for i := 0; i < 5; i++ {
			_, err := f.counter.Increment(ctx, email)
			require.NoError(t, err)
		}
	}

	require.NoError(t, f.cli.run(ctx, []string{"unlock-all"}))
	assert.Contains(t, f.out.String(), "lifted 2 lockout(s), cleared 2 counter(s)")

	// the next failure starts a fresh count instead of relocking
	count, err := f.counter.Increment(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCLI_Usage(t *testing.T) {
	f := newFixture(t)

	for _, args := range [][]string{nil, {"bogus"}, {"resolve"}, {"unlock", "a", "b"}} {
		assert.ErrorIs(t, f.cli.run(context.Background(), args), errUsage, "%v", args)
	}
}
