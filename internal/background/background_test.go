package background

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bright-dela/alx-project-nexus/internal/cache"
	"github.com/bright-dela/alx-project-nexus/internal/models"
	"github.com/bright-dela/alx-project-nexus/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockSender implements Sender for testing
type MockSender struct {
	SendFunc func(ctx context.Context, n models.Notification) error

	mu    sync.Mutex
	sent  []models.Notification
	calls atomic.Int32
}

func (m *MockSender) Send(ctx context.Context, n models.Notification) error {
	m.calls.Add(1)
	if m.SendFunc != nil {
		if err := m.SendFunc(ctx, n); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.sent = append(m.sent, n)
	m.mu.Unlock()
	return nil
}

func (m *MockSender) Sent() []models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Notification(nil), m.sent...)
}

func fastConfig() DispatcherConfig {
	return DispatcherConfig{
		Workers:        2,
		QueueSize:      8,
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}
}

func job(id string) models.Notification {
	return models.Notification{ID: id, Template: models.TemplateVerification, Recipient: "kofi@example.com"}
}

func TestDispatcher_DeliversQueuedJobs(t *testing.T) {
	sender := &MockSender{}
	d := NewNotificationDispatcher(sender, fastConfig(), testLogger())
	d.Start(context.Background())

	for i := 0; i < 5; i++ {
		require.True(t, d.Enqueue(job(string(rune('a'+i)))))
	}

	require.NoError(t, d.Stop(context.Background()))
	assert.Len(t, sender.Sent(), 5)
	assert.Equal(t, uint64(5), d.Delivered())
}

func TestDispatcher_RetriesThenSucceeds(t *testing.T) {
	var attempts atomic.Int32
	sender := &MockSender{SendFunc: func(ctx context.Context, n models.Notification) error {
		if attempts.Add(1) < 3 {
			return errors.New("temporary failure")
		}
		return nil
	}}
	d := NewNotificationDispatcher(sender, fastConfig(), testLogger())
	d.Start(context.Background())

	require.True(t, d.Enqueue(job("retry")))
	require.NoError(t, d.Stop(context.Background()))

	assert.Equal(t, int32(3), attempts.Load())
	assert.Equal(t, uint64(1), d.Delivered())
	assert.Equal(t, uint64(0), d.Failed())
}

func TestDispatcher_GivesUpAfterMaxAttempts(t *testing.T) {
	sender := &MockSender{SendFunc: func(ctx context.Context, n models.Notification) error {
		return errors.New("smtp down")
	}}
	d := NewNotificationDispatcher(sender, fastConfig(), testLogger())
	d.Start(context.Background())

	require.True(t, d.Enqueue(job("doomed")))
	require.NoError(t, d.Stop(context.Background()))

	assert.Equal(t, int32(3), sender.calls.Load())
	assert.Equal(t, uint64(1), d.Failed())
}

func TestDispatcher_UnknownTemplateIsNotRetried(t *testing.T) {
	sender := &MockSender{SendFunc: func(ctx context.Context, n models.Notification) error {
		return services.ErrUnknownTemplate
	}}
	d := NewNotificationDispatcher(sender, fastConfig(), testLogger())
	d.Start(context.Background())

	require.True(t, d.Enqueue(job("bad-template")))
	require.NoError(t, d.Stop(context.Background()))

	assert.Equal(t, int32(1), sender.calls.Load())
	assert.Equal(t, uint64(1), d.Failed())
}

func TestDispatcher_FullQueueDropsWithoutBlocking(t *testing.T) {
	release := make(chan struct{})
	sender := &MockSender{SendFunc: func(ctx context.Context, n models.Notification) error {
		<-release
		return nil
	}}
	cfg := fastConfig()
	cfg.Workers = 1
	cfg.QueueSize = 1
	d := NewNotificationDispatcher(sender, cfg, testLogger())
	d.Start(context.Background())

	require.True(t, d.Enqueue(job("in-flight")))
	// wait for the worker to pick up the first job so the queue slot frees
	require.Eventually(t, func() bool { return sender.calls.Load() == 1 }, time.Second, time.Millisecond)
	require.True(t, d.Enqueue(job("queued")))

	start := time.Now()
	assert.False(t, d.Enqueue(job("overflow")))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, uint64(1), d.Dropped())

	close(release)
	require.NoError(t, d.Stop(context.Background()))
	assert.Len(t, sender.Sent(), 2)
}

func TestDispatcher_EnqueueAfterStopIsRefused(t *testing.T) {
	d := NewNotificationDispatcher(&MockSender{}, fastConfig(), testLogger())
	d.Start(context.Background())
	require.NoError(t, d.Stop(context.Background()))

	assert.False(t, d.Enqueue(job("late")))
	assert.NoError(t, d.Stop(context.Background()), "stop is idempotent")
}

func TestDispatcher_AcceptedJobsSurviveConcurrentStop(t *testing.T) {
	sender := &MockSender{}
	cfg := fastConfig()
	cfg.QueueSize = 1024
	d := NewNotificationDispatcher(sender, cfg, testLogger())
	d.Start(context.Background())

	var accepted atomic.Int32
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				if d.Enqueue(job("concurrent")) {
					accepted.Add(1)
				}
			}
		}()
	}

	require.NoError(t, d.Stop(context.Background()))
	wg.Wait()

	assert.Len(t, sender.Sent(), int(accepted.Load()))
	assert.Equal(t, uint64(800), d.Delivered()+d.Dropped())
}

func TestDispatcher_StopTimeoutCancelsDeliveries(t *testing.T) {
	sender := &MockSender{SendFunc: func(ctx context.Context, n models.Notification) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	cfg := fastConfig()
	cfg.Workers = 1
	d := NewNotificationDispatcher(sender, cfg, testLogger())
	d.Start(context.Background())
	require.True(t, d.Enqueue(job("stuck")))
	require.Eventually(t, func() bool { return sender.calls.Load() == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Stop(ctx), context.DeadlineExceeded)
}

func TestCleanupManager_PurgesExpiredEntries(t *testing.T) {
	store := cache.NewMemoryStore("auth")
	now := time.Now()
	var mu sync.Mutex
	store.SetClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	})

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "otp:verification:a@example.com", "123456", time.Minute))
	require.NoError(t, store.Set(ctx, "blacklist:jti", "1", time.Hour))

	mu.Lock()
	now = now.Add(2 * time.Minute)
	mu.Unlock()

	cm := NewCleanupManager(store, testLogger(), 5*time.Millisecond)
	go cm.Start(ctx)
	defer cm.Stop()

	require.Eventually(t, func() bool { return store.Len() == 1 }, time.Second, 5*time.Millisecond)
}
