package background

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bright-dela/alx-project-nexus/internal/models"
	"github.com/bright-dela/alx-project-nexus/internal/services"
	pkglogger "github.com/bright-dela/alx-project-nexus/pkg/logger"
	"github.com/cenkalti/backoff/v4"
)

// Sender delivers a single notification
type Sender interface {
	Send(ctx context.Context, n models.Notification) error
}

// DispatcherConfig controls queueing and retry behavior
type DispatcherConfig struct {
	Workers        int
	QueueSize      int
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// SendTimeout bounds a single delivery attempt.
	SendTimeout time.Duration
}

// NotificationDispatcher delivers notifications off the request path. Jobs
// go into a bounded queue drained by a fixed worker pool; a full queue drops
// the job instead of blocking the caller.
type NotificationDispatcher struct {
	cfg    DispatcherConfig
	sender Sender
	logger *slog.Logger

	queue     chan models.Notification
	done      chan struct{}
	wg        sync.WaitGroup
	cancel    context.CancelFunc
	started   atomic.Bool
	closeOnce sync.Once

	// mu orders Enqueue sends before the close of done, so every accepted
	// job is seen by the drain.
	mu     sync.RWMutex
	closed bool

	dropped   atomic.Uint64
	delivered atomic.Uint64
	failed    atomic.Uint64
}

// NewNotificationDispatcher creates a dispatcher. Call Start before use.
func NewNotificationDispatcher(sender Sender, cfg DispatcherConfig, logger *slog.Logger) *NotificationDispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 5 * time.Second
	}
	if cfg.MaxBackoff < cfg.InitialBackoff {
		cfg.MaxBackoff = cfg.InitialBackoff
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 30 * time.Second
	}

	return &NotificationDispatcher{
		cfg:    cfg,
		sender: sender,
		logger: logger,
		queue:  make(chan models.Notification, cfg.QueueSize),
		done:   make(chan struct{}),
	}
}

// Start launches the worker pool. Workers stop when ctx is cancelled or
// Stop is called.
func (d *NotificationDispatcher) Start(ctx context.Context) {
	if !d.started.CompareAndSwap(false, true) {
		return
	}

	workerCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker(workerCtx)
	}

	d.logger.Info("notification dispatcher started",
		slog.Int("workers", d.cfg.Workers),
		slog.Int("queue_size", d.cfg.QueueSize))
}

// Enqueue queues n without blocking. It returns false when the dispatcher is
// stopped or the queue is full.
func (d *NotificationDispatcher) Enqueue(n models.Notification) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.dropped.Add(1)
		return false
	}

	select {
	case d.queue <- n:
		return true
	default:
		d.dropped.Add(1)
		d.logger.Warn("notification queue full, dropping job",
			slog.String("notification_id", n.ID),
			slog.String("template", string(n.Template)),
			slog.String("email", pkglogger.SanitizedEmail(n.Recipient)))
		return false
	}
}

func (d *NotificationDispatcher) worker(ctx context.Context) {
	defer d.wg.Done()

	for {
		select {
		case n := <-d.queue:
			d.deliver(ctx, n)
		case <-d.done:
			// drain what was accepted before Stop
			for {
				select {
				case n := <-d.queue:
					d.deliver(ctx, n)
				default:
					return
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

// deliver sends n with exponential backoff between attempts
func (d *NotificationDispatcher) deliver(ctx context.Context, n models.Notification) {
	attempt := 0
	operation := func() error {
		attempt++
		sendCtx, cancel := context.WithTimeout(ctx, d.cfg.SendTimeout)
		defer cancel()

		err := d.sender.Send(sendCtx, n)
		if errors.Is(err, services.ErrUnknownTemplate) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		d.logger.Warn("notification delivery failed, retrying",
			slog.String("notification_id", n.ID),
			slog.Int("attempt", attempt),
			slog.Duration("retry_in", wait),
			slog.Any("error", err))
	}

	if err := backoff.RetryNotify(operation, d.newBackOff(ctx), notify); err != nil {
		d.failed.Add(1)
		d.logger.Error("notification delivery abandoned",
			slog.String("notification_id", n.ID),
			slog.String("template", string(n.Template)),
			slog.String("email", pkglogger.SanitizedEmail(n.Recipient)),
			slog.Int("attempts", attempt),
			slog.Any("error", err))
		return
	}

	d.delivered.Add(1)
}

func (d *NotificationDispatcher) newBackOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = d.cfg.InitialBackoff
	exp.MaxInterval = d.cfg.MaxBackoff
	exp.MaxElapsedTime = 0
	exp.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(d.cfg.MaxAttempts-1)), ctx)
}

// Stop refuses new jobs and waits for the workers to drain the queue. If ctx
// expires first, in-flight deliveries are cancelled and ctx's error returned.
func (d *NotificationDispatcher) Stop(ctx context.Context) error {
	var err error
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.done)
		d.mu.Unlock()

		finished := make(chan struct{})
		go func() {
			d.wg.Wait()
			close(finished)
		}()

		select {
		case <-finished:
		case <-ctx.Done():
			err = ctx.Err()
		}

		if d.cancel != nil {
			d.cancel()
		}
		<-finished

		d.logger.Info("notification dispatcher stopped",
			slog.Uint64("delivered", d.delivered.Load()),
			slog.Uint64("failed", d.failed.Load()),
			slog.Uint64("dropped", d.dropped.Load()))
	})
	return err
}

// Dropped returns how many jobs were refused because the queue was full or
// the dispatcher was stopped.
func (d *NotificationDispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

// Delivered returns how many jobs were sent successfully.
func (d *NotificationDispatcher) Delivered() uint64 {
	return d.delivered.Load()
}

// Failed returns how many jobs exhausted their attempts.
func (d *NotificationDispatcher) Failed() uint64 {
	return d.failed.Load()
}
