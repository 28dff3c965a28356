package background

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper removes expired entries from a store that does not expire them on
// its own, such as the in-memory cache.
type Sweeper interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// CleanupManager periodically purges expired cache entries
type CleanupManager struct {
	sweeper  Sweeper
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(sweeper Sweeper, logger *slog.Logger, interval time.Duration) *CleanupManager {
	return &CleanupManager{
		sweeper:  sweeper,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start runs the sweep on every tick until Stop is called or ctx is done
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	removed, err := cm.sweeper.PurgeExpired(cleanupCtx)
	if err != nil {
		cm.logger.Error("failed to purge expired cache entries", slog.Any("error", err))
		return
	}

	if removed > 0 {
		cm.logger.Debug("expired cache entries purged", slog.Int64("removed", removed))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
