package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/applink/internal/index"
	"github.com/MrSnakeDoc/applink/internal/logger"
	redisstore "github.com/MrSnakeDoc/applink/internal/store/redis"
)

const (
	// DefaultGCThreshold is the duration after which disabled apps are deleted
	DefaultGCThreshold = 30 * 24 * time.Hour // 30 days
)

// GarbageCollector removes long-disabled apps and expired cached links
type GarbageCollector struct {
	store     *redisstore.Store
	index     *index.MemoryIndex
	logger    logger.Logger
	interval  time.Duration
	threshold time.Duration
	stopCh    chan struct{}
}

// NewGarbageCollector creates a new garbage collector. store may be nil.
func NewGarbageCollector(
	store *redisstore.Store,
	idx *index.MemoryIndex,
	log logger.Logger,
	interval time.Duration,
	threshold time.Duration,
) *GarbageCollector {
	if threshold == 0 {
		threshold = DefaultGCThreshold
	}

	return &GarbageCollector{
		store:     store,
		index:     idx,
		logger:    log,
		interval:  interval,
		threshold: threshold,
		stopCh:    make(chan struct{}),
	}
}

// Start runs one collection, then collects periodically
func (gc *GarbageCollector) Start(ctx context.Context) error {
	if err := gc.Collect(ctx); err != nil {
		gc.logger.Warn("initial garbage collection failed",
			logger.Error(err))
	}

	ticker := time.NewTicker(gc.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := gc.Collect(ctx); err != nil {
					gc.logger.Error("garbage collection failed",
						logger.Error(err))
				}
			case <-gc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the garbage collector
func (gc *GarbageCollector) Stop() {
	close(gc.stopCh)
}

// Collect removes apps disabled for longer than the threshold and expired
// links from the memory cache. Redis links expire on their own TTL.
func (gc *GarbageCollector) Collect(ctx context.Context) error {
	now := time.Now()

	appsDeleted := gc.collectApps(ctx, now)
	linksDeleted := gc.index.CollectExpiredLinks(now)

	if appsDeleted+linksDeleted > 0 {
		gc.logger.Info("garbage collection completed",
			logger.Int("apps_deleted", appsDeleted),
			logger.Int("links_expired", linksDeleted))
	} else {
		gc.logger.Debug("no items to garbage collect")
	}

	return nil
}

func (gc *GarbageCollector) collectApps(ctx context.Context, now time.Time) int {
	deleted := 0

	for _, app := range gc.index.GetAllApps() {
		if !app.Disabled || app.UpdatedAt.IsZero() {
			continue
		}

		disabledFor := now.Sub(app.UpdatedAt)
		if disabledFor < gc.threshold {
			continue
		}

		gc.index.DeleteApp(app.Scheme)

		if gc.store != nil {
			if err := gc.store.DeleteApp(ctx, app.Scheme); err != nil {
				gc.logger.Warn("failed to delete app from redis",
					logger.String("scheme", app.Scheme),
					logger.Error(err))
			}
		}

		gc.logger.Info("garbage collected disabled app",
			logger.String("scheme", app.Scheme),
			logger.String("name", app.Name),
			logger.String("disabled_for", disabledFor.String()))

		deleted++
	}

	return deleted
}
