package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/applink/internal/domain"
	"github.com/MrSnakeDoc/applink/internal/index"
	"github.com/MrSnakeDoc/applink/internal/logger"
	"github.com/MrSnakeDoc/applink/internal/sources/apps"
	redisstore "github.com/MrSnakeDoc/applink/internal/store/redis"
)

// AppsReloader handles periodic reloading of the apps file
type AppsReloader struct {
	loader        *apps.Loader
	mapper        *apps.Mapper
	store         *redisstore.Store
	index         *index.MemoryIndex
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewAppsReloader creates a new apps reloader. store may be nil.
func NewAppsReloader(
	appsFile string,
	defaultPlatform string,
	store *redisstore.Store,
	idx *index.MemoryIndex,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *AppsReloader {
	return &AppsReloader{
		loader:        apps.NewLoader(appsFile),
		mapper:        apps.NewMapper(defaultPlatform),
		store:         store,
		index:         idx,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start loads the apps file once, then reloads it periodically and on manual trigger
func (ar *AppsReloader) Start(ctx context.Context) error {
	if err := ar.Reload(ctx); err != nil {
		return fmt.Errorf("initial apps reload failed: %w", err)
	}

	ticker := time.NewTicker(ar.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := ar.Reload(ctx); err != nil {
					ar.logger.Error("failed to reload apps",
						logger.Error(err))
				}
			case <-ar.manualTrigger:
				ar.logger.Info("manual apps reload triggered")
				if err := ar.Reload(ctx); err != nil {
					ar.logger.Error("failed to reload apps",
						logger.Error(err))
				}
			case <-ar.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reloader
func (ar *AppsReloader) Stop() {
	close(ar.stopCh)
}

// Reload loads the apps file and updates index + store
func (ar *AppsReloader) Reload(ctx context.Context) error {
	ar.logger.Info("reloading apps file")

	config, err := ar.loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load apps: %w", err)
	}

	newApps, err := ar.mapper.MapApps(config)
	if err != nil {
		return fmt.Errorf("failed to map apps: %w", err)
	}

	ar.logger.Info("loaded apps from file",
		logger.Int("count", len(newApps)))

	seen := make(map[string]bool, len(newApps))
	for _, app := range newApps {
		seen[app.Scheme] = true
	}

	// Apps that vanished from the file are disabled, not dropped, so the
	// collector can remove them after the grace period.
	var disabled []*domain.App
	for _, existing := range ar.fileApps() {
		if seen[existing.Scheme] {
			continue
		}
		if !existing.Disabled {
			existing.Disabled = true
			existing.UpdatedAt = time.Now()
		}
		disabled = append(disabled, existing)
	}

	if len(disabled) > 0 {
		ar.logger.Info("marking removed apps as disabled",
			logger.Int("count", len(disabled)))
	}

	newApps = append(newApps, disabled...)
	ar.index.UpdateApps(newApps)

	// Redis is best effort, the memory index is the primary source
	if ar.store != nil {
		if err := ar.store.SaveAppsMany(ctx, newApps); err != nil {
			ar.logger.Warn("failed to save apps to redis",
				logger.Error(err))
		} else {
			ar.logger.Debug("apps saved to redis")
		}
	}

	return nil
}

// fileApps returns indexed apps that came from the apps file
func (ar *AppsReloader) fileApps() []*domain.App {
	var out []*domain.App
	for _, app := range ar.index.GetAllApps() {
		for _, source := range app.Sources {
			if source == apps.SourceFile {
				out = append(out, app)
				break
			}
		}
	}
	return out
}
