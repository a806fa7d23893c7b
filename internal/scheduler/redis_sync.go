package scheduler

import (
	"context"

	"github.com/MrSnakeDoc/applink/internal/index"
	"github.com/MrSnakeDoc/applink/internal/logger"
	redisstore "github.com/MrSnakeDoc/applink/internal/store/redis"
)

// RedisSyncer seeds the memory index from Redis on startup
type RedisSyncer struct {
	store  *redisstore.Store
	index  *index.MemoryIndex
	logger logger.Logger
}

// NewRedisSyncer creates a new Redis syncer
func NewRedisSyncer(
	store *redisstore.Store,
	idx *index.MemoryIndex,
	log logger.Logger,
) *RedisSyncer {
	return &RedisSyncer{
		store:  store,
		index:  idx,
		logger: log,
	}
}

// Sync loads apps from Redis into the memory index
func (rs *RedisSyncer) Sync(ctx context.Context) error {
	rs.logger.Info("syncing apps from redis to memory")

	apps, err := rs.store.GetAllApps(ctx)
	if err != nil {
		return err
	}

	if len(apps) == 0 {
		rs.logger.Info("no apps found in redis")
		return nil
	}

	rs.index.UpdateApps(apps)

	rs.logger.Info("synced apps from redis",
		logger.Int("count", len(apps)))

	return nil
}
