package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/applink/internal/config"
	"github.com/MrSnakeDoc/applink/internal/httpserver"
	"github.com/MrSnakeDoc/applink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/applink/internal/index"
	"github.com/MrSnakeDoc/applink/internal/logger"
	"github.com/MrSnakeDoc/applink/internal/navigation"
	"github.com/MrSnakeDoc/applink/internal/platform/host"
	"github.com/MrSnakeDoc/applink/internal/redis"
	"github.com/MrSnakeDoc/applink/internal/resolver"
	"github.com/MrSnakeDoc/applink/internal/scheduler"
	redisstore "github.com/MrSnakeDoc/applink/internal/store/redis"
	"github.com/MrSnakeDoc/applink/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	memIndex    *index.MemoryIndex
	reloader    *scheduler.AppsReloader // nil when no apps file is configured
	gc          *scheduler.GarbageCollector
}

// New wires the service from cfg. Redis is optional: without an address
// the link cache and app registry live in memory only.
func New(cfg *config.Config) (*App, error) {
	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)
	memIndex := index.NewMemoryIndex()

	var redisClient *goredis.Client
	var store *redisstore.Store
	if cfg.RedisEnabled() {
		// Fail fast: a configured Redis that never answers is a deployment error
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.New(context.Background(), redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		loggerClient.Info("Redis initialized successfully")
		redisClient = client
		store = redisstore.NewStore(client)

		// Seed the registry from Redis so a restart serves apps before the file loads
		syncer := scheduler.NewRedisSyncer(store, memIndex, loggerClient)
		if err := syncer.Sync(context.Background()); err != nil {
			loggerClient.Warn("failed to sync apps from redis on startup",
				logger.Error(err))
		}
	} else {
		loggerClient.Info("redis not configured, using memory cache only")
	}

	var reloader *scheduler.AppsReloader
	var reloadTrigger chan struct{}
	if cfg.AppsFile != "" {
		loggerClient.Info("apps file configured, initializing apps reloader",
			logger.String("file", cfg.AppsFile))
		reloadTrigger = make(chan struct{}, 1)
		reloader = scheduler.NewAppsReloader(
			cfg.AppsFile,
			host.DefaultPlatform(),
			store,
			memIndex,
			loggerClient,
			cfg.ReloadInterval,
			reloadTrigger,
		)
	} else {
		loggerClient.Info("apps file not configured, app registry disabled")
	}

	gc := scheduler.NewGarbageCollector(
		store,
		memIndex,
		loggerClient,
		cfg.GCInterval,
		cfg.GCThreshold,
	)

	res := buildResolver(cfg, loggerClient, memIndex, store)
	if err := navigation.SetDefaultResolver(res); err != nil {
		loggerClient.Warn("default resolver already set", logger.Error(err))
	}

	d := deps.Deps{
		Logger:               loggerClient,
		StartTime:            time.Now(),
		Version:              version.Version,
		Commit:               version.Commit,
		BuildDate:            version.BuildDate,
		GoVersion:            version.GoVersion,
		TimeNow:              time.Now,
		AllowedHosts:         cfg.AllowedHosts,
		AllowedCIDRS:         cfg.AllowedCIDRS,
		TrustProxy:           cfg.TrustProxy,
		AppsFile:             cfg.AppsFile,
		RedisClient:          redisClient,
		MemoryIndex:          memIndex,
		Resolver:             res,
		Platforms:            cfg.Platforms,
		HomeURL:              cfg.HomeURL,
		AllowedDestinations:  cfg.AllowedDestinations,
		NavigateBurst:        cfg.NavigateBurst,
		NavigateRefillPerMin: cfg.NavigateRefillPerMin,
		ReloadTrigger:        reloadTrigger,
	}

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      httpserver.New(cfg, loggerClient, d),
		redisClient: redisClient,
		memIndex:    memIndex,
		reloader:    reloader,
		gc:          gc,
	}, nil
}

// buildResolver assembles fetch, parse and filter, behind the memory and
// Redis link caches when caching is enabled.
func buildResolver(cfg *config.Config, log logger.Logger, memIndex *index.MemoryIndex, store *redisstore.Store) resolver.Resolver {
	fetcher := resolver.NewHTTPFetcher(resolver.FetcherOptions{
		Timeout:         cfg.FetchTimeout,
		MaxBodyBytes:    cfg.FetchMaxBody,
		UserAgent:       cfg.FetchUserAgent,
		RatePerSecond:   cfg.FetchRate,
		BreakerFailures: uint32(max(cfg.BreakerFailures, 0)),
		BreakerTimeout:  cfg.BreakerTimeout,
		SkipTLSVerify:   cfg.SkipTLSVerify,
	}, log)

	httpRes := resolver.NewHTTPResolver(
		resolver.WithFetcher(fetcher),
		resolver.WithPlatforms(cfg.Platforms...),
		resolver.WithLogger(log),
	)

	if cfg.CacheTTL <= 0 {
		log.Info("link cache disabled")
		return httpRes
	}

	caches := []resolver.Cache{memIndex}
	if store != nil {
		caches = append(caches, store)
	}
	log.Info("link cache enabled",
		logger.Duration("ttl", cfg.CacheTTL),
		logger.Int("tiers", len(caches)))
	return resolver.NewCachingResolver(httpRes, cfg.CacheTTL, log, caches...)
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting applink v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.reloader != nil {
		if err := a.reloader.Start(ctx); err != nil {
			return fmt.Errorf("failed to start apps reloader: %w", err)
		}
		a.logger.Info("apps reloader started",
			logger.Duration("interval", a.cfg.ReloadInterval))
	}

	if err := a.gc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start garbage collector: %w", err)
	}
	a.logger.Info("garbage collector started",
		logger.Duration("interval", a.cfg.GCInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	if a.reloader != nil {
		a.reloader.Stop()
	}
	a.gc.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ applink stopped cleanly")
	_ = a.logger.Sync()
	return nil
}
