package deps

import (
	"time"

	"github.com/MrSnakeDoc/applink/internal/index"
	"github.com/MrSnakeDoc/applink/internal/logger"
	"github.com/MrSnakeDoc/applink/internal/resolver"
	"github.com/redis/go-redis/v9"
)

type Deps struct {
	Logger               logger.Logger
	StartTime            time.Time
	Version              string
	Commit               string
	BuildDate            string
	GoVersion            string
	TimeNow              func() time.Time   // for testing, defaults to time.Now
	AllowedHosts         []string           // Host headers allowed to access the server
	AllowedCIDRS         []string           // IPs allowed to access ops endpoints
	TrustProxy           bool               // true if running behind a trusted reverse proxy (e.g., cloudflared)
	AppsFile             string             // Path to apps.yaml ("" = no local app registry)
	RedisClient          *redis.Client      // Redis client connection (nil when disabled)
	MemoryIndex          *index.MemoryIndex // App registry and link cache
	Resolver             resolver.Resolver  // Resolution strategy shared by all requests
	Platforms            []string           // Configured platform preference list
	HomeURL              string             // Fallback when navigation opens nothing
	AllowedDestinations  []string           // Domains the server may resolve (empty = any)
	NavigateBurst        int                // Per-IP burst on /navigate
	NavigateRefillPerMin int                // Per-IP refill on /navigate
	ReloadTrigger        chan struct{}      // Channel to trigger manual apps reload (nil if no apps file)
}
