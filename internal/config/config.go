package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Resolution
	Platforms       []string      // platform preference list, most preferred first (empty = keep all)
	FetchTimeout    time.Duration // per metadata fetch (default: 5s)
	FetchMaxBody    int64         // max metadata page size in bytes (default: 2MiB)
	FetchUserAgent  string        // User-Agent sent when fetching pages
	FetchRate       float64       // fetches per second across all hosts (0 = unlimited)
	BreakerFailures int           // consecutive failures before a host is cut off (0 = no breaker)
	BreakerTimeout  time.Duration // how long an open breaker stays open (default: 30s)
	SkipTLSVerify   bool          // skip TLS verification when fetching (dev/local only)
	CacheTTL        time.Duration // resolved link cache TTL (0 = caching disabled)

	// App registry
	AppsFile       string        // path to apps.yaml (optional, empty = no local apps)
	ReloadInterval time.Duration // interval to reload apps.yaml (default: 1h)
	GCInterval     time.Duration // interval to run garbage collection (default: 1h)
	GCThreshold    time.Duration // how long a removed app is kept disabled (default: 30 days)

	// Server
	HomeURL              string   // fallback redirect when navigation opens nothing
	AllowedDestinations  []string // domains /navigate and /resolve may fetch (empty = any)
	NavigateBurst        int      // per-IP burst on /navigate
	NavigateRefillPerMin int      // per-IP refill rate on /navigate

	// Redis (optional, empty address disables it)
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict access to specific IP (e.g. "1.2.3.4, 5.6.7.8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
}

// Load reads the settings shared by every command. Nothing is required.
func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("APPLINK_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("APPLINK_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("APPLINK_LOG_LEVEL", "info"),
		PrettyLog: mustBool("APPLINK_PRETTY_LOG", true),

		// Resolution
		Platforms:       lowerAll(splitAndTrim(getenv("APPLINK_PLATFORMS", ""))),
		FetchTimeout:    mustDuration("APPLINK_FETCH_TIMEOUT", 5*time.Second),
		FetchMaxBody:    int64(getenvInt("APPLINK_FETCH_MAX_BODY", 2<<20)),
		FetchUserAgent:  getenv("APPLINK_FETCH_USER_AGENT", ""),
		FetchRate:       getenvFloat("APPLINK_FETCH_RATE", 0),
		BreakerFailures: getenvInt("APPLINK_BREAKER_FAILURES", 5),
		BreakerTimeout:  mustDuration("APPLINK_BREAKER_TIMEOUT", 30*time.Second),
		SkipTLSVerify:   mustBool("APPLINK_SKIP_TLS_VERIFY", false),
		CacheTTL:        mustDuration("APPLINK_CACHE_TTL", 15*time.Minute),

		// App registry
		AppsFile:       getenv("APPLINK_APPS_FILE", ""),
		ReloadInterval: mustDuration("APPLINK_RELOAD_INTERVAL", time.Hour),
		GCInterval:     mustDuration("APPLINK_GC_INTERVAL", time.Hour),
		GCThreshold:    mustDuration("APPLINK_GC_THRESHOLD", 30*24*time.Hour),

		// Server
		HomeURL:              getenv("APPLINK_HOME_URL", ""),
		AllowedDestinations:  lowerAll(splitAndTrim(getenv("APPLINK_ALLOWED_DESTINATIONS", ""))),
		NavigateBurst:        getenvInt("APPLINK_NAVIGATE_BURST", 20),
		NavigateRefillPerMin: getenvInt("APPLINK_NAVIGATE_REFILL_PER_MIN", 60),

		// Redis settings
		RedisAddr:             getenv("APPLINK_REDIS_ADDR", ""),
		RedisUser:             getenv("APPLINK_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("APPLINK_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("APPLINK_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("APPLINK_REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("APPLINK_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("APPLINK_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("APPLINK_TRUST_PROXY", false),
	}

	if cfg.RedisAddr != "" && cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: APPLINK_REDIS_PASSWORD is required when APPLINK_REDIS_PASSWORD_REQUIRED=true")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// LoadServer is Load plus the settings the HTTP service cannot run without.
func LoadServer() *Config {
	cfg := Load()
	cfg.HomeURL = requireEnv("APPLINK_HOME_URL")
	return cfg
}

// RedisEnabled reports whether a Redis address is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

func lowerAll(in []string) []string {
	for i := range in {
		in[i] = strings.ToLower(in[i])
	}
	return in
}
