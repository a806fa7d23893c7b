package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/applink/internal/httpserver/deps"
)

type componentStatus struct {
	OK         bool     `json:"ok"`
	AppsLoaded *int     `json:"apps_loaded,omitempty"`
	LinkCount  *int     `json:"cached_links,omitempty"`
	LastReload string   `json:"last_reload,omitempty"`
	Mode       string   `json:"mode,omitempty"`
	Platforms  []string `json:"platforms,omitempty"`
	Impact     string   `json:"impact,omitempty"`
	Error      string   `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appsCount := d.MemoryIndex.Count()
		linkCount := d.MemoryIndex.LinkCount()
		lastReload := d.MemoryIndex.GetLastReload()
		lastReloadStr := "never"
		if !lastReload.IsZero() {
			lastReloadStr = lastReload.Format("2006-01-02 15:04:05")
		}

		registry := componentStatus{
			OK:         d.AppsFile == "" || appsCount > 0,
			AppsLoaded: &appsCount,
			LastReload: lastReloadStr,
			Mode:       "file",
		}
		if d.AppsFile == "" {
			registry.Mode = "disabled"
		}

		platforms := d.Platforms
		if len(platforms) == 0 {
			platforms = []string{"*"}
		}

		components := map[string]componentStatus{
			"registry": registry,
			"redis":    checkRedis(r.Context(), d),
			"resolver": {
				OK:        d.Resolver != nil,
				Mode:      "al-meta-tags",
				Platforms: platforms,
				LinkCount: &linkCount,
			},
		}

		writeJSON(w, d, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

func determineMode(components map[string]componentStatus) string {
	if resolver, ok := components["resolver"]; ok && !resolver.OK {
		return "critical"
	}
	if registry, ok := components["registry"]; ok && !registry.OK {
		return "degraded" // no local apps, only web fallbacks open
	}
	if redis, ok := components["redis"]; ok && !redis.OK && redis.Mode != "disabled" {
		return "degraded" // memory-only cache
	}
	return "optimal"
}

func checkRedis(parent context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{
			OK:     true,
			Mode:   "disabled",
			Impact: "memory-cache-only",
		}
	}

	ctx, cancel := context.WithTimeout(parent, 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "shared-cache-disabled",
			Error:  "timeout",
		}
	}

	return componentStatus{
		OK:     true,
		Mode:   "optimal",
		Impact: "shared-cache-enabled",
	}
}
