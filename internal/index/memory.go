package index

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/applink/internal/domain"
)

type linkEntry struct {
	link      *domain.AppLink
	expiresAt time.Time
}

// MemoryIndex provides in-memory storage for the app registry and resolved links.
// It is the primary source for apps and the first cache tier for links.
type MemoryIndex struct {
	mu         sync.RWMutex
	apps       map[string]*domain.App // scheme -> App
	links      map[string]linkEntry   // source URL -> cached link
	lastReload time.Time              // Timestamp of last apps reload
}

// NewMemoryIndex creates a new memory index
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		apps:  make(map[string]*domain.App),
		links: make(map[string]linkEntry),
	}
}

// ─────────────────────────────────────────────────────────────────
// App registry
// ─────────────────────────────────────────────────────────────────

// UpdateApps replaces all apps in the index
func (idx *MemoryIndex) UpdateApps(apps []*domain.App) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.apps = make(map[string]*domain.App, len(apps))
	for _, app := range apps {
		idx.apps[app.Scheme] = app
	}
	idx.lastReload = time.Now()
}

// GetApp retrieves an app by scheme
func (idx *MemoryIndex) GetApp(scheme string) (*domain.App, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	app, ok := idx.apps[scheme]
	return app, ok
}

// GetAllApps returns all apps, disabled ones included
func (idx *MemoryIndex) GetAllApps() []*domain.App {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	apps := make([]*domain.App, 0, len(idx.apps))
	for _, app := range idx.apps {
		apps = append(apps, app)
	}
	return apps
}

// AddApp adds or updates a single app
func (idx *MemoryIndex) AddApp(app *domain.App) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.apps[app.Scheme] = app
}

// DeleteApp removes an app from the index
func (idx *MemoryIndex) DeleteApp(scheme string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	delete(idx.apps, scheme)
}

// Count returns the number of apps in the index
func (idx *MemoryIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.apps)
}

// GetLastReload returns the timestamp of the last apps reload
func (idx *MemoryIndex) GetLastReload() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastReload
}

// ─────────────────────────────────────────────────────────────────
// Resolved link cache
// ─────────────────────────────────────────────────────────────────

// GetLink returns the cached link for key if present and not expired.
func (idx *MemoryIndex) GetLink(_ context.Context, key string) (*domain.AppLink, bool, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	entry, ok := idx.links[key]
	if !ok || !time.Now().Before(entry.expiresAt) {
		return nil, false, nil
	}
	return entry.link.Clone(), true, nil
}

// SaveLink caches link under key for ttl.
func (idx *MemoryIndex) SaveLink(_ context.Context, key string, link *domain.AppLink, ttl time.Duration) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.links[key] = linkEntry{link: link.Clone(), expiresAt: time.Now().Add(ttl)}
	return nil
}

// DeleteLink removes a cached link
func (idx *MemoryIndex) DeleteLink(key string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	delete(idx.links, key)
}

// CollectExpiredLinks drops every link expired at now and returns how many.
func (idx *MemoryIndex) CollectExpiredLinks(now time.Time) int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	removed := 0
	for key, entry := range idx.links {
		if !now.Before(entry.expiresAt) {
			delete(idx.links, key)
			removed++
		}
	}
	return removed
}

// LinkCount returns the number of cached links, expired ones included
func (idx *MemoryIndex) LinkCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.links)
}
