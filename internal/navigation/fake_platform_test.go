package navigation

import (
	"context"
	"strings"
	"sync"

	"github.com/MrSnakeDoc/applink/internal/domain"
)

// fakePlatform answers CanOpen from a set of platforms and records every
// Open call in order.
type fakePlatform struct {
	mu         sync.Mutex
	openable   map[string]bool   // platform -> can open
	failOpen   map[string]bool   // platform -> Open returns false
	versions   map[string]string // scheme -> installed version
	rejectURL  map[string]bool   // url without query -> CanOpen false
	opened     []domain.Target
	probed     []domain.Target
	beforeOpen func()
}

func newFakePlatform(platforms ...string) *fakePlatform {
	p := &fakePlatform{
		openable:  make(map[string]bool),
		failOpen:  make(map[string]bool),
		versions:  make(map[string]string),
		rejectURL: make(map[string]bool),
	}
	for _, pl := range platforms {
		p.openable[pl] = true
	}
	return p
}

func (p *fakePlatform) CanOpen(_ context.Context, t domain.Target) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.probed = append(p.probed, t)
	if base, _, _ := strings.Cut(t.URL, "?"); p.rejectURL[base] {
		return false
	}
	return t.IsWeb() || p.openable[t.Platform]
}

func (p *fakePlatform) Open(_ context.Context, t domain.Target) bool {
	if p.beforeOpen != nil {
		p.beforeOpen()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opened = append(p.opened, t)
	return !p.failOpen[t.Platform]
}

func (p *fakePlatform) InstalledVersion(_ context.Context, t domain.Target) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.versions[t.Scheme()]
	return v, ok
}

func (p *fakePlatform) probeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.probed)
}

func (p *fakePlatform) openedURLs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.opened))
	for _, t := range p.opened {
		out = append(out, t.URL)
	}
	return out
}
