// Package redirect is the platform used when navigation runs on behalf of
// an HTTP client: opening a target means answering with a redirect to it.
package redirect

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/MrSnakeDoc/applink/internal/domain"
	"github.com/MrSnakeDoc/applink/internal/utils"
)

const (
	// QueryInstalled carries "<scheme>@<version>" hints, repeatable.
	QueryInstalled = "installed"
	// HeaderInstalled carries comma separated "<scheme>@<version>" hints.
	HeaderInstalled = "X-Installed-Apps"
	// RefererPlatform matches navigation.RefererPlatform.
	RefererPlatform = "referer"
)

// Platform records the first target opened for a single HTTP request.
// It is not reusable across requests.
type Platform struct {
	clients      map[string]bool
	installed    map[string]string // scheme -> version
	allowedHosts []string          // web back-link domains, empty = any

	mu     sync.Mutex
	opened *domain.Target
}

// Option configures a Platform.
type Option func(*Platform)

// WithAllowedHosts limits web back-links to these domains and their
// subdomains.
func WithAllowedHosts(domains []string) Option {
	return func(p *Platform) { p.allowedHosts = append([]string(nil), domains...) }
}

// FromRequest builds a platform for the client that sent r.
func FromRequest(r *http.Request, opts ...Option) *Platform {
	hints := append([]string(nil), r.URL.Query()[QueryInstalled]...)
	if h := r.Header.Get(HeaderInstalled); h != "" {
		hints = append(hints, strings.Split(h, ",")...)
	}
	return New(DetectPlatforms(r.UserAgent()), ParseInstalled(hints), opts...)
}

// New creates a platform for the given client platforms and installed app
// versions.
func New(clientPlatforms []string, installed map[string]string, opts ...Option) *Platform {
	clients := make(map[string]bool, len(clientPlatforms))
	for _, p := range clientPlatforms {
		clients[strings.ToLower(p)] = true
	}
	if installed == nil {
		installed = map[string]string{}
	}
	p := &Platform{clients: clients, installed: installed}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CanOpen accepts web URLs, referrer back-links within the allowed hosts,
// and app targets meant for one of the client's platforms.
func (p *Platform) CanOpen(_ context.Context, target domain.Target) bool {
	if target.Platform == RefererPlatform {
		return BackLinkAllowed(target.URL, p.allowedHosts)
	}
	if target.IsWeb() {
		return true
	}
	return p.clients[strings.ToLower(target.Platform)]
}

// BackLinkAllowed reports whether a referrer back-link may be redirected
// to. Web links must point into allowed; app links need an explicit scheme.
func BackLinkAllowed(rawURL string, allowed []string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Scheme == "" {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return utils.IsWebURL(u) && utils.HostAllowed(u.Hostname(), allowed)
	case "javascript", "data", "vbscript", "file":
		return false
	}
	return true
}

// Open records target as the redirect destination. Only the first open
// succeeds.
func (p *Platform) Open(_ context.Context, target domain.Target) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.opened != nil {
		return false
	}
	t := target
	p.opened = &t
	return true
}

// InstalledVersion returns the version hint the client sent for the
// target's scheme.
func (p *Platform) InstalledVersion(_ context.Context, target domain.Target) (string, bool) {
	v, ok := p.installed[target.Scheme()]
	return v, ok && v != ""
}

// Opened returns the recorded destination.
func (p *Platform) Opened() (domain.Target, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.opened == nil {
		return domain.Target{}, false
	}
	return *p.opened, true
}

// ParseInstalled parses "<scheme>@<version>" hints. Malformed entries are
// ignored.
func ParseInstalled(hints []string) map[string]string {
	out := make(map[string]string, len(hints))
	for _, h := range hints {
		scheme, version, ok := strings.Cut(strings.TrimSpace(h), "@")
		scheme = strings.ToLower(strings.TrimSpace(scheme))
		if !ok || scheme == "" {
			continue
		}
		out[scheme] = strings.TrimSpace(version)
	}
	return out
}

// DetectPlatforms maps a User-Agent to App Link platform identifiers, most
// specific first. Unknown agents yield nil.
func DetectPlatforms(userAgent string) []string {
	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(ua, "windows phone"):
		return []string{"windows_phone"}
	case strings.Contains(ua, "iphone"), strings.Contains(ua, "ipod"):
		return []string{"iphone", "ios"}
	case strings.Contains(ua, "ipad"):
		return []string{"ipad", "ios"}
	case strings.Contains(ua, "android"):
		return []string{"android"}
	case strings.Contains(ua, "windows"):
		return []string{"windows", "windows_universal"}
	case strings.Contains(ua, "macintosh"), strings.Contains(ua, "mac os x"):
		return []string{"mac"}
	case strings.Contains(ua, "linux"), strings.Contains(ua, "x11"):
		return []string{"linux"}
	}
	return nil
}
