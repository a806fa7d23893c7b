// Package host opens App Link targets on the local machine.
//
// Web URLs go to the default browser. App URLs are opened with the command
// registered for their scheme in the app registry, or handed to the system
// URL handler when the entry has no command.
package host

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/browser"

	"github.com/MrSnakeDoc/applink/internal/domain"
	"github.com/MrSnakeDoc/applink/internal/logger"
	"github.com/MrSnakeDoc/applink/internal/resolver"
)

// DefaultLaunchTimeout bounds a single launcher command.
const DefaultLaunchTimeout = 10 * time.Second

// Registry answers which apps are installed.
type Registry interface {
	GetApp(scheme string) (*domain.App, bool)
}

// Platform implements navigation.Platform for the local host.
type Platform struct {
	registry Registry
	openURL  func(string) error
	run      func(ctx context.Context, argv []string) error
	timeout  time.Duration
	logger   logger.Logger
}

// Option configures a Platform.
type Option func(*Platform)

// WithURLOpener replaces the system URL opener (browser.OpenURL).
func WithURLOpener(fn func(string) error) Option {
	return func(p *Platform) { p.openURL = fn }
}

// WithCommandRunner replaces the launcher used for registered commands.
func WithCommandRunner(fn func(ctx context.Context, argv []string) error) Option {
	return func(p *Platform) { p.run = fn }
}

// WithLaunchTimeout sets the per-launch timeout.
func WithLaunchTimeout(d time.Duration) Option {
	return func(p *Platform) { p.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Platform) { p.logger = l }
}

// New creates a host platform backed by registry.
func New(registry Registry, opts ...Option) *Platform {
	p := &Platform{
		registry: registry,
		openURL:  browser.OpenURL,
		run:      runCommand,
		timeout:  DefaultLaunchTimeout,
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CanOpen reports whether target is a web URL or its scheme belongs to an
// enabled registered app. It never launches anything.
func (p *Platform) CanOpen(_ context.Context, target domain.Target) bool {
	if target.IsWeb() {
		return true
	}
	_, ok := p.app(target)
	return ok
}

// Open launches target and reports success.
func (p *Platform) Open(ctx context.Context, target domain.Target) bool {
	if target.IsWeb() {
		if err := p.openURL(target.URL); err != nil {
			p.logger.Warn("failed to open browser",
				logger.String("url", target.URL),
				logger.Error(err))
			return false
		}
		return true
	}

	app, ok := p.app(target)
	if !ok {
		return false
	}

	if len(app.Command) == 0 {
		if err := p.openURL(target.URL); err != nil {
			p.logger.Warn("system handler failed to open url",
				logger.String("scheme", app.Scheme),
				logger.String("url", target.URL),
				logger.Error(err))
			return false
		}
		return true
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	argv := Argv(app.Command, target.URL)
	if err := p.run(ctx, argv); err != nil {
		p.logger.Warn("app launch failed",
			logger.String("scheme", app.Scheme),
			logger.Strings("argv", argv),
			logger.Error(err))
		return false
	}
	return true
}

// InstalledVersion returns the registry version of the app handling target.
func (p *Platform) InstalledVersion(_ context.Context, target domain.Target) (string, bool) {
	app, ok := p.app(target)
	if !ok || app.Version == "" {
		return "", false
	}
	return app.Version, true
}

func (p *Platform) app(target domain.Target) (*domain.App, bool) {
	if p.registry == nil {
		return nil, false
	}
	app, ok := p.registry.GetApp(target.Scheme())
	if !ok || app.Disabled {
		return nil, false
	}
	return app, true
}

// Argv substitutes "{url}" in command. When no argument references the URL
// it is appended as the last argument.
func Argv(command []string, rawURL string) []string {
	argv := make([]string, 0, len(command)+1)
	substituted := false
	for _, arg := range command {
		if strings.Contains(arg, "{url}") {
			arg = strings.ReplaceAll(arg, "{url}", rawURL)
			substituted = true
		}
		argv = append(argv, arg)
	}
	if !substituted {
		argv = append(argv, rawURL)
	}
	return argv
}

func runCommand(ctx context.Context, argv []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("empty command")
	}
	out, err := exec.CommandContext(ctx, argv[0], argv[1:]...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w (%s)", argv[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Platforms returns the App Link platform identifiers for this OS, most
// specific first.
func Platforms() []string {
	return resolver.RuntimePlatforms()
}

// DefaultPlatform is the platform recorded on apps that do not name one.
func DefaultPlatform() string {
	return resolver.RuntimePlatforms()[0]
}
