package navigation

import (
	"context"
	"errors"
	"sync"

	"github.com/MrSnakeDoc/applink/internal/domain"
	"github.com/MrSnakeDoc/applink/internal/resolver"
)

// ErrDefaultResolverSealed is returned when the default resolver is set
// after it was already configured or used.
var ErrDefaultResolverSealed = errors.New("default resolver already in use")

var (
	defaultMu       sync.Mutex
	defaultResolver resolver.Resolver
	defaultSealed   bool
)

// SetDefaultResolver installs the process-wide resolver. It must be called
// once at startup, before anything resolves through the default.
func SetDefaultResolver(r resolver.Resolver) error {
	if r == nil {
		return errors.New("default resolver cannot be nil")
	}
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultSealed {
		return ErrDefaultResolverSealed
	}
	defaultResolver = r
	defaultSealed = true
	return nil
}

// DefaultResolver returns the process-wide resolver, building an
// HTTPResolver limited to the runtime platforms if none was configured.
// After the first call the default can no longer be replaced.
func DefaultResolver() resolver.Resolver {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultResolver == nil {
		defaultResolver = newRuntimeResolver()
	}
	defaultSealed = true
	return defaultResolver
}

// newRuntimeResolver builds an HTTPResolver that keeps only targets for the
// platforms this process runs on. Later options may override the list.
func newRuntimeResolver(opts ...resolver.Option) *resolver.HTTPResolver {
	all := append([]resolver.Option{resolver.WithPlatforms(resolver.RuntimePlatforms()...)}, opts...)
	return resolver.NewHTTPResolver(all...)
}

// Resolve resolves destination with the default resolver.
func Resolve(ctx context.Context, destination string) (*domain.AppLink, error) {
	return DefaultResolver().Resolve(ctx, destination)
}

// ResolveWith resolves destination with r, or the default when r is nil.
func ResolveWith(ctx context.Context, destination string, r resolver.Resolver) (*domain.AppLink, error) {
	if r == nil {
		r = DefaultResolver()
	}
	return r.Resolve(ctx, destination)
}
