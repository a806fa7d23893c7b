package resolver

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/MrSnakeDoc/applink/internal/domain"
	"github.com/MrSnakeDoc/applink/internal/logger"
	"github.com/MrSnakeDoc/applink/internal/metrics"
)

// DefaultCacheTTL is how long a resolved link stays cached.
const DefaultCacheTTL = 15 * time.Minute

// Cache stores resolved links by destination URL.
type Cache interface {
	GetLink(ctx context.Context, key string) (*domain.AppLink, bool, error)
	SaveLink(ctx context.Context, key string, link *domain.AppLink, ttl time.Duration) error
}

// CachingResolver serves resolutions from a chain of caches (fastest
// first) and collapses concurrent resolutions of the same URL into a
// single call to the wrapped resolver. Only successful resolutions are
// cached.
type CachingResolver struct {
	next   Resolver
	caches []Cache
	ttl    time.Duration
	logger logger.Logger
	group  singleflight.Group
}

// NewCachingResolver wraps next. Nil caches are ignored.
func NewCachingResolver(next Resolver, ttl time.Duration, log logger.Logger, caches ...Cache) *CachingResolver {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if log == nil {
		log = logger.Nop()
	}
	kept := make([]Cache, 0, len(caches))
	for _, c := range caches {
		if c != nil {
			kept = append(kept, c)
		}
	}
	return &CachingResolver{
		next:   next,
		caches: kept,
		ttl:    ttl,
		logger: log,
	}
}

// Resolve implements Resolver.
func (r *CachingResolver) Resolve(ctx context.Context, destination string) (*domain.AppLink, error) {
	u, err := ValidateDestination(destination)
	if err != nil {
		return nil, err
	}
	key := u.String()

	if link, ok := r.lookup(ctx, key); ok {
		return link, nil
	}

	// The shared call must not die with whichever caller started it.
	ch := r.group.DoChan(key, func() (interface{}, error) {
		link, err := r.next.Resolve(context.WithoutCancel(ctx), key)
		if err != nil {
			return nil, err
		}
		r.store(context.WithoutCancel(ctx), key, link, len(r.caches))
		return link, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.AppLink).Clone(), nil
	}
}

// lookup walks the caches in order and backfills faster tiers on a hit.
func (r *CachingResolver) lookup(ctx context.Context, key string) (*domain.AppLink, bool) {
	for i, c := range r.caches {
		link, ok, err := c.GetLink(ctx, key)
		if err != nil {
			metrics.RecordCacheLookup("error")
			r.logger.Warn("link cache lookup failed",
				logger.String("url", key),
				logger.Int("tier", i),
				logger.Error(err))
			continue
		}
		if !ok {
			continue
		}
		metrics.RecordCacheLookup("hit")
		r.logger.Debug("link cache hit",
			logger.String("url", key),
			logger.Int("tier", i))
		r.store(ctx, key, link, i)
		return link.Clone(), true
	}
	metrics.RecordCacheLookup("miss")
	return nil, false
}

// store writes link into the first n caches (best effort).
func (r *CachingResolver) store(ctx context.Context, key string, link *domain.AppLink, n int) {
	for i := 0; i < n && i < len(r.caches); i++ {
		if err := r.caches[i].SaveLink(ctx, key, link, r.ttl); err != nil {
			r.logger.Warn("failed to cache resolved link",
				logger.String("url", key),
				logger.Int("tier", i),
				logger.Error(err))
		}
	}
}
