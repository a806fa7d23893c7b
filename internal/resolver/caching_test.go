package resolver

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/applink/internal/domain"
)

// mapCache is a minimal Cache for tests.
type mapCache struct {
	mu    sync.Mutex
	links map[string]*domain.AppLink
	err   error
	saves int
}

func newMapCache() *mapCache {
	return &mapCache{links: make(map[string]*domain.AppLink)}
}

func (c *mapCache) GetLink(_ context.Context, key string) (*domain.AppLink, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, false, c.err
	}
	l, ok := c.links[key]
	return l, ok, nil
}

func (c *mapCache) SaveLink(_ context.Context, key string, link *domain.AppLink, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saves++
	c.links[key] = link.Clone()
	return nil
}

func (c *mapCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.links[key]
	return ok
}

const cachedURL = "https://example.com/item/42"

func countingResolver(calls *atomic.Int32, release <-chan struct{}) Resolver {
	return ResolverFunc(func(ctx context.Context, dest string) (*domain.AppLink, error) {
		calls.Add(1)
		if release != nil {
			<-release
		}
		return &domain.AppLink{SourceURL: dest, WebURL: dest}, nil
	})
}

func TestCachingResolverCachesSuccess(t *testing.T) {
	var calls atomic.Int32
	mem := newMapCache()
	r := NewCachingResolver(countingResolver(&calls, nil), time.Minute, nil, mem)

	for i := 0; i < 3; i++ {
		link, err := r.Resolve(context.Background(), cachedURL)
		require.NoError(t, err)
		assert.Equal(t, cachedURL, link.WebURL)
	}
	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, mem.has(cachedURL))
}

func TestCachingResolverDoesNotCacheErrors(t *testing.T) {
	var calls atomic.Int32
	failing := ResolverFunc(func(context.Context, string) (*domain.AppLink, error) {
		calls.Add(1)
		return nil, domain.NewError(domain.KindFetchFailed, cachedURL, errors.New("timeout"))
	})
	mem := newMapCache()
	r := NewCachingResolver(failing, time.Minute, nil, mem)

	_, err := r.Resolve(context.Background(), cachedURL)
	assert.ErrorIs(t, err, domain.ErrFetchFailed)
	_, err = r.Resolve(context.Background(), cachedURL)
	assert.ErrorIs(t, err, domain.ErrFetchFailed)

	assert.Equal(t, int32(2), calls.Load())
	assert.False(t, mem.has(cachedURL))
}

func TestCachingResolverCollapsesConcurrentCalls(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	r := NewCachingResolver(countingResolver(&calls, release), time.Minute, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Resolve(context.Background(), cachedURL)
			assert.NoError(t, err)
		}()
	}

	// Let the goroutines pile up on the in-flight call.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestCachingResolverBackfillsFasterTiers(t *testing.T) {
	var calls atomic.Int32
	l1, l2 := newMapCache(), newMapCache()
	l2.links[cachedURL] = &domain.AppLink{SourceURL: cachedURL, WebURL: cachedURL}

	r := NewCachingResolver(countingResolver(&calls, nil), time.Minute, nil, l1, l2)

	_, err := r.Resolve(context.Background(), cachedURL)
	require.NoError(t, err)
	assert.Zero(t, calls.Load())
	assert.True(t, l1.has(cachedURL))
	assert.Zero(t, l2.saves)
}

func TestCachingResolverSkipsBrokenTier(t *testing.T) {
	var calls atomic.Int32
	broken := newMapCache()
	broken.err = errors.New("connection reset")

	r := NewCachingResolver(countingResolver(&calls, nil), time.Minute, nil, nil, broken)

	_, err := r.Resolve(context.Background(), cachedURL)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCachingResolverCallerCancel(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	defer close(release)
	r := NewCachingResolver(countingResolver(&calls, release), time.Minute, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := r.Resolve(ctx, cachedURL)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCachingResolverMalformed(t *testing.T) {
	var calls atomic.Int32
	r := NewCachingResolver(countingResolver(&calls, nil), 0, nil)

	_, err := r.Resolve(context.Background(), "not-a-url")
	assert.ErrorIs(t, err, domain.ErrMalformedURL)
	assert.Zero(t, calls.Load())
}
