package navigation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/applink/internal/domain"
	"github.com/MrSnakeDoc/applink/internal/resolver"
)

const itemURL = "https://example.com/item/42"

func staticNavigator(p Platform) *Navigator {
	return New(p, WithResolver(resolver.NewStaticResolver(sampleLink())))
}

func TestNavigatorResolve(t *testing.T) {
	nav := staticNavigator(newFakePlatform())

	link, err := nav.Resolve(context.Background(), itemURL)
	require.NoError(t, err)
	assert.Len(t, link.Targets, 2)

	_, err = nav.Resolve(context.Background(), "mailto:someone@example.com")
	assert.ErrorIs(t, err, domain.ErrMalformedURL)
}

func TestNavigatorWrapsForeignResolverErrors(t *testing.T) {
	failing := resolver.ResolverFunc(func(context.Context, string) (*domain.AppLink, error) {
		return nil, errors.New("backend down")
	})
	nav := New(newFakePlatform(), WithResolver(failing))

	_, err := nav.Resolve(context.Background(), itemURL)
	assert.ErrorIs(t, err, domain.ErrFetchFailed)

	invalid := resolver.ResolverFunc(func(context.Context, string) (*domain.AppLink, error) {
		return &domain.AppLink{SourceURL: itemURL}, nil
	})
	_, err = nav.ResolveWith(context.Background(), itemURL, invalid)
	assert.ErrorIs(t, err, domain.ErrParseFailed)
}

func TestNavigatorNavigateToAppLink(t *testing.T) {
	p := newFakePlatform("android")
	outcome, err := New(p).NavigateToAppLink(context.Background(), sampleLink())
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeApp, outcome.Kind)
	assert.Equal(t, []string{"exdroid://item/42"}, p.openedURLs())
}

func TestNavigateToURL(t *testing.T) {
	p := newFakePlatform()
	outcome, err := staticNavigator(p).NavigateToURL(context.Background(), itemURL)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeBrowser, outcome.Kind)
	assert.Equal(t, []string{itemURL}, p.openedURLs())
}

func TestNavigateInBackgroundStates(t *testing.T) {
	tests := []struct {
		name      string
		platform  *fakePlatform
		dest      string
		wantState State
		wantErr   error
	}{
		{"app", newFakePlatform("ios"), itemURL, StateOpenedInApp, nil},
		{"browser", newFakePlatform(), itemURL, StateOpenedInBrowser, nil},
		{"resolution failure", newFakePlatform(), "https://example.com/unknown", StateResolutionFailed, domain.ErrFetchFailed},
		{"malformed", newFakePlatform(), "::", StateResolutionFailed, domain.ErrMalformedURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := staticNavigator(tt.platform).NavigateInBackground(context.Background(), tt.dest)

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_, err := task.Wait(ctx)

			assert.Equal(t, tt.wantState, task.State())
			assert.True(t, task.State().Terminal())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNavigateInBackgroundFailed(t *testing.T) {
	link := sampleLink()
	link.WebURL = ""
	nav := New(newFakePlatform(), WithResolver(resolver.NewStaticResolver(link)))

	task := nav.NavigateInBackground(context.Background(), itemURL)
	outcome, err := task.Wait(context.Background())

	assert.ErrorIs(t, err, domain.ErrNoAvailableTarget)
	assert.Equal(t, StateFailed, task.State())
	assert.Len(t, outcome.Attempts, 2)
}

func TestTaskCancelBeforeNavigationOpensNothing(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	blocking := resolver.ResolverFunc(func(ctx context.Context, _ string) (*domain.AppLink, error) {
		close(started)
		select {
		case <-release:
			return sampleLink(), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})

	p := newFakePlatform("ios")
	task := New(p, WithResolver(blocking)).NavigateInBackground(context.Background(), itemURL)

	<-started
	assert.Equal(t, StateResolving, task.State())
	task.Cancel()
	close(release)

	_, err := task.Wait(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateCancelled, task.State())
	assert.Empty(t, p.openedURLs())

	// Cancelling again is harmless.
	task.Cancel()
	assert.Equal(t, StateCancelled, task.State())
}

func TestTaskWaitRespectsContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	blocking := resolver.ResolverFunc(func(ctx context.Context, _ string) (*domain.AppLink, error) {
		<-release
		return sampleLink(), nil
	})

	task := New(newFakePlatform(), WithResolver(blocking)).NavigateInBackground(context.Background(), itemURL)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := task.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, task.State().Terminal())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "opened_in_app", StateOpenedInApp.String())
	assert.Equal(t, "cancelled", StateCancelled.String())
	assert.Equal(t, "unknown", State(99).String())
	assert.False(t, StateNavigating.Terminal())
}

func TestDefaultResolverIsSealedOnUse(t *testing.T) {
	r := DefaultResolver()
	require.NotNil(t, r)
	assert.Same(t, r, DefaultResolver())

	err := SetDefaultResolver(resolver.NewStaticResolver())
	assert.ErrorIs(t, err, ErrDefaultResolverSealed)

	assert.Error(t, SetDefaultResolver(nil))

	httpRes, ok := r.(*resolver.HTTPResolver)
	require.True(t, ok, "default resolver should fetch pages")
	assert.Equal(t, resolver.RuntimePlatforms(), httpRes.Platforms())
}

func TestRuntimeResolverDropsOtherPlatforms(t *testing.T) {
	const page = `<html><head>
<meta property="al:ios:url" content="iosapp://a">
<meta property="al:android:url" content="droid://a">
<meta property="al:linux:url" content="lin://a">
<meta property="al:mac:url" content="mac://a">
<meta property="al:windows:url" content="win://a">
</head></html>`
	fetch := resolver.FetcherFunc(func(context.Context, string) ([]byte, error) {
		return []byte(page), nil
	})

	link, err := newRuntimeResolver(resolver.WithFetcher(fetch)).Resolve(context.Background(), "https://example.com/a")
	require.NoError(t, err)

	runtimePlatforms := resolver.RuntimePlatforms()
	require.NotEmpty(t, link.Targets)
	for _, target := range link.Targets {
		assert.Contains(t, runtimePlatforms, target.Platform)
		assert.NotEqual(t, "ios", target.Platform)
		assert.NotEqual(t, "android", target.Platform)
	}
}

func TestNavigateSkipsUnopenableSamePlatformTarget(t *testing.T) {
	link := &domain.AppLink{
		SourceURL: "https://example.com/a",
		Targets: []domain.Target{
			{Platform: "ios", URL: "myapp://a"},
			{Platform: "ios", URL: "myapp://b"},
		},
		WebURL: "https://example.com/a",
	}

	p := newFakePlatform("ios")
	p.rejectURL["myapp://a"] = true
	outcome, err := New(p).NavigateToAppLink(context.Background(), link)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeApp, outcome.Kind)
	assert.Equal(t, "myapp://b", outcome.Target.URL)

	p = newFakePlatform("ios")
	p.rejectURL["myapp://a"] = true
	p.rejectURL["myapp://b"] = true
	req, err := NewRequest(link, nil, map[string]any{"referer": "mail"})
	require.NoError(t, err)
	outcome, err = New(p).Navigate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeBrowser, outcome.Kind)
	assert.Equal(t, "https://example.com/a?referer=mail", outcome.Target.URL)
}

func TestNavigateInBackgroundFetchFailureNeverTouchesPlatform(t *testing.T) {
	failing := resolver.ResolverFunc(func(context.Context, string) (*domain.AppLink, error) {
		return nil, domain.NewError(domain.KindFetchFailed, itemURL, errors.New("dial tcp: refused"))
	})
	p := newFakePlatform("ios")

	task := New(p).NavigateInBackgroundWith(context.Background(), itemURL, failing)
	outcome, err := task.Wait(context.Background())

	assert.ErrorIs(t, err, domain.ErrFetchFailed)
	assert.False(t, outcome.Opened())
	assert.Zero(t, p.probeCount())
	assert.Empty(t, p.openedURLs())
}
