package host

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/applink/internal/domain"
	"github.com/MrSnakeDoc/applink/internal/index"
)

type recorder struct {
	opened []string
	runs   [][]string
	err    error
}

func (r *recorder) open(u string) error {
	r.opened = append(r.opened, u)
	return r.err
}

func (r *recorder) run(_ context.Context, argv []string) error {
	r.runs = append(r.runs, argv)
	return r.err
}

func newPlatform(t *testing.T, rec *recorder) *Platform {
	t.Helper()
	idx := index.NewMemoryIndex()
	idx.UpdateApps([]*domain.App{
		{Scheme: "spotify", Version: "1.2.31", Command: []string{"spotify", "--uri={url}"}},
		{Scheme: "slack"},
		{Scheme: "zoommtg", Disabled: true},
	})
	return New(idx, WithURLOpener(rec.open), WithCommandRunner(rec.run))
}

func TestCanOpen(t *testing.T) {
	p := newPlatform(t, &recorder{})
	ctx := context.Background()

	assert.True(t, p.CanOpen(ctx, domain.Target{Platform: "web", URL: "https://example.com"}))
	assert.True(t, p.CanOpen(ctx, domain.Target{Platform: "linux", URL: "spotify://track/1"}))
	assert.True(t, p.CanOpen(ctx, domain.Target{Platform: "linux", URL: "SLACK://open"}))
	assert.False(t, p.CanOpen(ctx, domain.Target{Platform: "linux", URL: "zoommtg://join"}), "disabled app")
	assert.False(t, p.CanOpen(ctx, domain.Target{Platform: "linux", URL: "unknown://x"}))
}

func TestOpenRunsRegisteredCommand(t *testing.T) {
	rec := &recorder{}
	p := newPlatform(t, rec)

	ok := p.Open(context.Background(), domain.Target{Platform: "linux", URL: "spotify://track/1"})
	require.True(t, ok)
	require.Len(t, rec.runs, 1)
	assert.Equal(t, []string{"spotify", "--uri=spotify://track/1"}, rec.runs[0])
	assert.Empty(t, rec.opened)
}

func TestOpenWithoutCommandUsesSystemHandler(t *testing.T) {
	rec := &recorder{}
	p := newPlatform(t, rec)

	require.True(t, p.Open(context.Background(), domain.Target{Platform: "linux", URL: "slack://open"}))
	assert.Equal(t, []string{"slack://open"}, rec.opened)
	assert.Empty(t, rec.runs)
}

func TestOpenWebUsesBrowser(t *testing.T) {
	rec := &recorder{}
	p := newPlatform(t, rec)

	require.True(t, p.Open(context.Background(), domain.Target{Platform: "web", URL: "https://example.com"}))
	assert.Equal(t, []string{"https://example.com"}, rec.opened)
}

func TestOpenFailure(t *testing.T) {
	rec := &recorder{err: errors.New("boom")}
	p := newPlatform(t, rec)
	ctx := context.Background()

	assert.False(t, p.Open(ctx, domain.Target{Platform: "linux", URL: "spotify://track/1"}))
	assert.False(t, p.Open(ctx, domain.Target{Platform: "web", URL: "https://example.com"}))
	assert.False(t, p.Open(ctx, domain.Target{Platform: "linux", URL: "unknown://x"}))
}

func TestInstalledVersion(t *testing.T) {
	p := newPlatform(t, &recorder{})
	ctx := context.Background()

	v, ok := p.InstalledVersion(ctx, domain.Target{URL: "spotify://x"})
	assert.True(t, ok)
	assert.Equal(t, "1.2.31", v)

	_, ok = p.InstalledVersion(ctx, domain.Target{URL: "slack://x"})
	assert.False(t, ok, "no version registered")

	_, ok = p.InstalledVersion(ctx, domain.Target{URL: "unknown://x"})
	assert.False(t, ok)
}

func TestArgv(t *testing.T) {
	assert.Equal(t, []string{"xdg-open", "a://b"}, Argv([]string{"xdg-open"}, "a://b"))
	assert.Equal(t, []string{"app", "--open", "a://b", "-v"}, Argv([]string{"app", "--open", "{url}", "-v"}, "a://b"))
}

func TestPlatforms(t *testing.T) {
	assert.Contains(t, Platforms(), "desktop")
	assert.Equal(t, Platforms()[0], DefaultPlatform())
}
