package resolver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/applink/internal/domain"
)

func TestStaticResolver(t *testing.T) {
	link := &domain.AppLink{
		SourceURL: "https://example.com/a",
		Targets:   []domain.Target{{Platform: "ios", URL: "ex://a"}},
	}
	r := NewStaticResolver(link).
		WithError("https://example.com/bad", domain.NewError(domain.KindParseFailed, "https://example.com/bad", nil))

	got, err := r.Resolve(context.Background(), "https://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, "ex://a", got.Targets[0].URL)

	// Results are copies.
	got.Targets[0].URL = "changed://"
	again, _ := r.Resolve(context.Background(), "https://example.com/a")
	assert.Equal(t, "ex://a", again.Targets[0].URL)

	_, err = r.Resolve(context.Background(), "https://example.com/bad")
	assert.ErrorIs(t, err, domain.ErrParseFailed)

	_, err = r.Resolve(context.Background(), "https://example.com/unknown")
	assert.ErrorIs(t, err, domain.ErrFetchFailed)

	_, err = r.Resolve(context.Background(), "example.com/a")
	assert.ErrorIs(t, err, domain.ErrMalformedURL)
}

func TestLoadStaticResolver(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "links.json")
	require.NoError(t, os.WriteFile(good, []byte(`[
  {"source_url": "https://example.com/a", "targets": [{"platform": "android", "url": "exdroid://a"}], "web_url": "https://example.com/a"}
]`), 0o600))

	r, err := LoadStaticResolver(good)
	require.NoError(t, err)
	link, err := r.Resolve(context.Background(), "https://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, "android", link.Targets[0].Platform)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[{"source_url": "https://example.com/b", "targets": []}]`), 0o600))
	_, err = LoadStaticResolver(bad)
	assert.Error(t, err)

	_, err = LoadStaticResolver(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
