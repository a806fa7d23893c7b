package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/applink/internal/domain"
	"github.com/MrSnakeDoc/applink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/applink/internal/index"
	"github.com/MrSnakeDoc/applink/internal/logger"
	"github.com/MrSnakeDoc/applink/internal/resolver"
)

const (
	iphoneUA  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)"
	desktopUA = "Mozilla/5.0 (X11; Linux x86_64)"

	articleURL = "https://example.com/article"
	webOnlyURL = "https://example.com/web-only"
	noWebURL   = "https://example.com/no-web"
	brokenURL  = "https://example.com/broken"
)

func testDeps() deps.Deps {
	static := resolver.NewStaticResolver(
		&domain.AppLink{
			SourceURL: articleURL,
			Targets: []domain.Target{
				{Platform: "ios", URL: "ex://article/1"},
				{Platform: "android", URL: "exdroid://article/1"},
			},
			WebURL: "https://m.example.com/article",
		},
		&domain.AppLink{SourceURL: webOnlyURL, WebURL: webOnlyURL},
		&domain.AppLink{
			SourceURL: noWebURL,
			Targets:   []domain.Target{{Platform: "android", URL: "exdroid://x"}},
		},
	).WithError(brokenURL, domain.NewError(domain.KindParseFailed, brokenURL, errors.New("bad html")))

	return deps.Deps{
		Logger:      logger.Nop(),
		StartTime:   time.Now(),
		TimeNow:     time.Now,
		MemoryIndex: index.NewMemoryIndex(),
		Resolver:    static,
		HomeURL:     "https://home.example.com",
	}
}

func navigateReq(dest, ua string, extra url.Values) *http.Request {
	q := url.Values{"url": {dest}}
	for k, v := range extra {
		q[k] = v
	}
	r := httptest.NewRequest(http.MethodGet, "/navigate?"+q.Encode(), nil)
	r.Header.Set("User-Agent", ua)
	return r
}

func TestResolve(t *testing.T) {
	d := testDeps()

	rec := httptest.NewRecorder()
	Resolve(d)(rec, httptest.NewRequest(http.MethodGet, "/resolve?url="+url.QueryEscape(articleURL), nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var link domain.AppLink
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&link))
	assert.Len(t, link.Targets, 2)
	assert.Equal(t, "https://m.example.com/article", link.WebURL)
}

func TestResolveErrors(t *testing.T) {
	d := testDeps()
	d.AllowedDestinations = []string{"example.com"}

	tests := []struct {
		name string
		dest string
		code int
		kind string
	}{
		{"malformed", "not a url", http.StatusBadRequest, "malformed_url"},
		{"ftp scheme", "ftp://example.com/x", http.StatusBadRequest, "malformed_url"},
		{"unknown page", "https://example.com/missing", http.StatusBadGateway, "fetch_failed"},
		{"parse failure", brokenURL, http.StatusUnprocessableEntity, "parse_failed"},
		{"forbidden", "https://other.org/x", http.StatusForbidden, kindForbiddenDestination},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Resolve(d)(rec, httptest.NewRequest(http.MethodGet, "/resolve?url="+url.QueryEscape(tt.dest), nil))

			assert.Equal(t, tt.code, rec.Code)
			var body errorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.kind, body.Kind)
		})
	}
}

func TestNavigateOpensAppForClientPlatform(t *testing.T) {
	rec := httptest.NewRecorder()
	Navigate(testDeps())(rec, navigateReq(articleURL, iphoneUA, url.Values{"campaign": {"spring"}}))

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "ex://article/1?campaign=spring", rec.Header().Get("Location"))
}

func TestNavigateFallsBackToWeb(t *testing.T) {
	rec := httptest.NewRecorder()
	Navigate(testDeps())(rec, navigateReq(articleURL, desktopUA, url.Values{"campaign": {"spring"}}))

	require.Equal(t, http.StatusFound, rec.Code)
	// app data is not forwarded to the browser
	assert.Equal(t, "https://m.example.com/article", rec.Header().Get("Location"))
}

func TestNavigateVersionGate(t *testing.T) {
	d := testDeps()
	d.Resolver = resolver.NewStaticResolver(&domain.AppLink{
		SourceURL: articleURL,
		Targets:   []domain.Target{{Platform: "ios", URL: "ex://article/1", MinimumVersion: "3.0"}},
		WebURL:    articleURL,
	})

	rec := httptest.NewRecorder()
	Navigate(d)(rec, navigateReq(articleURL, iphoneUA, url.Values{"installed": {"ex@2.9.1"}}))
	assert.Equal(t, articleURL, rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	Navigate(d)(rec, navigateReq(articleURL, iphoneUA, url.Values{"installed": {"ex@3.1"}}))
	assert.Equal(t, "ex://article/1", rec.Header().Get("Location"))
}

func TestNavigateNoTargetRedirectsHome(t *testing.T) {
	rec := httptest.NewRecorder()
	Navigate(testDeps())(rec, navigateReq(noWebURL, iphoneUA, nil))

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://home.example.com", rec.Header().Get("Location"))
}

func TestNavigateNoTargetWithoutHome(t *testing.T) {
	d := testDeps()
	d.HomeURL = ""

	rec := httptest.NewRecorder()
	Navigate(d)(rec, navigateReq(noWebURL, iphoneUA, nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestNavigateResolutionFailures(t *testing.T) {
	d := testDeps()

	rec := httptest.NewRecorder()
	Navigate(d)(rec, navigateReq("javascript:alert(1)", iphoneUA, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	Navigate(d)(rec, navigateReq(brokenURL, iphoneUA, nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, brokenURL, rec.Header().Get("Location"))
}

func TestRequestData(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet,
		"/navigate?url=x&installed=a@1&campaign=c&referer_app_link=ref://back&referer=https://src", nil)

	appData, navData := requestData(r, nil)
	assert.Equal(t, map[string]any{"campaign": "c"}, appData)
	assert.Equal(t, map[string]any{
		"referer_app_link": "ref://back",
		"referer":          "https://src",
	}, navData)
}

func TestRequestDataDropsForeignBackLink(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet,
		"/navigate?url=x&referer_app_link=https://evil.attacker.net/phish", nil)

	_, navData := requestData(r, []string{"example.com"})
	assert.NotContains(t, navData, "referer_app_link")

	_, navData = requestData(r, nil)
	assert.Equal(t, "https://evil.attacker.net/phish", navData["referer_app_link"])
}

func TestNavigateBackToReferrerStaysOnAllowedHosts(t *testing.T) {
	d := testDeps()
	d.AllowedDestinations = []string{"example.com"}
	d.Resolver = resolver.NewStaticResolver(&domain.AppLink{
		SourceURL:      articleURL,
		WebURL:         "https://m.example.com/article",
		BackToReferrer: true,
	})

	rec := httptest.NewRecorder()
	Navigate(d)(rec, navigateReq(articleURL, desktopUA,
		url.Values{"referer_app_link": {"https://evil.attacker.net/phish"}}))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://m.example.com/article", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	Navigate(d)(rec, navigateReq(articleURL, desktopUA,
		url.Values{"referer_app_link": {"https://news.example.com/back"}}))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://news.example.com/back", rec.Header().Get("Location"))
}

func TestIsAllowedDestination(t *testing.T) {
	allowed := []string{"example.com"}
	assert.True(t, isAllowedDestination("https://example.com/a", allowed))
	assert.True(t, isAllowedDestination("https://www.example.com/a", allowed))
	assert.False(t, isAllowedDestination("https://badexample.com/a", allowed))
	assert.True(t, isAllowedDestination("https://any.org", nil))
}

func TestReload(t *testing.T) {
	d := testDeps()

	rec := httptest.NewRecorder()
	Reload(d)(rec, httptest.NewRequest(http.MethodPost, "/reload", nil))
	assert.Equal(t, http.StatusConflict, rec.Code, "no apps file configured")

	d.ReloadTrigger = make(chan struct{}, 1)
	rec = httptest.NewRecorder()
	Reload(d)(rec, httptest.NewRequest(http.MethodPost, "/reload", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = httptest.NewRecorder()
	Reload(d)(rec, httptest.NewRequest(http.MethodPost, "/reload", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestReadyz(t *testing.T) {
	d := testDeps()

	rec := httptest.NewRecorder()
	Readyz(d)(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	d.AppsFile = "/etc/applink/apps.yaml"
	rec = httptest.NewRecorder()
	Readyz(d)(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	d.MemoryIndex.UpdateApps([]*domain.App{{Scheme: "ex"}})
	rec = httptest.NewRecorder()
	Readyz(d)(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInfra(t *testing.T) {
	rec := httptest.NewRecorder()
	Infra(testDeps())(rec, httptest.NewRequest(http.MethodGet, "/infra", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body infraResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "optimal", body.Mode)
	assert.Equal(t, "disabled", body.Components["redis"].Mode)
}
