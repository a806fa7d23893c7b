package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/applink/internal/domain"
	"github.com/MrSnakeDoc/applink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/applink/internal/logger"
	"github.com/MrSnakeDoc/applink/internal/navigation"
	"github.com/MrSnakeDoc/applink/internal/platform/redirect"
)

// Query parameters with a meaning of their own; everything else on a
// /navigate request is forwarded to the app as app data.
const (
	paramURL     = "url"
	paramReferer = "referer"
)

var reservedParams = map[string]bool{
	paramURL:                     true,
	paramReferer:                 true,
	navigation.KeyRefererAppLink: true,
	redirect.QueryInstalled:      true,
}

// Navigate answers GET /navigate?url=<destination> with a redirect to the
// best target for the calling client.
func Navigate(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		destination := strings.TrimSpace(r.URL.Query().Get(paramURL))

		if !isAllowedDestination(destination, d.AllowedDestinations) {
			d.Logger.Warn("destination not in allowed domains",
				logger.String("url", destination))
			writeJSON(w, d, http.StatusForbidden, errorResponse{
				Error: "destination not allowed",
				Kind:  kindForbiddenDestination,
			})
			return
		}

		platform := redirect.FromRequest(r, redirect.WithAllowedHosts(d.AllowedDestinations))
		nav := navigation.New(platform,
			navigation.WithResolver(d.Resolver),
			navigation.WithLogger(d.Logger))

		link, err := nav.Resolve(ctx, destination)
		if err != nil {
			handleResolveFailure(w, r, d, destination, err)
			return
		}

		appData, navData := requestData(r, d.AllowedDestinations)
		req, err := navigation.NewRequest(link, appData, navData)
		if err != nil {
			writeError(w, d, err)
			return
		}

		outcome, err := nav.Navigate(ctx, req)
		if err != nil {
			d.Logger.Info("nothing to open, redirecting home",
				logger.String("url", destination),
				logger.Error(err))
			redirectHome(w, r, d, err)
			return
		}

		target, ok := platform.Opened()
		if !ok {
			redirectHome(w, r, d, domain.NewError(domain.KindNoAvailableTarget, destination, nil))
			return
		}

		d.Logger.Info("navigation redirect",
			logger.String("url", destination),
			logger.String("outcome", outcome.Kind.String()),
			logger.String("target", target.URL))
		http.Redirect(w, r, target.URL, http.StatusFound)
	}
}

// handleResolveFailure answers malformed input with 400. When the page
// could not be fetched or understood the client is sent to the destination
// itself, which is a plain web page either way.
func handleResolveFailure(w http.ResponseWriter, r *http.Request, d deps.Deps, destination string, err error) {
	if errors.Is(err, domain.ErrMalformedURL) {
		writeError(w, d, err)
		return
	}
	if errors.Is(err, domain.ErrFetchFailed) || errors.Is(err, domain.ErrParseFailed) {
		d.Logger.Info("resolution failed, redirecting to destination",
			logger.String("url", destination),
			logger.Error(err))
		http.Redirect(w, r, destination, http.StatusFound)
		return
	}
	writeError(w, d, err)
}

func redirectHome(w http.ResponseWriter, r *http.Request, d deps.Deps, err error) {
	if d.HomeURL == "" {
		writeError(w, d, err)
		return
	}
	http.Redirect(w, r, d.HomeURL, http.StatusFound)
}

// requestData splits the query into app data (forwarded to the app) and
// navigation data (referer information). A back-link pointing outside the
// allowed domains is dropped.
func requestData(r *http.Request, allowed []string) (map[string]any, map[string]any) {
	q := r.URL.Query()

	appData := make(map[string]any)
	for key, values := range q {
		if reservedParams[key] || len(values) == 0 {
			continue
		}
		appData[key] = values[0]
	}

	navData := make(map[string]any)
	if v := q.Get(navigation.KeyRefererAppLink); v != "" && redirect.BackLinkAllowed(v, allowed) {
		navData[navigation.KeyRefererAppLink] = v
	}
	if v := q.Get(paramReferer); v != "" {
		navData[paramReferer] = v
	} else if v := r.Referer(); v != "" {
		navData[paramReferer] = v
	}
	return appData, navData
}
