package handlers

import (
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/applink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/applink/internal/logger"
)

// Resolve answers GET /resolve?url=<destination> with the App Link as JSON.
func Resolve(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		destination := strings.TrimSpace(r.URL.Query().Get("url"))

		if !isAllowedDestination(destination, d.AllowedDestinations) {
			d.Logger.Warn("destination not in allowed domains",
				logger.String("url", destination))
			writeJSON(w, d, http.StatusForbidden, errorResponse{
				Error: "destination not allowed",
				Kind:  kindForbiddenDestination,
			})
			return
		}

		link, err := d.Resolver.Resolve(r.Context(), destination)
		if err != nil {
			d.Logger.Info("resolution failed",
				logger.String("url", destination),
				logger.Error(err))
			writeError(w, d, err)
			return
		}

		writeJSON(w, d, http.StatusOK, link)
	}
}
