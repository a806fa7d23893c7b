package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/applink/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready  bool   `json:"ready"`
	Reason string `json:"reason,omitempty"`
}

// Readyz is ready once a resolver is wired and, when an apps file is
// configured, the registry has been loaded.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case d.Resolver == nil:
			writeJSON(w, d, http.StatusServiceUnavailable, readyzResponse{Reason: "resolver not configured"})
		case d.AppsFile != "" && d.MemoryIndex.GetLastReload().IsZero():
			writeJSON(w, d, http.StatusServiceUnavailable, readyzResponse{Reason: "apps not loaded"})
		default:
			writeJSON(w, d, http.StatusOK, readyzResponse{Ready: true})
		}
	}
}
