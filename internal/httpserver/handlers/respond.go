package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/MrSnakeDoc/applink/internal/domain"
	"github.com/MrSnakeDoc/applink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/applink/internal/logger"
	"github.com/MrSnakeDoc/applink/internal/utils"
)

const kindForbiddenDestination = "forbidden_destination"

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func writeJSON(w http.ResponseWriter, d deps.Deps, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		d.Logger.Debug("failed to write response", logger.Error(err))
	}
}

func writeError(w http.ResponseWriter, d deps.Deps, err error) {
	kind := string(domain.KindOf(err))
	if kind == "" {
		kind = "internal"
	}
	writeJSON(w, d, statusFor(err), errorResponse{Error: err.Error(), Kind: kind})
}

// statusFor maps the error taxonomy to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrMalformedURL):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrParseFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrFetchFailed), errors.Is(err, domain.ErrNoAvailableTarget), errors.Is(err, domain.ErrOpenFailed):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// isAllowedDestination checks the destination host against the allowed
// domains. An empty list allows everything. Unparseable URLs pass through
// so the resolver reports them as malformed.
func isAllowedDestination(rawURL string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return true
	}
	return utils.HostAllowed(u.Hostname(), allowed)
}
