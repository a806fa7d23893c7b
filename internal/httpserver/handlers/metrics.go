package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/applink/internal/metrics"
)

// Metrics exposes the Prometheus registry.
func Metrics() http.Handler {
	return metrics.Handler()
}
