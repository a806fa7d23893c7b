package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/applink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/applink/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/applink/internal/httpserver/mw"
)

func init() { Register("navigate", registerNavigate) }

func registerNavigate(r chi.Router, d deps.Deps) {
	limit := mw.RateLimit(mw.RateLimitConfig{
		Burst:             d.NavigateBurst,
		RefillPerIPPerMin: d.NavigateRefillPerMin,
		MaxEntries:        10000,
		TrustProxy:        d.TrustProxy,
	})
	r.With(mw.EnforceHost(d.AllowedHosts, d.Logger), limit).Get("/navigate", handlers.Navigate(d))
}
