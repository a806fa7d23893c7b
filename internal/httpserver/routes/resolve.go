package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/applink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/applink/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/applink/internal/httpserver/mw"
)

func init() { Register("resolve", registerResolve) }

func registerResolve(r chi.Router, d deps.Deps) {
	r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger), mw.EnforceHost(d.AllowedHosts, d.Logger)).Get("/resolve", handlers.Resolve(d))
}
