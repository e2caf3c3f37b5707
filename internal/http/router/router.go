// Package router arma el árbol de rutas chi del servicio.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	healthctrl "github.com/dropDatabas3/pdfsummary/internal/http/controllers/health"
	sumctrl "github.com/dropDatabas3/pdfsummary/internal/http/controllers/summaries"
	httperrors "github.com/dropDatabas3/pdfsummary/internal/http/errors"
	mw "github.com/dropDatabas3/pdfsummary/internal/http/middlewares"
)

// Deps contiene todo lo que el router necesita. Los middlewares opcionales
// en nil se omiten.
type Deps struct {
	Summaries *sumctrl.Controller
	Health    *healthctrl.Controller

	Verifier       mw.SubjectVerifier
	RateLimit      mw.RateLimitConfig
	CORSOrigins    []string
	Metrics        mw.Middleware // instrumentación HTTP
	MetricsHandler http.Handler  // GET /metrics
}

// New crea el handler raíz.
//
//	GET  /readyz
//	GET  /metrics
//	POST /v1/summaries/generate   (usuario requerido, rate limited)
//	POST /v1/summaries
//	GET  /v1/summaries
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(
		mw.WithRequestID(),
		mw.WithRecover(),
		mw.WithSecurityHeaders(),
	)
	if deps.Metrics != nil {
		r.Use(deps.Metrics)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	// health sin logging (muy frecuente)
	if deps.Health != nil {
		r.Get("/readyz", deps.Health.Readyz)
	}
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/v1/summaries", func(r chi.Router) {
		r.Use(
			mw.WithLogging(),
			mw.WithCORS(deps.CORSOrigins),
			mw.OptionalAuth(deps.Verifier),
		)

		c := deps.Summaries
		r.With(mw.RequireUser(), mw.WithRateLimit(deps.RateLimit)).Post("/generate", c.Generate)
		r.Post("/", c.Save)
		r.Get("/", c.List)
	})

	return r
}
