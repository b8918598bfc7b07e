package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/grovemarket/search-service/pkg/health"
	"github.com/grovemarket/search-service/pkg/middleware"
)

// suggestionCacheSeconds lets browsers and CDNs reuse typeahead responses.
const suggestionCacheSeconds = 30

// NewRouter assembles the HTTP surface: public search routes, admin routes
// behind JWT, and the operational endpoints.
func NewRouter(
	search *SearchHandler,
	admin *AdminHandler,
	healthHandler *health.Handler,
	validate middleware.TokenValidator,
	serviceName string,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(chimiddleware.Compress(5))
	r.Use(chimiddleware.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/search", func(r chi.Router) {
		r.Get("/", search.Search)
		r.With(middleware.CacheControl(suggestionCacheSeconds)).
			Get("/suggestions", search.Suggestions)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.Auth(validate))
		r.Use(middleware.RequireRole("admin"))

		r.Post("/reindex", admin.Reindex)
		r.Post("/sync/{id}", admin.SyncItem)
		r.Delete("/index/{id}", admin.DeleteDocument)
	})

	return r
}
