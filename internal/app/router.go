// Package app wires the middleware stack, routes, and readiness checks into
// a runnable HTTP handler.
package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	httpserver "github.com/banglahouse/resume-screener-backend/internal/adapter/httpserver"
	"github.com/banglahouse/resume-screener-backend/internal/adapter/observability"
	"github.com/banglahouse/resume-screener-backend/internal/config"
)

// ParseOrigins splits a comma-separated origin list into a slice, trimming
// spaces. An empty input allows every origin.
func ParseOrigins(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return []string{"*"}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// BuildRouter constructs the HTTP handler with all middlewares and routes.
func BuildRouter(cfg config.Config, srv *httpserver.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(httpserver.Recoverer())
	r.Use(httpserver.RequestID())
	r.Use(httpserver.TimeoutMiddleware(cfg.HTTPWriteTimeout))
	r.Use(httpserver.AccessLog())
	r.Use(observability.HTTPMetricsMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   ParseOrigins(cfg.CORSAllowOrigins),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// API routes run behind the gateway identity headers.
	r.Group(func(api chi.Router) {
		api.Use(httpserver.AuthContext(srv.Store.Users()))

		// Rate limit the mutating endpoints per client IP.
		api.Group(func(wr chi.Router) {
			wr.Use(httprate.LimitByIP(cfg.RateLimitPerMin, 1*time.Minute))
			wr.Post("/v1/applications", srv.CreateApplicationHandler())
			wr.Post("/v1/applications/{id}/chat", srv.ChatHandler())
		})

		api.Get("/v1/applications/{id}", srv.GetApplicationHandler())
		api.Get("/v1/applications/{id}/chat", srv.ChatHistoryHandler())
		api.Get("/v1/jobs/{jobKey}/applications", srv.ListJobApplicationsHandler())
	})

	// Health and metrics stay outside the auth context.
	r.Get("/healthz", srv.HealthzHandler())
	r.Get("/readyz", srv.ReadyzHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) { promhttp.Handler().ServeHTTP(w, r) })

	handler := httpserver.SecurityHeaders(r)
	return otelhttp.NewHandler(handler, "http.server")
}
