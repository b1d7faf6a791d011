// Package api provides the HTTP API for the haulroute gateway.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/haulroute/haulroute/internal/api/handler"
	"github.com/haulroute/haulroute/internal/api/middleware"
	"github.com/haulroute/haulroute/internal/api/models"
	"github.com/haulroute/haulroute/internal/provider/resilience"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version   string
	BuildTime string
	Logger    zerolog.Logger
	Metrics   *middleware.Metrics

	LocationSearcher handler.LocationSearcher
	RoutePlanner     handler.RoutePlanner

	// Registry and MissingKeys feed the ops endpoints.
	Registry    *resilience.Registry
	MissingKeys []string

	// MaxBodyBytes bounds request bodies (optional, defaults to 1 MiB).
	MaxBodyBytes int64
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = middleware.DefaultMaxBodyBytes
	}

	// Order matters: IDs and spans first so every later layer can log them.
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing())
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.StripSlashes)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.BodyLimit(maxBody))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		models.WriteError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		models.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:     cfg.Version,
		BuildTime:   cfg.BuildTime,
		Registry:    cfg.Registry,
		MissingKeys: cfg.MissingKeys,
	})
	locationHandler := handler.NewLocationHandler(cfg.LocationSearcher)
	routeHandler := handler.NewRouteHandler(cfg.RoutePlanner)

	r.Route("/api", func(r chi.Router) {
		r.Post("/search-location", locationHandler.SearchLocation)
		r.Post("/calculate-route", routeHandler.CalculateRoute)
	})

	r.Route("/ops", func(r chi.Router) {
		r.Get("/health", opsHandler.HealthCheck)
		r.Get("/ready", opsHandler.ReadinessCheck)
		r.Get("/status", opsHandler.SystemStatus)
	})

	return r
}
