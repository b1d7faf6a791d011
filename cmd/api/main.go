// Package main provides the entrypoint for the haulroute gateway.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/haulroute/haulroute/internal/api"
	"github.com/haulroute/haulroute/internal/api/middleware"
	"github.com/haulroute/haulroute/internal/config"
	"github.com/haulroute/haulroute/internal/geocoding"
	"github.com/haulroute/haulroute/internal/geocoding/maptiler"
	"github.com/haulroute/haulroute/internal/provider/resilience"
	"github.com/haulroute/haulroute/internal/routing"
	"github.com/haulroute/haulroute/internal/routing/openrouteservice"
	"github.com/haulroute/haulroute/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const serviceName = "haulroute-api"

func main() {
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	if err := run(log); err != nil {
		log.Fatal().Err(err).Msg("gateway exited")
	}
}

func run(log zerolog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = log.Level(cfg.LogLevel())

	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.Server.Env).
		Msg("starting haulroute gateway")

	missingKeys := cfg.MissingKeys()
	for _, key := range missingKeys {
		log.Warn().Str("key", key).Msg("provider API key not set; requests to this provider will fail")
	}

	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Server.Env,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if tp.Enabled() {
		log.Info().
			Str("otlp_endpoint", cfg.Telemetry.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	metrics, err := middleware.NewMetrics()
	if err != nil {
		return fmt.Errorf("initializing HTTP metrics: %w", err)
	}
	providerMetrics, err := middleware.NewProviderMetrics()
	if err != nil {
		return fmt.Errorf("initializing provider metrics: %w", err)
	}

	registry := resilience.NewRegistry()

	geocoder := maptiler.NewClient(maptiler.ClientConfig{
		APIKey:     cfg.MapTiler.APIKey,
		BaseURL:    cfg.MapTiler.BaseURL,
		HTTPClient: newUpstreamClient(maptiler.ProviderName, cfg.Upstream, registry, log),
		Logger:     log.With().Str("provider", maptiler.ProviderName).Logger(),
	})
	directions := openrouteservice.NewClient(openrouteservice.ClientConfig{
		APIKey:     cfg.Routing.APIKey,
		BaseURL:    cfg.Routing.BaseURL,
		HTTPClient: newUpstreamClient(openrouteservice.ProviderName, cfg.Upstream, registry, log),
		Logger:     log.With().Str("provider", openrouteservice.ProviderName).Logger(),
	})

	router := api.NewRouter(api.RouterConfig{
		Version:   Version,
		BuildTime: BuildTime,
		Logger:    log,
		Metrics:   metrics,
		LocationSearcher: geocoding.NewService(geocoding.ServiceConfig{
			Provider: geocoder,
			Logger:   log,
			Metrics:  providerMetrics,
		}),
		RoutePlanner: routing.NewService(routing.ServiceConfig{
			Provider: directions,
			Logger:   log,
			Metrics:  providerMetrics,
		}),
		Registry:    registry,
		MissingKeys: missingKeys,
	})

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Leave room for a full upstream timeout plus response writing.
		WriteTimeout: cfg.Upstream.Timeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}

// newUpstreamClient builds the outbound client for one provider from the
// shared upstream settings.
func newUpstreamClient(name string, cfg config.UpstreamConfig, registry *resilience.Registry, log zerolog.Logger) *resilience.Client {
	clientCfg := resilience.DefaultClientConfig(name)
	clientCfg.Timeout = cfg.Timeout
	clientCfg.MaxRetries = cfg.MaxRetries
	clientCfg.Registry = registry

	if cfg.CircuitBreaker {
		cbCfg := resilience.DefaultCircuitBreakerConfig(name)
		cbCfg.OnStateChange = func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("provider", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		}
		clientCfg.CircuitBreaker = &cbCfg
	}

	return resilience.NewClient(clientCfg)
}
