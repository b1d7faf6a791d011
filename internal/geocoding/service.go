package geocoding

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/haulroute/haulroute/internal/gateway"
)

const tracerName = "github.com/haulroute/haulroute/internal/geocoding"

// ServiceConfig holds configuration for the geocoding service.
type ServiceConfig struct {
	Provider Provider
	Logger   zerolog.Logger
	// Metrics records upstream call outcomes (optional).
	Metrics MetricsRecorder
}

// Service searches locations.
type Service struct {
	provider Provider
	logger   zerolog.Logger
	metrics  MetricsRecorder
	tracer   trace.Tracer
}

// NewService creates a new geocoding service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		provider: cfg.Provider,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		tracer:   otel.Tracer(tracerName),
	}
}

// Search resolves query with a single provider call. An empty provider
// answer is an empty result, not an error. A non-nil error is always a
// *gateway.Error.
func (s *Service) Search(ctx context.Context, query string) (*SearchResult, error) {
	if query == "" {
		return nil, toGatewayError(&gateway.ValidationError{Message: MsgQueryRequired})
	}

	ctx, span := s.tracer.Start(ctx, "geocoding.Search",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("provider.name", s.provider.Name())),
	)
	defer span.End()

	start := time.Now()
	locations, err := s.provider.Search(ctx, query)
	if s.metrics != nil {
		s.metrics.RecordRequest(s.provider.Name(), "search", time.Since(start), err)
	}

	if err != nil {
		gwErr := toGatewayError(gateway.AsFailure(err))

		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		s.logger.Error().
			Err(err).
			Str("provider", s.provider.Name()).
			Str("kind", gateway.Kind(err)).
			Int("status", gwErr.HTTPStatus).
			Msg("location search failed")

		return nil, gwErr
	}

	if locations == nil {
		locations = []Location{}
	}
	span.SetAttributes(attribute.Int("geocoding.results", len(locations)))

	s.logger.Debug().
		Str("provider", s.provider.Name()).
		Int("results", len(locations)).
		Msg("location search completed")

	return &SearchResult{Locations: locations}, nil
}

// toGatewayError maps every failure kind for the search endpoint. Upstream
// failures of any kind are reported as 500 with the failure text.
func toGatewayError(f gateway.Failure) *gateway.Error {
	switch f := f.(type) {
	case *gateway.ValidationError:
		return &gateway.Error{Message: f.Message, HTTPStatus: http.StatusBadRequest}
	case *gateway.UpstreamHTTPError:
		return &gateway.Error{Message: f.Error(), HTTPStatus: http.StatusInternalServerError}
	case *gateway.UpstreamConnectionError:
		return &gateway.Error{Message: f.Error(), HTTPStatus: http.StatusInternalServerError}
	case *gateway.UnexpectedError:
		return &gateway.Error{Message: f.Error(), HTTPStatus: http.StatusInternalServerError}
	default:
		return &gateway.Error{Message: f.Error(), HTTPStatus: http.StatusInternalServerError}
	}
}
