package routing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/haulroute/haulroute/internal/gateway"
)

const tracerName = "github.com/haulroute/haulroute/internal/routing"

// ServiceConfig holds configuration for the routing service.
type ServiceConfig struct {
	// Provider is the routing provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// Metrics records upstream call outcomes (optional).
	Metrics MetricsRecorder
}

// Service plans routes. It holds no per-request state.
type Service struct {
	provider Provider
	logger   zerolog.Logger
	metrics  MetricsRecorder
	tracer   trace.Tracer
}

// NewService creates a new routing service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		provider: cfg.Provider,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		tracer:   otel.Tracer(tracerName),
	}
}

// PlanRoute validates req, submits the start, end and pickup waypoints to the
// provider and returns its payload unmodified. A non-nil error is always a
// *gateway.Error.
func (s *Service) PlanRoute(ctx context.Context, req RouteRequest) (json.RawMessage, error) {
	if req.Start == nil || req.End == nil {
		return nil, toGatewayError(&gateway.ValidationError{Message: MsgStartEndRequired})
	}
	if req.Pickup == nil {
		return nil, toGatewayError(&gateway.ValidationError{Message: MsgPickupRequired})
	}

	waypoints := Waypoints(*req.Start, *req.End, *req.Pickup)

	ctx, span := s.tracer.Start(ctx, "routing.PlanRoute",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("provider.name", s.provider.Name()),
			attribute.Int("route.waypoints", len(waypoints)),
		),
	)
	defer span.End()

	start := time.Now()
	raw, err := s.provider.Directions(ctx, waypoints)
	if s.metrics != nil {
		s.metrics.RecordRequest(s.provider.Name(), "directions", time.Since(start), err)
	}

	if err != nil {
		failure := gateway.AsFailure(err)
		gwErr := toGatewayError(failure)

		span.RecordError(err)
		span.SetStatus(codes.Error, gwErr.Message)
		s.logFailure(failure, gwErr)

		return nil, gwErr
	}

	if summary, ok := Summarize(raw); ok {
		span.SetAttributes(
			attribute.Int("route.count", summary.Routes),
			attribute.Float64("route.distance_m", summary.DistanceMeters),
			attribute.Float64("route.duration_s", summary.DurationSeconds),
			attribute.Int("route.geometry_points", summary.GeometryPoints),
		)
		s.logger.Debug().
			Str("provider", s.provider.Name()).
			Int("route_count", summary.Routes).
			Float64("distance_m", summary.DistanceMeters).
			Float64("duration_s", summary.DurationSeconds).
			Int("geometry_points", summary.GeometryPoints).
			Float64("geometry_m", summary.GeometryMeters).
			Msg("route planned")
	} else {
		s.logger.Debug().
			Str("provider", s.provider.Name()).
			Int("bytes", len(raw)).
			Msg("route payload without routes passed through")
	}

	return raw, nil
}

func (s *Service) logFailure(failure gateway.Failure, gwErr *gateway.Error) {
	event := s.logger.Error().
		Err(failure).
		Str("provider", s.provider.Name()).
		Str("kind", gateway.Kind(failure)).
		Int("status", gwErr.HTTPStatus)

	var httpErr *gateway.UpstreamHTTPError
	if errors.As(failure, &httpErr) {
		event = event.Int("upstream_status", httpErr.StatusCode)
	}

	event.Msg("route planning failed")
}

// toGatewayError maps every failure kind to the status and message served
// for the route endpoint. Connection and unexpected failures do not leak
// upstream detail.
func toGatewayError(f gateway.Failure) *gateway.Error {
	switch f := f.(type) {
	case *gateway.ValidationError:
		return &gateway.Error{Message: f.Message, HTTPStatus: http.StatusBadRequest}
	case *gateway.UpstreamHTTPError:
		return &gateway.Error{Message: f.Message, HTTPStatus: http.StatusBadGateway}
	case *gateway.UpstreamConnectionError:
		return &gateway.Error{Message: MsgConnectFailed, HTTPStatus: http.StatusBadGateway}
	case *gateway.UnexpectedError:
		return &gateway.Error{Message: MsgUnexpected, HTTPStatus: http.StatusInternalServerError}
	default:
		return &gateway.Error{Message: MsgUnexpected, HTTPStatus: http.StatusInternalServerError}
	}
}
