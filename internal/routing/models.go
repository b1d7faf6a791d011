// Package routing plans driving routes through a start, end and pickup point
// and hands the provider's route payload back to the caller unchanged.
package routing

import (
	"context"
	"encoding/json"
	"time"
)

// Caller-facing messages.
const (
	MsgStartEndRequired = "Both start and end locations are required"
	MsgPickupRequired   = "Pickup location is required"
	MsgConnectFailed    = "Failed to connect to routing service"
	MsgUnexpected       = "An unexpected error occurred"
)

// Provider computes a driving route through an ordered list of waypoints and
// returns the provider's JSON payload as-is.
type Provider interface {
	Directions(ctx context.Context, waypoints []Waypoint) (json.RawMessage, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// Point is a caller-supplied coordinate.
type Point struct {
	Lat float64
	Lng float64
}

// Waypoint is a coordinate pair in provider order: [lng, lat].
type Waypoint [2]float64

// Lng returns the longitude.
func (w Waypoint) Lng() float64 { return w[0] }

// Lat returns the latitude.
func (w Waypoint) Lat() float64 { return w[1] }

func (p Point) waypoint() Waypoint {
	return Waypoint{p.Lng, p.Lat}
}

// Waypoints builds the list submitted upstream. The order is fixed:
// start, end, pickup.
func Waypoints(start, end, pickup Point) []Waypoint {
	return []Waypoint{start.waypoint(), end.waypoint(), pickup.waypoint()}
}

// RouteRequest is a route planning request. Nil points are absent.
type RouteRequest struct {
	Start  *Point
	End    *Point
	Pickup *Point
}

// MetricsRecorder records upstream call outcomes.
type MetricsRecorder interface {
	RecordRequest(provider, operation string, duration time.Duration, err error)
}
