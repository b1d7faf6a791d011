// Package geocoding resolves free-text location queries into named coordinates.
package geocoding

import (
	"context"
	"time"
)

// MsgQueryRequired is served when a search arrives without a query.
const MsgQueryRequired = "Query is required"

// Location is a normalized search hit.
type Location struct {
	Name    string
	Address string
	Lat     float64
	Lng     float64
}

// SearchResult holds the locations for one query, in provider order.
type SearchResult struct {
	Locations []Location
}

// Provider resolves a query into locations.
type Provider interface {
	Search(ctx context.Context, query string) ([]Location, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// MetricsRecorder records upstream call outcomes.
type MetricsRecorder interface {
	RecordRequest(provider, operation string, duration time.Duration, err error)
}
