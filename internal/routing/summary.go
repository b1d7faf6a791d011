package routing

import (
	"encoding/json"

	"github.com/haulroute/haulroute/pkg/polyline"
)

// Summary describes the first route of a provider payload. It is derived for
// logs and traces only; the payload itself is never rewritten.
type Summary struct {
	Routes          int
	DistanceMeters  float64
	DurationSeconds float64
	GeometryPoints  int
	GeometryMeters  float64
}

type routeEnvelope struct {
	Routes []struct {
		Summary struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"summary"`
		Geometry json.RawMessage `json:"geometry"`
	} `json:"routes"`
	Features []struct {
		Properties struct {
			Summary struct {
				Distance float64 `json:"distance"`
				Duration float64 `json:"duration"`
			} `json:"summary"`
		} `json:"properties"`
		Geometry json.RawMessage `json:"geometry"`
	} `json:"features"`
}

type lineString struct {
	Coordinates [][]float64 `json:"coordinates"`
}

// Summarize reads route count, distance, duration and geometry size from a
// JSON or GeoJSON directions payload. ok is false when raw is not a
// recognizable directions payload.
func Summarize(raw json.RawMessage) (s Summary, ok bool) {
	var env routeEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Summary{}, false
	}

	var geometry json.RawMessage
	switch {
	case len(env.Routes) > 0:
		s.Routes = len(env.Routes)
		s.DistanceMeters = env.Routes[0].Summary.Distance
		s.DurationSeconds = env.Routes[0].Summary.Duration
		geometry = env.Routes[0].Geometry
	case len(env.Features) > 0:
		s.Routes = len(env.Features)
		s.DistanceMeters = env.Features[0].Properties.Summary.Distance
		s.DurationSeconds = env.Features[0].Properties.Summary.Duration
		geometry = env.Features[0].Geometry
	default:
		return Summary{}, false
	}

	points := geometryPoints(geometry)
	s.GeometryPoints = len(points)
	s.GeometryMeters = polyline.Length(points)

	return s, true
}

// geometryPoints accepts an encoded polyline string or a GeoJSON LineString.
func geometryPoints(geometry json.RawMessage) []polyline.Point {
	if len(geometry) == 0 {
		return nil
	}

	var encoded string
	if err := json.Unmarshal(geometry, &encoded); err == nil {
		return polyline.Decode(encoded)
	}

	var line lineString
	if err := json.Unmarshal(geometry, &line); err != nil {
		return nil
	}
	points := make([]polyline.Point, 0, len(line.Coordinates))
	for _, c := range line.Coordinates {
		if len(c) < 2 {
			continue
		}
		points = append(points, polyline.Point{Lat: c[1], Lng: c[0]})
	}
	return points
}
