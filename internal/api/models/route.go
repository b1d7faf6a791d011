package models

// Coordinate is a caller-supplied point. A coordinate missing either field
// counts as absent.
type Coordinate struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// Complete reports whether both lat and lng were supplied.
func (c *Coordinate) Complete() bool {
	return c != nil && c.Lat != nil && c.Lng != nil
}

// CalculateRouteRequest is the body of POST /api/calculate-route.
type CalculateRouteRequest struct {
	Start  *Coordinate `json:"start"`
	End    *Coordinate `json:"end"`
	Pickup *Coordinate `json:"pickup"`
}
