package maptiler

// searchResponse is the subset of the MapTiler geocoding FeatureCollection
// the gateway reads.
type searchResponse struct {
	Features []feature `json:"features"`
}

type feature struct {
	ID        string    `json:"id,omitempty"`
	Text      string    `json:"text"`
	PlaceName string    `json:"place_name"`
	Center    []float64 `json:"center"` // [lng, lat]
}

// errorResponse is a MapTiler error body.
type errorResponse struct {
	Message string `json:"message"`
}
