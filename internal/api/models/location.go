package models

// SearchLocationRequest is the body of POST /api/search-location.
type SearchLocationRequest struct {
	Query string `json:"query"`
}

// Location is one geocoding hit.
type Location struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// SearchLocationResponse lists hits in provider order.
type SearchLocationResponse struct {
	Locations []Location `json:"locations"`
}
