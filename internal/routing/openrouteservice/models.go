package openrouteservice

import (
	"encoding/json"

	"github.com/haulroute/haulroute/internal/routing"
)

// directionsRequest is the ORS v2 directions request body.
type directionsRequest struct {
	Coordinates []routing.Waypoint `json:"coordinates"`
}

// errorResponse is an ORS error body. The error member is either an object
// with code and message or a bare string (gateway-level rejections).
type errorResponse struct {
	Error json.RawMessage `json:"error"`
	Info  json.RawMessage `json:"info,omitempty"`
}

type errorDetail struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
