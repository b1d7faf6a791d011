// Package response provides utilities for HTTP response handling.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/haulroute/haulroute/internal/api/middleware"
	"github.com/haulroute/haulroute/internal/api/models"
	"github.com/haulroute/haulroute/internal/gateway"
)

// JSON writes data as a JSON response with the given status code.
// Includes X-Request-Id header for correlation.
func JSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	setRequestID(w, r)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Raw writes an already-encoded JSON payload unchanged.
func Raw(w http.ResponseWriter, r *http.Request, status int, payload json.RawMessage) {
	setRequestID(w, r)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

// Error writes a gateway error as {"error": message}.
func Error(w http.ResponseWriter, r *http.Request, err *gateway.Error) {
	setRequestID(w, r)
	models.WriteError(w, err.HTTPStatus, err.Message)
}

// ServiceUnavailable writes a 503 with payload as the body.
func ServiceUnavailable(w http.ResponseWriter, r *http.Request, payload any) {
	JSON(w, r, http.StatusServiceUnavailable, payload)
}

func setRequestID(w http.ResponseWriter, r *http.Request) {
	if requestID := middleware.GetRequestID(r.Context()); requestID != "" {
		w.Header().Set("X-Request-Id", requestID)
	}
}
