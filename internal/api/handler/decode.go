package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/haulroute/haulroute/internal/api/models"
	"github.com/haulroute/haulroute/internal/api/response"
	"github.com/haulroute/haulroute/internal/gateway"
)

// decodeBody decodes a JSON body into a T. A missing or malformed body yields
// the zero T so the field presence checks produce the error. It returns false
// only when it has already answered the request.
func decodeBody[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var input T
	err := json.NewDecoder(r.Body).Decode(&input)
	if err == nil {
		return input, true
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		models.WriteError(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return input, false
	}

	var zero T
	return zero, true
}

// writeServiceError answers with the gateway error carried by err.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var gwErr *gateway.Error
	if !errors.As(err, &gwErr) {
		gwErr = &gateway.Error{Message: fallback, HTTPStatus: http.StatusInternalServerError}
	}
	response.Error(w, r, gwErr)
}
