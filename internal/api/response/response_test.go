package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haulroute/haulroute/internal/api/middleware"
	"github.com/haulroute/haulroute/internal/api/response"
	"github.com/haulroute/haulroute/internal/gateway"
)

// requestWithContext returns a request that has passed through the RequestID
// middleware, so its context carries an ID.
func requestWithContext(t *testing.T, method, path string) *http.Request {
	t.Helper()
	var processed *http.Request
	handler := middleware.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		processed = r
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(method, path, http.NoBody))
	return processed
}

func TestJSON_IncludesRequestID(t *testing.T) {
	req := requestWithContext(t, http.MethodGet, "/test")
	rec := httptest.NewRecorder()

	response.JSON(rec, req, http.StatusOK, map[string]string{"message": "hello"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, middleware.GetRequestID(req.Context()), rec.Header().Get("X-Request-Id"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"message":"hello"}`, rec.Body.String())
}

func TestJSON_WithoutRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	rec := httptest.NewRecorder()

	response.JSON(rec, req, http.StatusOK, nil)

	assert.Empty(t, rec.Header().Get("X-Request-Id"))
	assert.Empty(t, rec.Body.String())
}

func TestRaw_WritesPayloadUnchanged(t *testing.T) {
	payload := json.RawMessage(`{"routes":[ {"summary":{}} ],"metadata":{"engine":"9"}}`)
	rec := httptest.NewRecorder()

	response.Raw(rec, httptest.NewRequest(http.MethodPost, "/", http.NoBody), http.StatusOK, payload)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(payload), rec.Body.String())
}

func TestError_WritesErrorBody(t *testing.T) {
	req := requestWithContext(t, http.MethodPost, "/api/calculate-route")
	rec := httptest.NewRecorder()

	response.Error(rec, req, &gateway.Error{Message: "Pickup location is required", HTTPStatus: http.StatusBadRequest})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	assert.JSONEq(t, `{"error":"Pickup location is required"}`, rec.Body.String())
}
