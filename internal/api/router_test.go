package api_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haulroute/haulroute/internal/api"
	"github.com/haulroute/haulroute/internal/api/models"
	"github.com/haulroute/haulroute/internal/geocoding"
	"github.com/haulroute/haulroute/internal/geocoding/maptiler"
	"github.com/haulroute/haulroute/internal/provider/resilience"
	"github.com/haulroute/haulroute/internal/routing"
	"github.com/haulroute/haulroute/internal/routing/openrouteservice"
)

// upstream is a stub provider that counts calls and records the last body.
type upstream struct {
	server   *httptest.Server
	calls    atomic.Int32
	lastBody string
	lastPath string
}

func newUpstream(t *testing.T, status int, body string) *upstream {
	t.Helper()
	u := &upstream{}
	u.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.calls.Add(1)
		b, _ := io.ReadAll(r.Body)
		u.lastBody = string(b)
		u.lastPath = r.URL.EscapedPath()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(u.server.Close)
	return u
}

type gatewayOpts struct {
	geocoder    *upstream
	router      *upstream
	missingKeys []string
}

func newTestRouter(t *testing.T, opts gatewayOpts) http.Handler {
	t.Helper()
	logger := zerolog.New(io.Discard)
	registry := resilience.NewRegistry()

	geocoderURL, routerURL := "http://127.0.0.1:1", "http://127.0.0.1:1"
	if opts.geocoder != nil {
		geocoderURL = opts.geocoder.server.URL
	}
	if opts.router != nil {
		routerURL = opts.router.server.URL
	}

	search := geocoding.NewService(geocoding.ServiceConfig{
		Provider: maptiler.NewClient(maptiler.ClientConfig{
			APIKey:   "mt-test",
			BaseURL:  geocoderURL,
			Registry: registry,
			Logger:   logger,
		}),
		Logger: logger,
	})
	planner := routing.NewService(routing.ServiceConfig{
		Provider: openrouteservice.NewClient(openrouteservice.ClientConfig{
			APIKey:   "ors-test",
			BaseURL:  routerURL,
			Registry: registry,
			Logger:   logger,
		}),
		Logger: logger,
	})

	return api.NewRouter(api.RouterConfig{
		Version:          "test",
		BuildTime:        "2026-01-01T00:00:00Z",
		Logger:           logger,
		LocationSearcher: search,
		RoutePlanner:     planner,
		Registry:         registry,
		MissingKeys:      opts.missingKeys,
	})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const routeBody = `{"start":{"lat":48.85,"lng":2.35},"end":{"lat":45.76,"lng":4.84},"pickup":{"lat":47.21,"lng":-1.55}}`

func TestRouter_SearchLocation(t *testing.T) {
	geocoder := newUpstream(t, http.StatusOK,
		`{"features":[{"text":"Paris","place_name":"Paris, France","center":[2.35,48.85]}]}`)
	router := newTestRouter(t, gatewayOpts{geocoder: geocoder})

	for _, path := range []string{"/api/search-location/", "/api/search-location"} {
		rec := do(t, router, http.MethodPost, path, `{"query":"Paris"}`)

		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
		assert.JSONEq(t, `{"locations":[{"name":"Paris","address":"Paris, France","lat":48.85,"lng":2.35}]}`, rec.Body.String())
	}
	assert.Equal(t, int32(2), geocoder.calls.Load())
	assert.Equal(t, "/geocoding/Paris.json", geocoder.lastPath)
}

func TestRouter_SearchLocation_QueryRequired(t *testing.T) {
	geocoder := newUpstream(t, http.StatusOK, `{"features":[]}`)
	router := newTestRouter(t, gatewayOpts{geocoder: geocoder})

	for _, body := range []string{`{}`, `{"query":""}`, `not json`} {
		rec := do(t, router, http.MethodPost, "/api/search-location/", body)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"Query is required"}`, rec.Body.String())
	}
	assert.Equal(t, int32(0), geocoder.calls.Load())
}

func TestRouter_SearchLocation_UpstreamFailureIs500(t *testing.T) {
	geocoder := newUpstream(t, http.StatusForbidden, `{"message":"Invalid key"}`)
	router := newTestRouter(t, gatewayOpts{geocoder: geocoder})

	rec := do(t, router, http.MethodPost, "/api/search-location/", `{"query":"Paris"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Error, "Invalid key")
}

func TestRouter_CalculateRoute(t *testing.T) {
	payload := `{"routes":[{"summary":{"distance":812345.6,"duration":29876.4},"geometry":"_p~iF~ps|U_ulLnnqC_mqNvxq` + "`" + `@"}],"metadata":{"query":{"profile":"driving-car"}}}`
	ors := newUpstream(t, http.StatusOK, payload)
	router := newTestRouter(t, gatewayOpts{router: ors})

	rec := do(t, router, http.MethodPost, "/api/calculate-route/", routeBody)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, payload, rec.Body.String())
	assert.Equal(t, int32(1), ors.calls.Load())
	assert.Equal(t, "/v2/directions/driving-car", ors.lastPath)
	assert.JSONEq(t, `{"coordinates":[[2.35,48.85],[4.84,45.76],[-1.55,47.21]]}`, ors.lastBody)
}

func TestRouter_CalculateRoute_Validation(t *testing.T) {
	ors := newUpstream(t, http.StatusOK, `{}`)
	router := newTestRouter(t, gatewayOpts{router: ors})

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{name: "missing end", body: `{"start":{"lat":1,"lng":2},"pickup":{"lat":1,"lng":2}}`, message: "Both start and end locations are required"},
		{name: "empty start", body: `{"start":{},"end":{"lat":1,"lng":2},"pickup":{"lat":1,"lng":2}}`, message: "Both start and end locations are required"},
		{name: "malformed", body: `{"start":`, message: "Both start and end locations are required"},
		{name: "missing pickup", body: `{"start":{"lat":1,"lng":2},"end":{"lat":3,"lng":4}}`, message: "Pickup location is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/api/calculate-route/", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"error":"`+tt.message+`"}`, rec.Body.String())
		})
	}
	assert.Equal(t, int32(0), ors.calls.Load())
}

func TestRouter_CalculateRoute_UpstreamRejection(t *testing.T) {
	ors := newUpstream(t, http.StatusBadRequest, `{"error":{"code":2010,"message":"X"}}`)
	router := newTestRouter(t, gatewayOpts{router: ors})

	rec := do(t, router, http.MethodPost, "/api/calculate-route/", routeBody)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"X"}`, rec.Body.String())
	assert.Equal(t, int32(1), ors.calls.Load(), "no retries")
}

func TestRouter_CalculateRoute_ConnectionFailure(t *testing.T) {
	router := newTestRouter(t, gatewayOpts{})

	rec := do(t, router, http.MethodPost, "/api/calculate-route/", routeBody)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to connect to routing service"}`, rec.Body.String())
}

func TestRouter_CalculateRoute_InvalidUpstreamJSON(t *testing.T) {
	ors := newUpstream(t, http.StatusOK, `<html>oops</html>`)
	router := newTestRouter(t, gatewayOpts{router: ors})

	rec := do(t, router, http.MethodPost, "/api/calculate-route/", routeBody)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"An unexpected error occurred"}`, rec.Body.String())
}

func TestRouter_BodyTooLarge(t *testing.T) {
	router := newTestRouter(t, gatewayOpts{})

	rec := do(t, router, http.MethodPost, "/api/search-location/", `{"query":"`+strings.Repeat("a", 2<<20)+`"}`)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.JSONEq(t, `{"error":"Request body too large"}`, rec.Body.String())
}

func TestRouter_HealthCheck(t *testing.T) {
	rec := do(t, newTestRouter(t, gatewayOpts{}), http.MethodGet, "/ops/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	var health models.Health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.Equal(t, "test", health.Details["version"])
}

func TestRouter_ReadinessCheck(t *testing.T) {
	rec := do(t, newTestRouter(t, gatewayOpts{}), http.MethodGet, "/ops/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, newTestRouter(t, gatewayOpts{missingKeys: []string{"MAPTILER_API_KEY"}}), http.MethodGet, "/ops/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_SystemStatusListsProviders(t *testing.T) {
	rec := do(t, newTestRouter(t, gatewayOpts{}), http.MethodGet, "/ops/status", "")

	assert.Equal(t, http.StatusOK, rec.Code)

	var status models.SystemStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	require.Len(t, status.Providers, 2)
	assert.Equal(t, "maptiler", status.Providers[0].Provider)
	assert.Equal(t, "openrouteservice", status.Providers[1].Provider)
}

func TestRouter_NotFoundAndMethodNotAllowed(t *testing.T) {
	router := newTestRouter(t, gatewayOpts{})

	rec := do(t, router, http.MethodGet, "/api/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/api/search-location/", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.JSONEq(t, `{"error":"Method not allowed"}`, rec.Body.String())
}
