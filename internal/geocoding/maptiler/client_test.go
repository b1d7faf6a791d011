package maptiler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haulroute/haulroute/internal/gateway"
	"github.com/haulroute/haulroute/internal/geocoding"
	"github.com/haulroute/haulroute/internal/provider/resilience"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(ClientConfig{
		APIKey:     "mock123",
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		Logger:     zerolog.Nop(),
	})
}

func TestClient_Search_Success(t *testing.T) {
	respBody, err := os.ReadFile("testdata/search_response.json")
	require.NoError(t, err)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/geocoding/Paris.json", r.URL.Path)
		assert.Equal(t, "mock123", r.URL.Query().Get("key"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(respBody)
	})

	got, err := client.Search(context.Background(), "Paris")
	require.NoError(t, err)

	want := []geocoding.Location{
		{Name: "Paris", Address: "Paris, France", Lat: 48.85, Lng: 2.35},
		{Name: "Paris, Lamar County, Texas, United States", Address: "Paris, Lamar County, Texas, United States", Lat: 33.6609, Lng: -95.5555},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Search() mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_Search_EscapesQueryAsPathSegment(t *testing.T) {
	var escapedPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		escapedPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(`{"features":[]}`))
	})

	_, err := client.Search(context.Background(), "Rue de Rivoli/5")
	require.NoError(t, err)
	assert.Equal(t, "/geocoding/Rue%20de%20Rivoli%2F5.json", escapedPath)
}

func TestClient_Search_EmptyFeatures(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty array", body: `{"type":"FeatureCollection","features":[]}`},
		{name: "missing features", body: `{"type":"FeatureCollection"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})

			got, err := client.Search(context.Background(), "nowhere")
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestClient_Search_UpstreamError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{name: "json message", status: http.StatusForbidden, body: `{"message":"Invalid key"}`, message: "Invalid key"},
		{name: "plain text", status: http.StatusBadRequest, body: "bad query\n", message: "bad query"},
		{name: "empty body", status: http.StatusTooManyRequests, body: "", message: "Too Many Requests"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.Search(context.Background(), "Paris")

			var httpErr *gateway.UpstreamHTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, tt.status, httpErr.StatusCode)
			assert.Equal(t, tt.message, httpErr.Message)
			assert.Equal(t, ProviderName, httpErr.Provider)
		})
	}
}

func TestClient_Search_MalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "<html></html>"},
		{name: "short center", body: `{"features":[{"text":"X","place_name":"X","center":[1.0]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.Search(context.Background(), "Paris")

			var unexpected *gateway.UnexpectedError
			require.ErrorAs(t, err, &unexpected)
		})
	}
}

func TestClient_Search_ConnectionErrorRedactsKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	baseURL := server.URL
	server.Close()

	client := NewClient(ClientConfig{
		APIKey:  "s3cr3t-key",
		BaseURL: baseURL,
		Logger:  zerolog.Nop(),
	})

	_, err := client.Search(context.Background(), "Paris")

	var connErr *gateway.UpstreamConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.NotContains(t, err.Error(), "s3cr3t-key")
	assert.Contains(t, err.Error(), "REDACTED")
}

type mockFailingClient struct {
	err error
}

func (m *mockFailingClient) Do(*http.Request) (*http.Response, error) {
	return nil, m.err
}

func TestClient_Search_TransportClassification(t *testing.T) {
	t.Run("open circuit", func(t *testing.T) {
		client := NewClient(ClientConfig{HTTPClient: &mockFailingClient{err: resilience.ErrCircuitOpen}, Logger: zerolog.Nop()})
		_, err := client.Search(context.Background(), "Paris")

		var connErr *gateway.UpstreamConnectionError
		require.ErrorAs(t, err, &connErr)
	})

	t.Run("other error", func(t *testing.T) {
		client := NewClient(ClientConfig{HTTPClient: &mockFailingClient{err: errors.New("boom")}, Logger: zerolog.Nop()})
		_, err := client.Search(context.Background(), "Paris")

		var unexpected *gateway.UnexpectedError
		require.ErrorAs(t, err, &unexpected)
	})
}

func TestClient_RegistersWithRegistry(t *testing.T) {
	registry := resilience.NewRegistry()
	client := NewClient(ClientConfig{APIKey: "k", Registry: registry, Logger: zerolog.Nop()})

	assert.Equal(t, ProviderName, client.Name())
	require.NotNil(t, registry.GetHealth(ProviderName))
}
