// Package openrouteservice provides a client for the OpenRouteService directions API.
package openrouteservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/haulroute/haulroute/internal/gateway"
	"github.com/haulroute/haulroute/internal/provider/resilience"
	"github.com/haulroute/haulroute/internal/routing"
)

const (
	// ProviderName identifies this routing provider.
	ProviderName = "openrouteservice"

	// DefaultBaseURL is the OpenRouteService API base URL.
	DefaultBaseURL = "https://api.openrouteservice.org"

	// DefaultProfile is the routing profile used for every request.
	DefaultProfile = "driving-car"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the OpenRouteService client.
type ClientConfig struct {
	// APIKey is the ORS API key, sent as a bearer token.
	APIKey string

	// BaseURL is the API base URL (optional, defaults to ORS API).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a single-attempt resilience client with Timeout.
	HTTPClient HTTPDoer

	// Timeout is the request timeout (optional, defaults to 10s).
	Timeout time.Duration

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an OpenRouteService API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new OpenRouteService client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = timeout
		clientCfg.Registry = cfg.Registry
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Directions requests a driving route through waypoints, in order, and
// returns the response body untouched.
func (c *Client) Directions(ctx context.Context, waypoints []routing.Waypoint) (json.RawMessage, error) {
	body, err := json.Marshal(directionsRequest{Coordinates: waypoints})
	if err != nil {
		return nil, &gateway.UnexpectedError{Err: fmt.Errorf("marshaling request: %w", err)}
	}

	url := fmt.Sprintf("%s/v2/directions/%s", c.baseURL, DefaultProfile)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &gateway.UnexpectedError{Err: fmt.Errorf("creating request: %w", err)}
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("profile", DefaultProfile).
		Int("waypoints", len(waypoints)).
		Msg("requesting directions from ORS")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.transportFailure(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.transportFailure(fmt.Errorf("reading response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &gateway.UpstreamHTTPError{
			Provider:   ProviderName,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.StatusCode, respBody),
		}
	}

	if !json.Valid(respBody) {
		return nil, &gateway.UnexpectedError{Err: errors.New("decoding response: body is not valid JSON")}
	}

	c.logger.Debug().
		Int("status", resp.StatusCode).
		Int("bytes", len(respBody)).
		Msg("received directions from ORS")

	return json.RawMessage(respBody), nil
}

func (c *Client) transportFailure(err error) error {
	if gateway.IsTransport(err) {
		return &gateway.UpstreamConnectionError{Provider: ProviderName, Err: err}
	}
	return &gateway.UnexpectedError{Err: err}
}

// errorMessage picks the most specific description from an ORS error body:
// error.message, a bare error string, the raw body text, then the status line.
func errorMessage(statusCode int, body []byte) string {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && len(errResp.Error) > 0 {
		var detail errorDetail
		if err := json.Unmarshal(errResp.Error, &detail); err == nil && detail.Message != "" {
			return detail.Message
		}
		var text string
		if err := json.Unmarshal(errResp.Error, &text); err == nil && text != "" {
			return text
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}

	return fmt.Sprintf("routing provider returned status %d %s", statusCode, http.StatusText(statusCode))
}
