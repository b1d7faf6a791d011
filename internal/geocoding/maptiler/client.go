// Package maptiler provides a client for the MapTiler forward geocoding API.
package maptiler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/haulroute/haulroute/internal/gateway"
	"github.com/haulroute/haulroute/internal/geocoding"
	"github.com/haulroute/haulroute/internal/provider/resilience"
)

const (
	// ProviderName identifies this geocoding provider.
	ProviderName = "maptiler"

	// DefaultBaseURL is the MapTiler API base URL.
	DefaultBaseURL = "https://api.maptiler.com"

	// DefaultLimit is the maximum number of results requested per query.
	DefaultLimit = 5

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the MapTiler client.
type ClientConfig struct {
	// APIKey is the MapTiler key, sent as the key query parameter.
	APIKey string

	// BaseURL is the API base URL (optional, defaults to MapTiler API).
	BaseURL string

	// Limit caps the number of results (optional, defaults to 5).
	Limit int

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

// Client is a MapTiler geocoding client.
type Client struct {
	apiKey     string
	baseURL    string
	limit      int
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new MapTiler client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	limit := cfg.Limit
	if limit <= 0 {
		limit = DefaultLimit
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
		limit:      limit,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Search geocodes query. The query is sent as a single escaped path segment.
func (c *Client) Search(ctx context.Context, query string) ([]geocoding.Location, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("limit", strconv.Itoa(c.limit))

	endpoint := fmt.Sprintf("%s/geocoding/%s.json?%s", c.baseURL, url.PathEscape(query), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, &gateway.UnexpectedError{Err: fmt.Errorf("creating request: %w", c.redact(err))}
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Int("query_len", len(query)).
		Int("limit", c.limit).
		Msg("requesting geocoding from MapTiler")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = c.redact(err)
		if gateway.IsTransport(err) {
			return nil, &gateway.UpstreamConnectionError{Provider: ProviderName, Err: err}
		}
		return nil, &gateway.UnexpectedError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &gateway.UpstreamConnectionError{Provider: ProviderName, Err: fmt.Errorf("reading response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &gateway.UpstreamHTTPError{
			Provider:   ProviderName,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.StatusCode, body),
		}
	}

	var searchResp searchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, &gateway.UnexpectedError{Err: fmt.Errorf("decoding response: %w", err)}
	}

	return toLocations(searchResp.Features)
}

// toLocations maps features in order. center is stored [lng, lat].
func toLocations(features []feature) ([]geocoding.Location, error) {
	locations := make([]geocoding.Location, 0, len(features))
	for i, f := range features {
		if len(f.Center) < 2 {
			return nil, &gateway.UnexpectedError{
				Err: fmt.Errorf("decoding response: feature %d has %d center coordinates", i, len(f.Center)),
			}
		}

		name := f.Text
		if name == "" {
			name = f.PlaceName
		}

		locations = append(locations, geocoding.Location{
			Name:    name,
			Address: f.PlaceName,
			Lat:     f.Center[1],
			Lng:     f.Center[0],
		})
	}
	return locations, nil
}

// redact removes the API key from URLs embedded in transport errors.
func (c *Client) redact(err error) error {
	var urlErr *url.Error
	if c.apiKey != "" && errors.As(err, &urlErr) {
		urlErr.URL = strings.ReplaceAll(urlErr.URL, url.QueryEscape(c.apiKey), "REDACTED")
	}
	return err
}

func errorMessage(statusCode int, body []byte) string {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
		return errResp.Message
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return http.StatusText(statusCode)
}
