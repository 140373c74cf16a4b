// Package client talks to the BOM weather API: coordinate location search,
// current observations and daily forecasts per geohash.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ozweather/radar-proxy/internal/models"
	"github.com/ozweather/radar-proxy/internal/observability"
	"github.com/ozweather/radar-proxy/internal/upstream"
)

// ErrLocationNotFound is returned when the location search succeeds but
// yields zero candidates for the coordinates.
var ErrLocationNotFound = errors.New("location not found")

// API is the upstream surface the weather aggregator depends on.
type API interface {
	SearchLocation(ctx context.Context, lat, lng float64) (models.WeatherLocation, error)
	Observations(ctx context.Context, geohash string) (models.Observations, error)
	DailyForecast(ctx context.Context, geohash string) ([]json.RawMessage, error)
}

// WeatherClient implements API against the BOM weather API.
type WeatherClient struct {
	baseURL string
	client  *http.Client
}

// New creates a WeatherClient for the given API base URL
// (e.g. "https://api.weather.bom.gov.au"). timeout bounds each call.
func New(baseURL string, timeout time.Duration) *WeatherClient {
	return &WeatherClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// locationSearchResponse is the /v1/locations payload. Upstream pre-sorts
// candidates by proximity.
type locationSearchResponse struct {
	Data []struct {
		Geohash string `json:"geohash"`
		Name    string `json:"name"`
		State   string `json:"state"`
	} `json:"data"`
}

type observationsResponse struct {
	Data models.Observations `json:"data"`
}

type forecastResponse struct {
	Data []json.RawMessage `json:"data"`
}

// SearchLocation resolves a coordinate pair to the nearest known location.
// The first candidate is taken; zero candidates yield ErrLocationNotFound.
// Lat and Lng on the result echo the request coordinates.
func (c *WeatherClient) SearchLocation(ctx context.Context, lat, lng float64) (models.WeatherLocation, error) {
	q := url.Values{}
	q.Set("search", fmt.Sprintf("%v,%v", lat, lng))

	body, err := c.get(ctx, "/v1/locations?"+q.Encode(), "location_search")
	if err != nil {
		return models.WeatherLocation{}, err
	}

	var resp locationSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.WeatherLocation{}, fmt.Errorf("parse location search response: %w", err)
	}
	if len(resp.Data) == 0 {
		return models.WeatherLocation{}, ErrLocationNotFound
	}

	first := resp.Data[0]
	return models.WeatherLocation{
		Name:    first.Name,
		State:   first.State,
		Geohash: first.Geohash,
		Lat:     lat,
		Lng:     lng,
	}, nil
}

// Observations fetches current observations for a geohash.
func (c *WeatherClient) Observations(ctx context.Context, geohash string) (models.Observations, error) {
	body, err := c.get(ctx, "/v1/locations/"+url.PathEscape(geohash)+"/observations", "observations")
	if err != nil {
		return nil, err
	}
	var resp observationsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse observations response: %w", err)
	}
	return resp.Data, nil
}

// DailyForecast fetches the ordered daily forecast entries for a geohash.
// Entries stay raw; upstream fields pass through untouched.
func (c *WeatherClient) DailyForecast(ctx context.Context, geohash string) ([]json.RawMessage, error) {
	body, err := c.get(ctx, "/v1/locations/"+url.PathEscape(geohash)+"/forecasts/daily", "forecast_daily")
	if err != nil {
		return nil, err
	}
	var resp forecastResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse forecast response: %w", err)
	}
	return resp.Data, nil
}

// get performs one GET against the API, recording metrics under endpoint.
// Non-2xx responses become *upstream.StatusError.
func (c *WeatherClient) get(ctx context.Context, path, endpoint string) ([]byte, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		observability.UpstreamCallsTotal.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		observability.UpstreamCallsTotal.WithLabelValues(endpoint, "error").Inc()
		observability.UpstreamDuration.WithLabelValues(endpoint, "error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("%s request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	status := observability.StatusLabel(resp.StatusCode)
	observability.UpstreamCallsTotal.WithLabelValues(endpoint, status).Inc()
	observability.UpstreamDuration.WithLabelValues(endpoint, status).Observe(time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &upstream.StatusError{Status: resp.StatusCode, Reason: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response body: %w", endpoint, err)
	}
	return body, nil
}
