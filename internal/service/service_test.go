package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/ozweather/radar-proxy/internal/cache"
	"github.com/ozweather/radar-proxy/internal/client"
	"github.com/ozweather/radar-proxy/internal/models"
)

type mockAPI struct {
	location    models.WeatherLocation
	locationErr error

	observations models.Observations
	obsErr       error

	daily       []json.RawMessage
	forecastErr error

	searchCalls   atomic.Int64
	obsCalls      atomic.Int64
	forecastCalls atomic.Int64
}

func (m *mockAPI) SearchLocation(ctx context.Context, lat, lng float64) (models.WeatherLocation, error) {
	m.searchCalls.Add(1)
	if m.locationErr != nil {
		return models.WeatherLocation{}, m.locationErr
	}
	loc := m.location
	loc.Lat = lat
	loc.Lng = lng
	return loc, nil
}

func (m *mockAPI) Observations(ctx context.Context, geohash string) (models.Observations, error) {
	m.obsCalls.Add(1)
	return m.observations, m.obsErr
}

func (m *mockAPI) DailyForecast(ctx context.Context, geohash string) ([]json.RawMessage, error) {
	m.forecastCalls.Add(1)
	return m.daily, m.forecastErr
}

func brisbaneAPI() *mockAPI {
	return &mockAPI{
		location:     models.WeatherLocation{Name: "Brisbane", State: "QLD", Geohash: "r7hgdp8"},
		observations: models.Observations{"temp": 24.3},
		daily: []json.RawMessage{
			json.RawMessage(`{"date":"2026-08-31","temp_max":26}`),
			json.RawMessage(`{"date":"2026-09-01","temp_max":28}`),
		},
	}
}

func newService(api client.API) *WeatherService {
	return NewWeatherService(api, cache.NewInMemoryCache(), 5*time.Minute, 0)
}

// TestCacheKey verifies the exact-concatenation key shape.
func TestCacheKey(t *testing.T) {
	if got := CacheKey(-27.4698, 153.0251); got != "-27.4698153.0251" {
		t.Errorf("CacheKey() = %q, want %q", got, "-27.4698153.0251")
	}
	if CacheKey(-27.4698, 153.0251) == CacheKey(-27.47, 153.03) {
		t.Error("differently precise coordinates must produce different keys")
	}
}

// TestGetWeather_FullAggregation verifies the assembled report shape when
// all three upstream calls succeed.
func TestGetWeather_FullAggregation(t *testing.T) {
	api := brisbaneAPI()
	svc := newService(api)

	report, err := svc.GetWeather(context.Background(), -27.4698, 153.0251)
	if err != nil {
		t.Fatalf("GetWeather() error = %v", err)
	}

	if report.Location.Name != "Brisbane" {
		t.Errorf("Location.Name = %q, want Brisbane", report.Location.Name)
	}
	if report.Location.Lat != -27.4698 || report.Location.Lng != 153.0251 {
		t.Errorf("Location coordinates = %v,%v, want request echo", report.Location.Lat, report.Location.Lng)
	}
	if report.Observations == nil {
		t.Fatal("Observations = nil, want populated")
	}
	if report.Forecast == nil {
		t.Fatal("Forecast = nil, want populated")
	}
	if string(report.Forecast.Today) != `{"date":"2026-08-31","temp_max":26}` {
		t.Errorf("Forecast.Today = %s, want first daily entry", report.Forecast.Today)
	}
	if len(report.Forecast.Daily) != 2 {
		t.Errorf("len(Forecast.Daily) = %d, want 2", len(report.Forecast.Daily))
	}
}

// TestGetWeather_LocationFailureIsFatal verifies that a location lookup
// failure aborts the whole aggregation.
func TestGetWeather_LocationFailureIsFatal(t *testing.T) {
	api := brisbaneAPI()
	api.locationErr = client.ErrLocationNotFound
	svc := newService(api)

	_, err := svc.GetWeather(context.Background(), 0, 0)
	if !errors.Is(err, client.ErrLocationNotFound) {
		t.Errorf("GetWeather() error = %v, want ErrLocationNotFound", err)
	}
	if api.obsCalls.Load() != 0 || api.forecastCalls.Load() != 0 {
		t.Error("sub-fetches must not run when the location lookup fails")
	}
}

// TestGetWeather_ObservationsDegrade verifies a failed observations fetch
// yields a null field, not an error, and does not stop the forecast.
func TestGetWeather_ObservationsDegrade(t *testing.T) {
	api := brisbaneAPI()
	api.obsErr = errors.New("upstream 503")
	svc := newService(api)

	report, err := svc.GetWeather(context.Background(), -27.4698, 153.0251)
	if err != nil {
		t.Fatalf("GetWeather() error = %v", err)
	}
	if report.Observations != nil {
		t.Error("Observations should be nil after a failed fetch")
	}
	if report.Forecast == nil {
		t.Error("Forecast should still be populated")
	}
}

// TestGetWeather_ForecastDegrades mirrors the observations case for the
// forecast branch, including the empty-array case.
func TestGetWeather_ForecastDegrades(t *testing.T) {
	api := brisbaneAPI()
	api.forecastErr = errors.New("upstream 500")
	svc := newService(api)

	report, err := svc.GetWeather(context.Background(), -27.4698, 153.0251)
	if err != nil {
		t.Fatalf("GetWeather() error = %v", err)
	}
	if report.Forecast != nil {
		t.Error("Forecast should be nil after a failed fetch")
	}
	if report.Observations == nil {
		t.Error("Observations should still be populated")
	}

	// Empty forecast array also yields a null forecast.
	api = brisbaneAPI()
	api.daily = nil
	svc = newService(api)
	report, err = svc.GetWeather(context.Background(), -33.8688, 151.2093)
	if err != nil {
		t.Fatalf("GetWeather() error = %v", err)
	}
	if report.Forecast != nil {
		t.Error("empty forecast array should yield nil Forecast")
	}
}

// TestGetWeather_CacheHitSkipsUpstream verifies a second identical request
// inside the TTL window performs zero upstream calls and returns identical
// data.
func TestGetWeather_CacheHitSkipsUpstream(t *testing.T) {
	api := brisbaneAPI()
	svc := newService(api)
	ctx := context.Background()

	first, err := svc.GetWeather(ctx, -27.4698, 153.0251)
	if err != nil {
		t.Fatalf("first GetWeather() error = %v", err)
	}
	second, err := svc.GetWeather(ctx, -27.4698, 153.0251)
	if err != nil {
		t.Fatalf("second GetWeather() error = %v", err)
	}

	if api.searchCalls.Load() != 1 {
		t.Errorf("search calls = %d, want 1", api.searchCalls.Load())
	}
	if api.obsCalls.Load() != 1 || api.forecastCalls.Load() != 1 {
		t.Error("sub-fetches should run once for two identical requests")
	}

	firstJSON, _ := json.Marshal(first)
	secondJSON, _ := json.Marshal(second)
	if string(firstJSON) != string(secondJSON) {
		t.Errorf("cached response differs:\n%s\n%s", firstJSON, secondJSON)
	}
}

// TestGetWeather_RecomputesAfterTTL verifies stale entries trigger a fresh
// aggregation.
func TestGetWeather_RecomputesAfterTTL(t *testing.T) {
	api := brisbaneAPI()
	clock := clockwork.NewFakeClock()
	svc := NewWeatherService(api, cache.NewInMemoryCacheWithClock(clock), 5*time.Minute, 0)
	ctx := context.Background()

	if _, err := svc.GetWeather(ctx, -27.4698, 153.0251); err != nil {
		t.Fatalf("GetWeather() error = %v", err)
	}
	clock.Advance(5 * time.Minute)
	if _, err := svc.GetWeather(ctx, -27.4698, 153.0251); err != nil {
		t.Fatalf("GetWeather() error = %v", err)
	}

	if api.searchCalls.Load() != 2 {
		t.Errorf("search calls = %d, want 2 after TTL expiry", api.searchCalls.Load())
	}
}

// TestGetWeather_FailureNotCached verifies a failed aggregation is not
// stored, so the next request retries upstream.
func TestGetWeather_FailureNotCached(t *testing.T) {
	api := brisbaneAPI()
	api.locationErr = errors.New("boom")
	svc := newService(api)
	ctx := context.Background()

	if _, err := svc.GetWeather(ctx, -27.4698, 153.0251); err == nil {
		t.Fatal("GetWeather() error = nil, want failure")
	}

	api.locationErr = nil
	if _, err := svc.GetWeather(ctx, -27.4698, 153.0251); err != nil {
		t.Fatalf("GetWeather() after recovery error = %v", err)
	}
	if api.searchCalls.Load() != 2 {
		t.Errorf("search calls = %d, want 2", api.searchCalls.Load())
	}
}
