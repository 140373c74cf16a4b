package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ozweather/radar-proxy/internal/cache"
	"github.com/ozweather/radar-proxy/internal/client"
	"github.com/ozweather/radar-proxy/internal/models"
	"github.com/ozweather/radar-proxy/internal/observability"
)

// WeatherService aggregates location, observation and forecast data for a
// coordinate pair, with a cache-aside TTL cache in front of the upstream.
type WeatherService struct {
	api       client.API
	cache     cache.Cache
	ttl       time.Duration
	coalescer *requestCoalescer // nil when coalescing disabled
}

// NewWeatherService creates a WeatherService. ttl is the cache window for
// assembled reports. coalesceTimeout > 0 enables request coalescing so
// concurrent identical lookups share one upstream aggregation.
func NewWeatherService(api client.API, cache cache.Cache, ttl time.Duration, coalesceTimeout time.Duration) *WeatherService {
	var coalescer *requestCoalescer
	if coalesceTimeout > 0 {
		coalescer = newRequestCoalescer(coalesceTimeout)
	}
	return &WeatherService{
		api:       api,
		cache:     cache,
		ttl:       ttl,
		coalescer: coalescer,
	}
}

// CacheKey is the exact concatenation of the two coordinate values with no
// rounding. Differently precise coordinates for the same place are
// different keys.
func CacheKey(lat, lng float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + strconv.FormatFloat(lng, 'f', -1, 64)
}

// loggerFromContext extracts a zap.Logger from request context if present.
// Returns nil if logger is not found or context is invalid.
func loggerFromContext(ctx context.Context) *zap.Logger {
	if v := ctx.Value("logger"); v != nil {
		if l, ok := v.(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return nil
}

// GetWeather returns the assembled weather report for a coordinate pair.
// A fresh cache entry short-circuits the upstream entirely; otherwise the
// aggregation runs and its result is cached for the TTL window.
func (s *WeatherService) GetWeather(ctx context.Context, lat, lng float64) (models.WeatherReport, error) {
	key := CacheKey(lat, lng)
	logger := loggerFromContext(ctx)
	observability.WeatherQueriesTotal.Inc()

	cached, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		if logger != nil {
			logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
	} else if ok {
		observability.CacheHitsTotal.WithLabelValues("weather").Inc()
		if logger != nil {
			logger.Debug("cache hit", zap.String("key", key))
		}
		return cached, nil
	}

	var report models.WeatherReport
	var aggErr error
	if s.coalescer != nil {
		report, aggErr = s.coalescer.GetOrDo(ctx, key, func() (models.WeatherReport, error) {
			return s.aggregate(ctx, lat, lng)
		})
	} else {
		report, aggErr = s.aggregate(ctx, lat, lng)
	}
	if aggErr != nil {
		return models.WeatherReport{}, aggErr
	}

	if setErr := s.cache.Set(ctx, key, report, s.ttl); setErr != nil && logger != nil {
		logger.Warn("cache set failed", zap.String("key", key), zap.Error(setErr))
	}
	return report, nil
}

// aggregate resolves the location (fatal on failure), then fetches
// observations and forecast concurrently. Either sub-fetch failing is
// non-fatal: it logs a warning and leaves its field null, and never
// cancels its sibling.
func (s *WeatherService) aggregate(ctx context.Context, lat, lng float64) (models.WeatherReport, error) {
	logger := loggerFromContext(ctx)

	location, err := s.api.SearchLocation(ctx, lat, lng)
	if err != nil {
		return models.WeatherReport{}, fmt.Errorf("search location %v,%v: %w", lat, lng, err)
	}

	report := models.WeatherReport{Location: location}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		obs, err := s.api.Observations(ctx, location.Geohash)
		if err != nil {
			observability.WeatherPartialResultsTotal.WithLabelValues("observations").Inc()
			if logger != nil {
				logger.Warn("observations fetch failed",
					zap.String("geohash", location.Geohash), zap.Error(err))
			}
			return
		}
		report.Observations = obs
	}()

	go func() {
		defer wg.Done()
		daily, err := s.api.DailyForecast(ctx, location.Geohash)
		if err != nil {
			observability.WeatherPartialResultsTotal.WithLabelValues("forecast").Inc()
			if logger != nil {
				logger.Warn("forecast fetch failed",
					zap.String("geohash", location.Geohash), zap.Error(err))
			}
			return
		}
		if len(daily) > 0 {
			report.Forecast = &models.Forecast{Today: daily[0], Daily: daily}
		}
	}()

	wg.Wait()
	return report, nil
}
