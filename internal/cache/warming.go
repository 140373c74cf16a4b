package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ozweather/radar-proxy/internal/models"
	"github.com/ozweather/radar-proxy/internal/observability"
)

// WeatherFetcher is implemented by the service layer to fetch weather for a
// coordinate pair. Used by Warmer to avoid a circular dependency on the
// service package.
type WeatherFetcher interface {
	GetWeather(ctx context.Context, lat, lng float64) (models.WeatherReport, error)
}

// WarmTarget is one coordinate pair to prefetch.
type WarmTarget struct {
	Lat float64
	Lng float64
}

// Warmer prefetches weather for a fixed set of coordinates so the first
// real requests after startup hit the cache.
type Warmer struct {
	fetcher WeatherFetcher
	logger  *zap.Logger
}

// NewWarmer creates a Warmer that uses the given fetcher and logger.
func NewWarmer(fetcher WeatherFetcher, logger *zap.Logger) *Warmer {
	return &Warmer{fetcher: fetcher, logger: logger}
}

// Warm fetches weather for each target concurrently, populating the cache
// via the fetcher. Returns an aggregated error if any target failed.
func (w *Warmer) Warm(ctx context.Context, targets []WarmTarget) error {
	start := time.Now()
	observability.CacheWarmingTotal.Inc()
	if w.logger != nil {
		w.logger.Info("warming weather cache", zap.Int("targets", len(targets)))
	}
	var wg sync.WaitGroup
	errCh := make(chan error, len(targets))
	for _, target := range targets {
		target := target
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := w.fetcher.GetWeather(ctx, target.Lat, target.Lng); err != nil {
				errCh <- fmt.Errorf("warm %v,%v: %w", target.Lat, target.Lng, err)
			}
		}()
	}
	wg.Wait()
	close(errCh)
	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	duration := time.Since(start).Seconds()
	observability.CacheWarmingDurationSeconds.Observe(duration)
	if w.logger != nil {
		w.logger.Info("cache warming complete",
			zap.Int("targets", len(targets)),
			zap.Int("errors", len(errs)),
			zap.Float64("duration_seconds", duration))
	}
	if len(errs) > 0 {
		observability.CacheWarmingErrorsTotal.Inc()
		return fmt.Errorf("cache warming: %v", errs)
	}
	return nil
}

// WarmPeriodic runs an initial Warm, then refreshes at the given interval
// until ctx is done. Intervals shorter than the cache TTL keep the warmed
// entries permanently fresh.
func (w *Warmer) WarmPeriodic(ctx context.Context, targets []WarmTarget, interval time.Duration) error {
	if err := w.Warm(ctx, targets); err != nil && w.logger != nil {
		w.logger.Warn("initial cache warm failed", zap.Error(err))
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Warm(ctx, targets); err != nil && w.logger != nil {
				w.logger.Warn("periodic cache warm failed", zap.Error(err))
			}
		}
	}
}
