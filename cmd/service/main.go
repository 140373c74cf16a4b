package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ozweather/radar-proxy/internal/cache"
	"github.com/ozweather/radar-proxy/internal/circuitbreaker"
	"github.com/ozweather/radar-proxy/internal/client"
	"github.com/ozweather/radar-proxy/internal/config"
	httphandler "github.com/ozweather/radar-proxy/internal/http"
	"github.com/ozweather/radar-proxy/internal/lifecycle"
	"github.com/ozweather/radar-proxy/internal/observability"
	"github.com/ozweather/radar-proxy/internal/scraper"
	"github.com/ozweather/radar-proxy/internal/service"
	"github.com/ozweather/radar-proxy/internal/upstream"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	radarScraper := scraper.New(cfg.RadarBaseURL, cfg.RadarTimeout)
	cb := circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: cfg.BreakerFailureThreshold,
		Cooldown:         cfg.BreakerCooldown,
		// 4xx statuses describe the request, not the radar host; only
		// connectivity failures and server errors count toward opening.
		IsFailure: func(err error) bool {
			var se *upstream.StatusError
			if errors.As(err, &se) && se.Status < 500 {
				return false
			}
			return err != nil
		},
		OnStateChange: func(from, to circuitbreaker.State) {
			observability.RecordCircuitBreakerTransition("radar_host", from.String(), to.String())
			observability.SetCircuitBreakerStateGauge("radar_host", float64(to))
		},
	})
	radarScraper.SetCircuitBreaker(cb)
	observability.SetCircuitBreakerStateGauge("radar_host", 0)

	weatherClient := client.New(cfg.WeatherAPIURL, cfg.WeatherAPITimeout)

	var cacheSvc cache.Cache
	var memcacheCloser *cache.MemcachedCache
	switch cfg.CacheBackend {
	case "memcached":
		mc, err := cache.NewMemcachedCache(cfg.MemcachedAddrs, cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns)
		if err != nil {
			logger.Fatal("memcached cache", zap.Error(err))
		}
		memcacheCloser = mc
		cacheSvc = mc
		logger.Info("cache backend: memcached", zap.String("addrs", cfg.MemcachedAddrs))
	default:
		cacheSvc = cache.NewInMemoryCache()
		logger.Info("cache backend: in_memory")
	}
	weatherService := service.NewWeatherService(weatherClient, cacheSvc, cfg.CacheTTL, cfg.RequestTimeout)

	healthConfig := &httphandler.HealthConfig{
		StartTime: time.Now(),
	}
	if memcacheCloser != nil {
		healthConfig.CachePing = memcacheCloser.Ping
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	handler := httphandler.NewHandler(weatherService, radarScraper, healthConfig, logger)

	if len(cfg.WarmTargets) > 0 {
		targets := make([]cache.WarmTarget, 0, len(cfg.WarmTargets))
		for _, t := range cfg.WarmTargets {
			targets = append(targets, cache.WarmTarget{Lat: t.Lat, Lng: t.Lng})
		}
		warmer := cache.NewWarmer(weatherService, logger)
		warmCtx, warmCancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := warmer.Warm(warmCtx, targets); err != nil {
			logger.Warn("cache warming failed", zap.Error(err))
		}
		warmCancel()
		if cfg.WarmInterval > 0 {
			go func() {
				if err := warmer.WarmPeriodic(context.Background(), targets, cfg.WarmInterval); err != nil && err != context.Canceled {
					logger.Error("periodic cache warming stopped", zap.Error(err))
				}
			}()
		}
	}

	router := mux.NewRouter()
	router.Use(httphandler.CORSMiddleware)
	router.Use(httphandler.CorrelationIDMiddleware(logger))
	router.Use(httphandler.MetricsMiddleware)
	router.HandleFunc("/", handler.GetIndex).Methods("GET")
	router.HandleFunc("/health", handler.GetHealth).Methods("GET")
	router.Handle("/metrics", observability.MetricsHandler())
	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(httphandler.RateLimitMiddleware(limiter))
	apiRouter.Use(httphandler.TimeoutMiddleware(cfg.RequestTimeout))
	apiRouter.HandleFunc("/radar/{productId}", handler.GetRadar).Methods("GET")
	apiRouter.HandleFunc("/weather", handler.GetWeather).Methods("GET")
	apiRouter.HandleFunc("/stations/nearest", handler.GetNearestStations).Methods("GET")

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", ":"+cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	lifecycle.SetShuttingDown(true)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	inFlight := httphandler.InFlightCount()
	if inFlight > 0 {
		logger.Info("waiting for in-flight requests", zap.Int64("count", inFlight))
		waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.DrainTimeout)
		defer waitCancel()
		if err := httphandler.WaitForInFlight(waitCtx, 100*time.Millisecond); err != nil {
			logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
		}
	}

	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}

	if memcacheCloser != nil {
		if err := memcacheCloser.Close(); err != nil {
			logger.Error("memcached close", zap.Error(err))
		}
	}
	logger.Info("shutdown complete")
}
