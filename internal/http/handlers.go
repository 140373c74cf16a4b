package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ozweather/radar-proxy/internal/client"
	"github.com/ozweather/radar-proxy/internal/lifecycle"
	"github.com/ozweather/radar-proxy/internal/models"
	"github.com/ozweather/radar-proxy/internal/product"
	"github.com/ozweather/radar-proxy/internal/scraper"
	"github.com/ozweather/radar-proxy/internal/stations"
	"github.com/ozweather/radar-proxy/internal/upstream"
	"github.com/ozweather/radar-proxy/internal/validation"
)

// RadarScraper fetches and parses a radar loop page for a product id.
type RadarScraper interface {
	Scrape(ctx context.Context, productID string) ([]models.RadarImage, error)
}

// WeatherProvider returns the assembled weather report for a coordinate pair.
type WeatherProvider interface {
	GetWeather(ctx context.Context, lat, lng float64) (models.WeatherReport, error)
}

// HealthConfig holds optional dependencies for the health handler.
type HealthConfig struct {
	// CachePing, when set, is called to check cache reachability. Used when backend is memcached.
	CachePing func() error
	StartTime time.Time
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	weather      WeatherProvider
	radar        RadarScraper
	healthConfig *HealthConfig
	logger       *zap.Logger
}

// NewHandler returns a new Handler.
func NewHandler(weather WeatherProvider, radar RadarScraper, healthConfig *HealthConfig, logger *zap.Logger) *Handler {
	return &Handler{
		weather:      weather,
		radar:        radar,
		healthConfig: healthConfig,
		logger:       logger,
	}
}

// GetRadar handles GET /api/radar/{productId}. The product id is passed to
// upstream as-is; upstream decides whether it exists.
func (h *Handler) GetRadar(w http.ResponseWriter, r *http.Request) {
	productID := mux.Vars(r)["productId"]

	images, err := h.radar.Scrape(r.Context(), productID)
	if err != nil {
		h.writeRadarError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"images": images})
}

// writeRadarError maps scrape failures: no images is a 404, an upstream
// status error passes the status through, everything else is a 500.
func (h *Handler) writeRadarError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, scraper.ErrNoImages) {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "No radar images found"})
		return
	}
	var se *upstream.StatusError
	if errors.As(err, &se) {
		writeJSON(w, se.Status, map[string]any{"error": "Failed to fetch radar data: " + se.Reason})
		return
	}
	h.logError(r, "radar scrape failed", err)
	writeJSON(w, http.StatusInternalServerError, map[string]any{
		"error":   "Failed to fetch radar data",
		"message": err.Error(),
	})
}

// GetWeather handles GET /api/weather?lat=<float>&lng=<float>.
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	lat, lng, err := validation.ParseCoordinates(r.URL.Query().Get("lat"), r.URL.Query().Get("lng"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	report, err := h.weather.GetWeather(r.Context(), lat, lng)
	if err != nil {
		if errors.Is(err, client.ErrLocationNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "Could not find location data for these coordinates"})
			return
		}
		h.logError(r, "weather aggregation failed", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":   "Failed to fetch weather data",
			"message": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// nearestStation is one entry of the nearest-stations response: the ranked
// station plus the product id resolved for the requested mode and range.
type nearestStation struct {
	models.RankedStation
	RequestProductID string `json:"requestProductId"`
}

// GetNearestStations handles GET /api/stations/nearest?lat&lng&limit&mode&range.
// mode defaults to rain and range to 128 km; the response carries the
// resolved product id per station so clients skip the mapping.
func (h *Handler) GetNearestStations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, lng, err := validation.ParseCoordinates(q.Get("lat"), q.Get("lng"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	limit, err := validation.ParseLimit(q.Get("limit"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	mode := product.ModeRain
	if q.Get("mode") == string(product.ModeDoppler) {
		mode = product.ModeDoppler
	}
	rangeKm, err := validation.ParseRange(q.Get("range"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	if rangeKm == 0 {
		rangeKm = product.DefaultRangeKm
	}

	ranked := stations.Nearest(lat, lng, limit)
	out := make([]nearestStation, 0, len(ranked))
	for _, s := range ranked {
		out = append(out, nearestStation{
			RankedStation:    s,
			RequestProductID: product.BuildLogged(h.logger, s.BaseID, mode, rangeKm, s.DopplerID),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"stations": out})
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	statusCode := http.StatusOK
	if lifecycle.IsShuttingDown() {
		status = "shutting-down"
		statusCode = http.StatusServiceUnavailable
	}

	checks := make(map[string]string)
	if h.healthConfig != nil && h.healthConfig.CachePing != nil {
		if h.healthConfig.CachePing() == nil {
			checks["cache"] = "healthy"
		} else {
			checks["cache"] = "unhealthy"
		}
	}

	resp := map[string]any{
		"status":    status,
		"message":   "Weather radar proxy is running",
		"service":   "radar-proxy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if len(checks) > 0 {
		resp["checks"] = checks
	}
	if h.healthConfig != nil && !h.healthConfig.StartTime.IsZero() {
		resp["uptime"] = time.Since(h.healthConfig.StartTime).Round(time.Second).String()
	}
	writeJSON(w, statusCode, resp)
}

// GetIndex handles GET /. Returns the endpoint index.
func (h *Handler) GetIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "radar-proxy",
		"endpoints": map[string]string{
			"radar":    "/api/radar/{productId}",
			"weather":  "/api/weather?lat=<float>&lng=<float>",
			"stations": "/api/stations/nearest?lat=<float>&lng=<float>&limit=<n>",
			"health":   "/health",
			"metrics":  "/metrics",
		},
	})
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// logError logs err with the request-scoped logger when one is present.
func (h *Handler) logError(r *http.Request, msg string, err error) {
	logger := h.logger
	if l, ok := r.Context().Value("logger").(*zap.Logger); ok && l != nil {
		logger = l
	}
	if logger != nil {
		logger.Error(msg, zap.Error(err))
	}
}
