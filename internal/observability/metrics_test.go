package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestMetrics_Usable verifies that all Prometheus metrics can be used without
// panic, ensuring label dimensions match usage across scraper, client, http,
// service, and cache packages.
func TestMetrics_Usable(t *testing.T) {
	// Route uses the path template to bound cardinality.
	HTTPRequestsTotal.WithLabelValues("GET", "/api/radar/{productId}", "2xx").Inc()
	HTTPRequestDuration.WithLabelValues("GET", "/api/radar/{productId}").Observe(0.01)
	UpstreamCallsTotal.WithLabelValues("radar_loop", "success").Inc()
	UpstreamCallsTotal.WithLabelValues("location_search", "error").Inc()
	UpstreamDuration.WithLabelValues("observations", "success").Observe(0.1)
	RadarScrapesTotal.WithLabelValues("success").Inc()
	RadarImagesPerScrape.Observe(6)
	CacheHitsTotal.WithLabelValues("weather").Inc()
	WeatherQueriesTotal.Inc()
	WeatherPartialResultsTotal.WithLabelValues("observations").Inc()
	WeatherPartialResultsTotal.WithLabelValues("forecast").Inc()
	RateLimitDeniedTotal.Inc()
}

func TestStatusLabel(t *testing.T) {
	cases := []struct {
		code int
		want string
	}{
		{200, "success"},
		{204, "success"},
		{404, "client_error"},
		{500, "server_error"},
		{502, "server_error"},
		{0, "error"},
	}
	for _, tc := range cases {
		if got := StatusLabel(tc.code); got != tc.want {
			t.Errorf("StatusLabel(%d) = %q, want %q", tc.code, got, tc.want)
		}
	}
}

// TestMetricsHandler_ServesPrometheusFormat verifies that MetricsHandler serves
// Prometheus text exposition format with correct HTTP status and metric output.
func TestMetricsHandler_ServesPrometheusFormat(t *testing.T) {
	handler := MetricsHandler()
	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("MetricsHandler status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "httpRequestsTotal") {
		t.Error("MetricsHandler response should contain metric output")
	}
}
