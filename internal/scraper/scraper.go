// Package scraper fetches BOM radar loop pages and extracts the image
// frame list embedded in the page's script block.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/ozweather/radar-proxy/internal/circuitbreaker"
	"github.com/ozweather/radar-proxy/internal/models"
	"github.com/ozweather/radar-proxy/internal/observability"
	"github.com/ozweather/radar-proxy/internal/upstream"
)

// ErrNoImages is returned when the loop page fetch succeeded but contained
// no theImageNames assignments. Distinct from a fetch failure: the request
// shape or the upstream page format is the problem, not connectivity.
var ErrNoImages = errors.New("no radar images found")

// imageNameRe matches the embedded frame list assignments, e.g.
//
//	theImageNames[0] = "/radar/IDR663.T.202508311200.png";
//
// Single and double quotes both occur in the wild but always as matched
// pairs; the opening quote style must be closed by the same style. Match
// order in the document is the trusted order; indices are ignored.
var imageNameRe = regexp.MustCompile(`theImageNames\[\d+\]\s*=\s*(?:"([^"]+)"|'([^']+)')`)

// timestampRe extracts the acquisition timestamp from a frame path. Only
// the `.T.` marker counts; any other single-letter marker does not carry
// a timestamp.
var timestampRe = regexp.MustCompile(`\.T\.(\d{12})\.png`)

// Scraper fetches and parses radar loop pages. Each Scrape is a fresh
// fetch; no caching and no retries happen here.
type Scraper struct {
	baseURL string
	client  *http.Client
	breaker *circuitbreaker.CircuitBreaker
}

// New creates a Scraper for the given radar host base URL
// (e.g. "http://www.bom.gov.au"). timeout bounds each upstream fetch.
func New(baseURL string, timeout time.Duration) *Scraper {
	return &Scraper{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// SetCircuitBreaker installs an optional breaker guarding the radar host.
func (s *Scraper) SetCircuitBreaker(cb *circuitbreaker.CircuitBreaker) {
	s.breaker = cb
}

// Scrape fetches the loop page for productID and returns the embedded
// frames in document order, each with an absolute URL and the timestamp
// parsed from its filename. Returns *upstream.StatusError on a non-2xx
// response and ErrNoImages when the page yields zero frames. The breaker
// guards only the fetch: a page without frames is a content problem, not
// a connectivity failure, and must never open the circuit.
func (s *Scraper) Scrape(ctx context.Context, productID string) ([]models.RadarImage, error) {
	var body string
	fetch := func() error {
		var err error
		body, err = s.fetchLoopPage(ctx, productID)
		return err
	}

	var err error
	if s.breaker != nil {
		err = s.breaker.Call(ctx, fetch)
	} else {
		err = fetch()
	}
	if err != nil {
		return nil, err
	}
	return s.extractImages(body, productID)
}

// fetchLoopPage performs the upstream fetch and returns the raw page body.
func (s *Scraper) fetchLoopPage(ctx context.Context, productID string) (string, error) {
	pageURL := fmt.Sprintf("%s/products/%s.loop.shtml", s.baseURL, productID)

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		observability.RadarScrapesTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		observability.RadarScrapesTotal.WithLabelValues("error").Inc()
		observability.UpstreamCallsTotal.WithLabelValues("radar_loop", "error").Inc()
		return "", fmt.Errorf("fetch radar loop page: %w", err)
	}
	defer resp.Body.Close()

	status := observability.StatusLabel(resp.StatusCode)
	observability.UpstreamCallsTotal.WithLabelValues("radar_loop", status).Inc()
	observability.UpstreamDuration.WithLabelValues("radar_loop", status).Observe(time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		observability.RadarScrapesTotal.WithLabelValues("upstream_error").Inc()
		return "", &upstream.StatusError{Status: resp.StatusCode, Reason: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		observability.RadarScrapesTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("read radar loop page: %w", err)
	}
	return string(body), nil
}

// extractImages parses the fetched page body into frames.
func (s *Scraper) extractImages(body, productID string) ([]models.RadarImage, error) {
	paths := ParseImageNames(body)
	if len(paths) == 0 {
		observability.RadarScrapesTotal.WithLabelValues("no_images").Inc()
		return nil, fmt.Errorf("%w for %s", ErrNoImages, productID)
	}

	images := make([]models.RadarImage, 0, len(paths))
	for _, p := range paths {
		images = append(images, models.RadarImage{
			URL:       s.baseURL + p,
			Timestamp: ExtractTimestamp(p),
		})
	}

	observability.RadarScrapesTotal.WithLabelValues("success").Inc()
	observability.RadarImagesPerScrape.Observe(float64(len(images)))
	return images, nil
}

// ParseImageNames scans a loop page body for theImageNames assignments and
// returns the quoted paths in document order. Duplicates are kept and the
// paths are not validated; whatever upstream embeds is passed through.
func ParseImageNames(body string) []string {
	matches := imageNameRe.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return nil
	}
	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		if m[1] != "" {
			paths = append(paths, m[1])
		} else {
			paths = append(paths, m[2])
		}
	}
	return paths
}

// ExtractTimestamp returns the 12-digit acquisition timestamp from a frame
// path, or the empty string when the path carries none.
func ExtractTimestamp(path string) string {
	m := timestampRe.FindStringSubmatch(path)
	if m == nil {
		return ""
	}
	return m[1]
}
