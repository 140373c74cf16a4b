package service

import (
	"context"
	"sync"
	"time"

	"github.com/ozweather/radar-proxy/internal/models"
)

// inFlightAggregation tracks one upstream aggregation that multiple callers
// may wait for.
type inFlightAggregation struct {
	mu      sync.Mutex
	result  models.WeatherReport
	err     error
	done    bool
	waiters []chan struct{}
}

// requestCoalescer collapses concurrent lookups for the same cache key into
// a single upstream aggregation.
type requestCoalescer struct {
	mu       sync.Mutex
	inFlight map[string]*inFlightAggregation
	timeout  time.Duration
}

func newRequestCoalescer(timeout time.Duration) *requestCoalescer {
	return &requestCoalescer{
		inFlight: make(map[string]*inFlightAggregation),
		timeout:  timeout,
	}
}

// GetOrDo joins an in-flight aggregation for key when one exists, otherwise
// starts fn and registers it. All joiners receive the same result or error.
// Waiting is bounded by the coalescer timeout and the caller's context.
func (rc *requestCoalescer) GetOrDo(ctx context.Context, key string, fn func() (models.WeatherReport, error)) (models.WeatherReport, error) {
	rc.mu.Lock()
	req, exists := rc.inFlight[key]
	if exists {
		rc.mu.Unlock()
		return rc.wait(ctx, req)
	}

	req = &inFlightAggregation{}
	rc.inFlight[key] = req
	rc.mu.Unlock()

	// Run the aggregation off the caller's goroutine so a caller that
	// gives up waiting does not abandon the result for later joiners.
	go func() {
		result, err := fn()

		req.mu.Lock()
		req.result = result
		req.err = err
		req.done = true
		waiters := req.waiters
		req.waiters = nil
		req.mu.Unlock()

		for _, notify := range waiters {
			close(notify)
		}

		rc.mu.Lock()
		delete(rc.inFlight, key)
		rc.mu.Unlock()
	}()

	return rc.wait(ctx, req)
}

// wait blocks until req completes, the coalescer timeout elapses, or ctx is
// cancelled.
func (rc *requestCoalescer) wait(ctx context.Context, req *inFlightAggregation) (models.WeatherReport, error) {
	req.mu.Lock()
	if req.done {
		result, err := req.result, req.err
		req.mu.Unlock()
		return result, err
	}
	notify := make(chan struct{})
	req.waiters = append(req.waiters, notify)
	req.mu.Unlock()

	waitCtx, cancel := context.WithTimeout(ctx, rc.timeout)
	defer cancel()
	select {
	case <-notify:
		req.mu.Lock()
		result, err := req.result, req.err
		req.mu.Unlock()
		return result, err
	case <-waitCtx.Done():
		return models.WeatherReport{}, waitCtx.Err()
	}
}
