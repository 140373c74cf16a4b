package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ozweather/radar-proxy/internal/models"
)

// TestCoalescer_ConcurrentCallersShareOneCall verifies that N concurrent
// callers for one key trigger a single execution of fn.
func TestCoalescer_ConcurrentCallersShareOneCall(t *testing.T) {
	rc := newRequestCoalescer(2 * time.Second)

	var calls atomic.Int64
	started := make(chan struct{})
	release := make(chan struct{})
	fn := func() (models.WeatherReport, error) {
		calls.Add(1)
		close(started)
		<-release
		return models.WeatherReport{Location: models.WeatherLocation{Name: "Brisbane"}}, nil
	}

	const n = 8
	var wg sync.WaitGroup
	results := make([]models.WeatherReport, n)
	errs := make([]error, n)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], errs[0] = rc.GetOrDo(context.Background(), "k", fn)
	}()
	<-started

	for i := 1; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = rc.GetOrDo(context.Background(), "k", fn)
		}()
	}
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("fn executed %d times, want 1", calls.Load())
	}
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Errorf("caller %d error = %v", i, errs[i])
		}
		if results[i].Location.Name != "Brisbane" {
			t.Errorf("caller %d got %+v", i, results[i])
		}
	}
}

// TestCoalescer_ErrorSharedByJoiners verifies an aggregation error reaches
// every joined caller.
func TestCoalescer_ErrorSharedByJoiners(t *testing.T) {
	rc := newRequestCoalescer(2 * time.Second)
	wantErr := errors.New("upstream down")

	started := make(chan struct{})
	release := make(chan struct{})
	fn := func() (models.WeatherReport, error) {
		close(started)
		<-release
		return models.WeatherReport{}, wantErr
	}

	var wg sync.WaitGroup
	var err1, err2 error
	wg.Add(1)
	go func() { defer wg.Done(); _, err1 = rc.GetOrDo(context.Background(), "k", fn) }()
	<-started
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err2 = rc.GetOrDo(context.Background(), "k", func() (models.WeatherReport, error) {
			t.Error("second fn must not run")
			return models.WeatherReport{}, nil
		})
	}()
	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()

	if !errors.Is(err1, wantErr) || !errors.Is(err2, wantErr) {
		t.Errorf("errors = %v, %v; want both %v", err1, err2, wantErr)
	}
}

// TestCoalescer_DistinctKeysDoNotCoalesce verifies separate keys run
// separate aggregations.
func TestCoalescer_DistinctKeysDoNotCoalesce(t *testing.T) {
	rc := newRequestCoalescer(time.Second)
	var calls atomic.Int64
	fn := func() (models.WeatherReport, error) {
		calls.Add(1)
		return models.WeatherReport{}, nil
	}

	if _, err := rc.GetOrDo(context.Background(), "a", fn); err != nil {
		t.Fatal(err)
	}
	if _, err := rc.GetOrDo(context.Background(), "b", fn); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Errorf("fn executed %d times, want 2", calls.Load())
	}
}

// TestCoalescer_WaitTimeout verifies a waiter gives up after the coalescer
// timeout while the aggregation is still running.
func TestCoalescer_WaitTimeout(t *testing.T) {
	rc := newRequestCoalescer(20 * time.Millisecond)
	release := make(chan struct{})
	defer close(release)

	_, err := rc.GetOrDo(context.Background(), "k", func() (models.WeatherReport, error) {
		<-release
		return models.WeatherReport{}, nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want deadline exceeded", err)
	}
}
