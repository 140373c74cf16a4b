package cache

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ozweather/radar-proxy/internal/models"
)

func brisbaneReport() models.WeatherReport {
	return models.WeatherReport{
		Location: models.WeatherLocation{
			Name:    "Brisbane",
			State:   "QLD",
			Geohash: "r7hgdp8",
			Lat:     -27.4698,
			Lng:     153.0251,
		},
		Observations: models.Observations{"temp": 24.3},
	}
}

func TestInMemoryCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache()

	require.NoError(t, c.Set(ctx, "-27.4698153.0251", brisbaneReport(), 5*time.Minute))

	got, ok, err := c.Get(ctx, "-27.4698153.0251")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Brisbane", got.Location.Name)
	assert.Equal(t, 24.3, got.Observations["temp"])
}

func TestInMemoryCache_Miss(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache()

	_, ok, err := c.Get(ctx, "nonexistent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInMemoryCache_ExpiresAfterTTL(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	c := NewInMemoryCacheWithClock(clock)

	require.NoError(t, c.Set(ctx, "k", brisbaneReport(), 5*time.Minute))

	// Just inside the window the entry is still served.
	clock.Advance(5*time.Minute - time.Second)
	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	// Age exactly equal to the TTL is already stale.
	clock.Advance(time.Second)
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	// The stale entry was dropped on access.
	assert.Equal(t, 0, c.Len())
}

func TestInMemoryCache_SetOverwrites(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	c := NewInMemoryCacheWithClock(clock)

	first := brisbaneReport()
	require.NoError(t, c.Set(ctx, "k", first, 5*time.Minute))

	clock.Advance(4 * time.Minute)
	second := brisbaneReport()
	second.Observations = models.Observations{"temp": 19.1}
	require.NoError(t, c.Set(ctx, "k", second, 5*time.Minute))

	// The overwrite re-stamped the entry, so it survives past the first
	// entry's original deadline.
	clock.Advance(4 * time.Minute)
	got, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 19.1, got.Observations["temp"])
}

func TestInMemoryCache_DistinctKeys(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache()

	require.NoError(t, c.Set(ctx, "-27.4698153.0251", brisbaneReport(), time.Minute))

	// Differently precise coordinates are different keys; no quantization.
	_, ok, err := c.Get(ctx, "-27.47153.03")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())
}
