package geocache

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/couchcryptid/wireline-recovery-map/internal/domain"
	"github.com/couchcryptid/wireline-recovery-map/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock for cache tests ---

type countingGeocoder struct {
	mu           sync.Mutex
	forwardCalls int
	reverseCalls int
	result       domain.GeocodingResult
	err          error
}

func (m *countingGeocoder) ForwardGeocode(_ context.Context, _ string) (domain.GeocodingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forwardCalls++
	return m.result, m.err
}

func (m *countingGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (domain.GeocodingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reverseCalls++
	return m.result, m.err
}

// --- CachedGeocoder tests ---

func TestCachedGeocoder_ForwardCacheHit(t *testing.T) {
	inner := &countingGeocoder{
		result: domain.GeocodingResult{Lat: 37.83, Lon: 127.51, PlaceName: "가평읍", FormattedAddress: "경기도 가평군 가평읍"},
	}
	metrics := observability.NewMetricsForTesting()
	cached := NewCachedGeocoder(inner, 10, metrics)

	r1, err := cached.ForwardGeocode(context.Background(), "경기도 가평군 가평읍")
	require.NoError(t, err)
	assert.Equal(t, "가평읍", r1.PlaceName)

	r2, err := cached.ForwardGeocode(context.Background(), "경기도 가평군 가평읍")
	require.NoError(t, err)
	assert.Equal(t, "가평읍", r2.PlaceName)

	assert.Equal(t, 1, inner.forwardCalls, "should only call inner once")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("forward", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("forward", "miss")))
}

func TestCachedGeocoder_ForwardKeyIgnoresSurroundingSpace(t *testing.T) {
	inner := &countingGeocoder{result: domain.GeocodingResult{Lat: 1, Lon: 2}}
	cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

	_, _ = cached.ForwardGeocode(context.Background(), "가평군 청평면")
	_, _ = cached.ForwardGeocode(context.Background(), "  가평군 청평면 ")

	assert.Equal(t, 1, inner.forwardCalls)
}

func TestCachedGeocoder_ReverseCacheHit(t *testing.T) {
	inner := &countingGeocoder{
		result: domain.GeocodingResult{FormattedAddress: "경기도 가평군"},
	}
	cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

	_, err := cached.ReverseGeocode(context.Background(), 37.8313, 127.5095)
	require.NoError(t, err)

	_, err = cached.ReverseGeocode(context.Background(), 37.8313, 127.5095)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.reverseCalls, "should only call inner once")
}

func TestCachedGeocoder_DifferentKeysMiss(t *testing.T) {
	inner := &countingGeocoder{
		result: domain.GeocodingResult{PlaceName: "Place", FormattedAddress: "Place"},
	}
	cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

	_, _ = cached.ForwardGeocode(context.Background(), "가평읍")
	_, _ = cached.ForwardGeocode(context.Background(), "설악면")

	assert.Equal(t, 2, inner.forwardCalls)
}

func TestCachedGeocoder_NoMatchIsRemembered(t *testing.T) {
	inner := &countingGeocoder{err: domain.ErrNoMatch}
	cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

	_, err := cached.ForwardGeocode(context.Background(), "없는 주소")
	require.ErrorIs(t, err, domain.ErrNoMatch)
	_, err = cached.ForwardGeocode(context.Background(), "없는 주소")
	require.ErrorIs(t, err, domain.ErrNoMatch)

	assert.Equal(t, 1, inner.forwardCalls, "a failed lookup should not be retried")
}

func TestCachedGeocoder_ProviderErrorIsRemembered(t *testing.T) {
	inner := &countingGeocoder{err: errors.New("status 500")}
	cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

	_, err := cached.ForwardGeocode(context.Background(), "가평읍")
	require.Error(t, err)
	_, err = cached.ForwardGeocode(context.Background(), "가평읍")
	require.Error(t, err)

	assert.Equal(t, 1, inner.forwardCalls)
}

func TestCachedGeocoder_CancellationIsNotCached(t *testing.T) {
	inner := &countingGeocoder{err: context.Canceled}
	cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

	_, _ = cached.ForwardGeocode(context.Background(), "가평읍")
	_, _ = cached.ForwardGeocode(context.Background(), "가평읍")

	assert.Equal(t, 2, inner.forwardCalls)
	assert.Equal(t, 0, cached.Len())
}

func TestCachedGeocoder_PurgeForgetsEverything(t *testing.T) {
	inner := &countingGeocoder{err: domain.ErrNoMatch}
	cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

	_, _ = cached.ForwardGeocode(context.Background(), "가평읍")
	require.Equal(t, 1, cached.Len())

	cached.Purge()
	assert.Equal(t, 0, cached.Len())

	_, _ = cached.ForwardGeocode(context.Background(), "가평읍")
	assert.Equal(t, 2, inner.forwardCalls)
}

// --- LRU cache unit tests ---

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newLRUCache(3)

	c.put("a", cached{result: domain.GeocodingResult{PlaceName: "A"}})
	c.put("b", cached{result: domain.GeocodingResult{PlaceName: "B"}})

	v, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "A", v.result.PlaceName)

	_, ok = c.get("missing")
	assert.False(t, ok)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", cached{result: domain.GeocodingResult{PlaceName: "A"}})
	c.put("b", cached{result: domain.GeocodingResult{PlaceName: "B"}})
	c.put("c", cached{result: domain.GeocodingResult{PlaceName: "C"}}) // evicts "a"

	_, ok := c.get("a")
	assert.False(t, ok, "a should have been evicted")

	v, ok := c.get("c")
	assert.True(t, ok)
	assert.Equal(t, "C", v.result.PlaceName)
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", cached{result: domain.GeocodingResult{PlaceName: "A"}})
	c.put("b", cached{result: domain.GeocodingResult{PlaceName: "B"}})

	c.get("a")
	c.put("c", cached{result: domain.GeocodingResult{PlaceName: "C"}})

	_, ok := c.get("a")
	assert.True(t, ok, "a was accessed recently, should not be evicted")

	_, ok = c.get("b")
	assert.False(t, ok, "b should have been evicted")
}

func TestLRUCache_UnboundedWhenZero(t *testing.T) {
	c := newLRUCache(0)
	for _, k := range []string{"a", "b", "c", "d"} {
		c.put(k, cached{})
	}
	assert.Equal(t, 4, c.len())
}
