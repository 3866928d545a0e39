package nominatim

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/wireline-recovery-map/internal/domain"
	"github.com/couchcryptid/wireline-recovery-map/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserAgent = "wireline-recovery-map-test"

func testClient(baseURL string, metrics *observability.Metrics) *Client {
	return NewClient(baseURL, testUserAgent, "ko", 5*time.Second, metrics,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_ForwardGeocode_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "경기도 가평군 청평면", r.URL.Query().Get("q"))
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "ko", r.URL.Query().Get("accept-language"))
		assert.Equal(t, testUserAgent, r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"place_id":42,"lat":"37.7352","lon":"127.4261","name":"청평면","display_name":"청평면, 가평군, 경기도, 대한민국","importance":0.41}]`))
	}))
	defer srv.Close()

	metrics := observability.NewMetricsForTesting()
	c := testClient(srv.URL, metrics)

	result, err := c.ForwardGeocode(context.Background(), "경기도 가평군 청평면")
	require.NoError(t, err)

	assert.InDelta(t, 37.7352, result.Lat, 1e-9)
	assert.InDelta(t, 127.4261, result.Lon, 1e-9)
	assert.Equal(t, "청평면", result.PlaceName)
	assert.Equal(t, "청평면, 가평군, 경기도, 대한민국", result.FormattedAddress)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.GeocodeRequests.WithLabelValues("forward", "success")))
}

func TestClient_ForwardGeocode_EmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	metrics := observability.NewMetricsForTesting()
	c := testClient(srv.URL, metrics)

	_, err := c.ForwardGeocode(context.Background(), "없는 주소")
	require.ErrorIs(t, err, domain.ErrNoMatch)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.GeocodeRequests.WithLabelValues("forward", "empty")))
}

func TestClient_ReverseGeocode_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "37.831300", r.URL.Query().Get("lat"))
		assert.Equal(t, "127.509500", r.URL.Query().Get("lon"))
		_, _ = w.Write([]byte(`{"place_id":7,"lat":"37.8313","lon":"127.5095","display_name":"가평읍, 가평군, 경기도"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, observability.NewMetricsForTesting())

	result, err := c.ReverseGeocode(context.Background(), 37.8313, 127.5095)
	require.NoError(t, err)
	assert.Equal(t, "가평읍, 가평군, 경기도", result.FormattedAddress)
}

func TestClient_ReverseGeocode_UnableToGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Unable to geocode"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, observability.NewMetricsForTesting())

	_, err := c.ReverseGeocode(context.Background(), 0, 0)
	require.ErrorIs(t, err, domain.ErrNoMatch)
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`rate limited`))
	}))
	defer srv.Close()

	metrics := observability.NewMetricsForTesting()
	c := testClient(srv.URL, metrics)

	_, err := c.ForwardGeocode(context.Background(), "가평읍")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNoMatch)
	assert.Contains(t, err.Error(), "429")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.GeocodeRequests.WithLabelValues("forward", "error")))
}

func TestClient_BadCoordinate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"lat":"north","lon":"127.1","display_name":"x"}]`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, observability.NewMetricsForTesting())

	_, err := c.ForwardGeocode(context.Background(), "가평읍")
	require.Error(t, err)
}

func TestNewClient_DefaultBaseURL(t *testing.T) {
	c := NewClient("", testUserAgent, "", time.Second, observability.NewMetricsForTesting(), slog.Default())
	assert.Equal(t, DefaultBaseURL, c.baseURL)
}
