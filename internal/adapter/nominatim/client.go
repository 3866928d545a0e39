// Package nominatim implements domain.Geocoder against an OpenStreetMap
// Nominatim endpoint.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/wireline-recovery-map/internal/domain"
	"github.com/couchcryptid/wireline-recovery-map/internal/observability"
)

// DefaultBaseURL is the public OpenStreetMap instance.
const DefaultBaseURL = "https://nominatim.openstreetmap.org"

// Client implements domain.Geocoder using the Nominatim search and reverse APIs.
// The public instance requires an identifying User-Agent and at most one
// request per second; rate limiting is left to the caller.
type Client struct {
	baseURL    string
	userAgent  string
	language   string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Nominatim client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL, userAgent, language string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		language:  language,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// ForwardGeocode converts a free-text address to coordinates.
func (c *Client) ForwardGeocode(ctx context.Context, address string) (domain.GeocodingResult, error) {
	params := url.Values{
		"q":      {address},
		"format": {"jsonv2"},
		"limit":  {"1"},
	}
	c.localize(params)

	var places []place
	if err := c.get(ctx, "/search", params, "forward", &places); err != nil {
		return domain.GeocodingResult{}, err
	}
	if len(places) == 0 {
		c.metrics.GeocodeRequests.WithLabelValues("forward", "empty").Inc()
		return domain.GeocodingResult{}, domain.ErrNoMatch
	}
	return c.toResult(places[0], "forward")
}

// ReverseGeocode converts coordinates to an address.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	params := url.Values{
		"lat":    {strconv.FormatFloat(lat, 'f', 6, 64)},
		"lon":    {strconv.FormatFloat(lon, 'f', 6, 64)},
		"format": {"jsonv2"},
	}
	c.localize(params)

	var p place
	if err := c.get(ctx, "/reverse", params, "reverse", &p); err != nil {
		return domain.GeocodingResult{}, err
	}
	if p.Error != "" || p.DisplayName == "" {
		c.metrics.GeocodeRequests.WithLabelValues("reverse", "empty").Inc()
		return domain.GeocodingResult{}, domain.ErrNoMatch
	}
	return c.toResult(p, "reverse")
}

func (c *Client) localize(params url.Values) {
	if c.language != "" {
		params.Set("accept-language", c.language)
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values, method string, out any) error {
	start := time.Now()
	defer func() {
		c.metrics.GeocodeAPIDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues(method, "error").Inc()
		return fmt.Errorf("%s geocode request: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.metrics.GeocodeRequests.WithLabelValues(method, "error").Inc()
		return fmt.Errorf("nominatim API error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.metrics.GeocodeRequests.WithLabelValues(method, "error").Inc()
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) toResult(p place, method string) (domain.GeocodingResult, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues(method, "error").Inc()
		return domain.GeocodingResult{}, fmt.Errorf("parse lat %q: %w", p.Lat, err)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues(method, "error").Inc()
		return domain.GeocodingResult{}, fmt.Errorf("parse lon %q: %w", p.Lon, err)
	}

	c.metrics.GeocodeRequests.WithLabelValues(method, "success").Inc()
	c.logger.Debug("nominatim lookup", "method", method, "place_id", p.PlaceID, "display_name", p.DisplayName)
	return domain.GeocodingResult{
		Lat:              lat,
		Lon:              lon,
		FormattedAddress: p.DisplayName,
		PlaceName:        p.Name,
		Confidence:       p.Importance,
	}, nil
}

// Nominatim jsonv2 response. Coordinates arrive as strings.
type place struct {
	PlaceID     int64   `json:"place_id"`
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name"`
	Importance  float64 `json:"importance"`
	Error       string  `json:"error"`
}
