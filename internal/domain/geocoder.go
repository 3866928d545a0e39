package domain

import (
	"context"
	"errors"
)

// ErrNoMatch is returned by a Geocoder when the provider answered but found
// nothing for the query.
var ErrNoMatch = errors.New("geocoder: no match")

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat              float64
	Lon              float64
	FormattedAddress string
	PlaceName        string
	Confidence       float64 // 0.0–1.0 provider confidence score
}

// Geocoder resolves addresses to coordinates and back.
type Geocoder interface {
	// ForwardGeocode converts a free-text address to coordinates.
	ForwardGeocode(ctx context.Context, address string) (GeocodingResult, error)

	// ReverseGeocode converts coordinates to an address.
	ReverseGeocode(ctx context.Context, lat, lon float64) (GeocodingResult, error)
}
