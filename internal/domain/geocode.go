package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// GeocodeSite fills the site's geocoded candidate from its address.
// A nil geocoder, a blank address, a provider error or an empty match all
// leave the candidate unset; the caller moves on to the next site.
func GeocodeSite(ctx context.Context, site RecoverySite, geocoder Geocoder, logger *slog.Logger) RecoverySite {
	if geocoder == nil {
		return site
	}
	address := strings.TrimSpace(site.Address)
	if address == "" {
		return site
	}

	result, err := geocoder.ForwardGeocode(ctx, address)
	if err != nil {
		if errors.Is(err, ErrNoMatch) {
			logger.Debug("forward geocoding found no match",
				"site_id", site.ID,
				"address", address,
			)
		} else {
			logger.Warn("forward geocoding failed",
				"site_id", site.ID,
				"address", address,
				"error", err,
			)
		}
		return site
	}
	if result.Lat == 0 && result.Lon == 0 {
		return site
	}

	site.Geocoded = NewCandidate(result.Lat, result.Lon)
	return site
}

// Reverse messages shown after a map click.
const (
	reverseNotFoundMessage = "주소를 찾을 수 없습니다."
	reverseSuccessPrefix   = "선택한 위치의 주소: "
	reverseErrorPrefix     = "주소 변환 중 오류가 발생했습니다: "
)

// ReverseLookup is the user-facing outcome of a reverse geocode.
type ReverseLookup struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Address string  `json:"address,omitempty"`
	Message string  `json:"message"`
	Failed  bool    `json:"failed"`
}

// DescribeLocation reverse geocodes a clicked point. Failures become a
// message rather than an error so the caller can always display something.
func DescribeLocation(ctx context.Context, lat, lon float64, geocoder Geocoder, logger *slog.Logger) ReverseLookup {
	out := ReverseLookup{Lat: lat, Lon: lon}
	if geocoder == nil {
		out.Failed = true
		out.Message = reverseErrorPrefix + "geocoding disabled"
		return out
	}

	result, err := geocoder.ReverseGeocode(ctx, lat, lon)
	switch {
	case errors.Is(err, ErrNoMatch):
		out.Message = reverseNotFoundMessage
	case err != nil:
		logger.Warn("reverse geocoding failed", "lat", lat, "lon", lon, "error", err)
		out.Failed = true
		out.Message = fmt.Sprintf("%s%v", reverseErrorPrefix, err)
	case result.FormattedAddress == "":
		out.Message = reverseNotFoundMessage
	default:
		out.Address = result.FormattedAddress
		out.Message = reverseSuccessPrefix + result.FormattedAddress
	}
	return out
}
