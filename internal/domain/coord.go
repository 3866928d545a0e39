package domain

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// geometryPairRe matches one "<lon> <lat>" pair inside WKT-like text,
	// e.g. "LINESTRING(127.10 37.10, 127.20 37.20)".
	geometryPairRe = regexp.MustCompile(`(\d+\.\d+\s\d+\.\d+)`)

	// dmsRe matches cardinal-prefixed sexagesimal text, e.g. "N37:30:00.0".
	dmsRe = regexp.MustCompile(`^([NSEW])\s*(\d+):(\d+):([\d.]+)`)
)

// ParseGeometry extracts the vertex sequence from WKT-like geometry text.
// Source pairs are longitude-first; the result is latitude-first and keeps
// the original path direction. Returns false for non-text input, text with no
// pairs, or when any matched pair fails to parse.
func ParseGeometry(v any) ([]LatLon, bool) {
	text, ok := v.(string)
	if !ok {
		return nil, false
	}

	pairs := geometryPairRe.FindAllString(text, -1)
	if len(pairs) == 0 {
		return nil, false
	}

	path := make([]LatLon, 0, len(pairs))
	for _, pair := range pairs {
		fields := strings.Fields(pair)
		if len(fields) != 2 {
			return nil, false
		}
		lon, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, false
		}
		lat, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, false
		}
		path = append(path, LatLon{Lat: lat, Lon: lon})
	}
	return path, true
}

// ParseDMS converts "<N|S|E|W>deg:min:sec" text to decimal degrees.
// Seconds may be fractional. Minutes and seconds are not range-checked.
// Returns false for non-text or non-matching input.
func ParseDMS(v any) (float64, bool) {
	text, ok := v.(string)
	if !ok {
		return 0, false
	}

	m := dmsRe.FindStringSubmatch(strings.TrimSpace(text))
	if len(m) != 5 {
		return 0, false
	}

	deg, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0, false
	}
	mins, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return 0, false
	}
	secs, err := strconv.ParseFloat(m[4], 64)
	if err != nil {
		return 0, false
	}

	dd := deg + mins/60.0 + secs/3600.0
	if m[1] == "S" || m[1] == "W" {
		dd = -dd
	}
	return dd, true
}

// ParseLatLon parses a decimal "lat,lon" string such as "37.83,127.51".
func ParseLatLon(v any) (LatLon, bool) {
	text, ok := v.(string)
	if !ok {
		return LatLon{}, false
	}

	parts := strings.Split(text, ",")
	if len(parts) != 2 {
		return LatLon{}, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return LatLon{}, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return LatLon{}, false
	}
	return LatLon{Lat: lat, Lon: lon}, true
}

// DMSCandidate builds the coordinate-based candidate from the two DMS cells.
// Each component is set only when its cell parses.
func DMSCandidate(latText, lonText any) Candidate {
	var c Candidate
	if lat, ok := ParseDMS(latText); ok {
		c.Lat = &lat
	}
	if lon, ok := ParseDMS(lonText); ok {
		c.Lon = &lon
	}
	return c
}
