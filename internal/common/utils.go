package common

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// HasAny returns true if s contains any of the substrings.
func HasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// ParseLatLng splits a combined "lat,lng" string and parses both halves.
// Non-finite or out-of-range coordinates are rejected.
func ParseLatLng(s string) (float64, float64, error) {
	latStr, lngStr, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("invalid location %q: expected \"lat,lng\"", s)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude in %q: %w", s, err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude in %q: %w", s, err)
	}

	if !ValidCoords(lat, lng) {
		return 0, 0, fmt.Errorf("coordinates out of range in %q", s)
	}
	return lat, lng, nil
}

// ValidCoords reports whether lat/lng are finite, in-range WGS84 degrees.
func ValidCoords(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lng) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
