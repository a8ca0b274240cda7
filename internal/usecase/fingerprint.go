package usecase

import (
	"fmt"
	"regexp"
	"strings"

	geohash "github.com/TomiHiltunen/geohash-golang"
	"github.com/golang/geo/s2"

	"github.com/placewise/backend/internal/domain"
)

// Package-level compiled regex patterns for performance
var (
	nonAlphanumericRegex = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	multipleSpacesRegex  = regexp.MustCompile(`\s+`)
)

// fingerprintGeohashPrecision buckets location hints into ~5km cells so nearby
// callers share cache entries.
const fingerprintGeohashPrecision = 5

// RequestFingerprint creates a normalized cache key from a suggestion request.
// Format: "suggest:{query}:{limit}:{geohash}:{region}:{country}"
func RequestFingerprint(request *domain.SuggestRequest) string {
	if request == nil {
		return "suggest:::::"
	}

	var region, country string
	if request.Geo != nil {
		region = strings.ToLower(strings.TrimSpace(request.Geo.RegionCode))
		country = strings.ToLower(strings.TrimSpace(request.Geo.CountryCode))
	}

	return fmt.Sprintf("suggest:%s:%d:%s:%s:%s",
		normalizeForCacheKey(request.Query),
		request.Limit,
		geoBucket(request.Geo),
		region,
		country,
	)
}

// geoBucket returns the geohash cell of the location hint, or "" when the
// hint is missing or outside valid lat/lng ranges.
func geoBucket(geo *domain.GeoContext) string {
	if !geo.HasCoordinate() {
		return ""
	}
	lat, lng := geo.Coordinate.Latitude, geo.Coordinate.Longitude
	if !s2.LatLngFromDegrees(lat, lng).IsValid() {
		return ""
	}
	return geohash.EncodeWithPrecision(lat, lng, fingerprintGeohashPrecision)
}

// normalizeForCacheKey normalizes a string for use as cache key component.
// Converts to lowercase, removes punctuation, and collapses whitespace.
func normalizeForCacheKey(s string) string {
	if s == "" {
		return ""
	}
	result := strings.ToLower(s)
	result = nonAlphanumericRegex.ReplaceAllString(result, "")
	result = multipleSpacesRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}
