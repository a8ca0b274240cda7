package domain

import "math"

// DefaultAccuracyRadiusKm is used when a GeoContext carries no accuracy radius.
const DefaultAccuracyRadiusKm = 5.0

// Coordinate is a point on the globe in degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// IsFinite reports whether both components are usable numbers.
func (c Coordinate) IsFinite() bool {
	return isFinite(c.Latitude) && isFinite(c.Longitude)
}

// GeoContext is the client-side location estimate. Nil pointers and empty
// strings mean "unknown", never zero.
type GeoContext struct {
	Coordinate  *Coordinate `json:"coordinate,omitempty"`
	AccuracyKm  *float64    `json:"accuracyKm,omitempty"`
	RegionCode  string      `json:"regionCode,omitempty"`
	CountryCode string      `json:"countryCode,omitempty"`
}

// HasCoordinate reports whether the context carries a finite coordinate.
func (g *GeoContext) HasCoordinate() bool {
	return g != nil && g.Coordinate != nil && g.Coordinate.IsFinite()
}

// HasRegionHint reports whether a region or country code is known.
func (g *GeoContext) HasRegionHint() bool {
	return g != nil && (g.RegionCode != "" || g.CountryCode != "")
}

// Radius returns the accuracy radius in km, falling back to
// DefaultAccuracyRadiusKm when absent or unusable.
func (g *GeoContext) Radius() float64 {
	if g == nil || g.AccuracyKm == nil {
		return DefaultAccuracyRadiusKm
	}
	r := *g.AccuracyKm
	if !isFinite(r) || r < 0 {
		return DefaultAccuracyRadiusKm
	}
	return r
}

// IsEmpty reports whether the context carries nothing to rank by. An
// accuracy radius without a coordinate does not count.
func (g *GeoContext) IsEmpty() bool {
	return !g.HasCoordinate() && !g.HasRegionHint()
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
