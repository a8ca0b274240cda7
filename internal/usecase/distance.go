package usecase

import (
	"math"

	"github.com/golang/geo/s1"

	"github.com/placewise/backend/internal/domain"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.009

// GreatCircleDistance returns the distance in kilometers between two
// coordinates given in degrees, using the spherical law of cosines.
// Both coordinates must be finite; callers check Coordinate.IsFinite first.
func GreatCircleDistance(a, b domain.Coordinate) float64 {
	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	dLng := toRadians(b.Longitude - a.Longitude)

	cosAngle := math.Sin(lat1)*math.Sin(lat2) + math.Cos(lat1)*math.Cos(lat2)*math.Cos(dLng)
	// rounding can push identical points just past 1
	cosAngle = math.Max(-1, math.Min(1, cosAngle))

	return EarthRadiusKm * math.Acos(cosAngle)
}

func toRadians(deg float64) float64 {
	return (s1.Angle(deg) * s1.Degree).Radians()
}
