package usecase

import (
	"math"

	"github.com/placewise/backend/internal/domain"
)

// SelectNearest picks the candidate closest to geo's coordinate.
//
// Candidates are scanned in input order (population descending). A candidate
// replaces the running best when there is no best yet, when it is closer by
// more than the accuracy radius, or when its distance is within the radius of
// the best distance and it is more populous. Every candidate is examined.
//
// Returns nil when geo has no finite coordinate.
func SelectNearest(geo *domain.GeoContext, candidates []domain.Candidate) *domain.Candidate {
	if !geo.HasCoordinate() {
		return nil
	}

	origin := *geo.Coordinate
	radius := geo.Radius()

	var best *domain.Candidate
	dMin := math.Inf(1)

	for i := range candidates {
		c := &candidates[i]
		if !c.Coordinate.IsFinite() {
			continue
		}
		d := GreatCircleDistance(origin, c.Coordinate)

		// strict < for "closer", inclusive <= for "tied"
		if best == nil ||
			d+radius < dMin ||
			(math.Abs(d-dMin) <= radius && c.Population > best.Population) {
			best = c
			dMin = d
		}
	}

	return best
}
