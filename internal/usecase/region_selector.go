package usecase

import (
	"strings"

	"github.com/placewise/backend/internal/domain"
)

// SelectByRegion picks a candidate by matching region and country codes.
// The first candidate matching both wins; otherwise the first matching only
// the country. Input order is trusted, nothing is re-sorted.
func SelectByRegion(geo *domain.GeoContext, candidates []domain.Candidate) *domain.Candidate {
	if !geo.HasRegionHint() {
		return nil
	}

	var countryOnly *domain.Candidate
	for i := range candidates {
		c := &candidates[i]
		countryMatch := geo.CountryCode != "" && strings.EqualFold(c.CountryCode, geo.CountryCode)
		if !countryMatch {
			continue
		}
		if geo.RegionCode != "" && strings.EqualFold(c.RegionCode, geo.RegionCode) {
			return c
		}
		if countryOnly == nil {
			countryOnly = c
		}
	}

	return countryOnly
}
