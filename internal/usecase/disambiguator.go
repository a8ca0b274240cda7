package usecase

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/placewise/backend/internal/domain"
)

// SelectBest narrows candidates to exactly one: nearest by distance, then by
// region/country, then the first (most populous). Returns nil only for an
// empty list.
func SelectBest(geo *domain.GeoContext, candidates []domain.Candidate) *domain.Candidate {
	switch len(candidates) {
	case 0:
		return nil
	case 1:
		return &candidates[0]
	}

	if c := SelectNearest(geo, candidates); c != nil {
		return c
	}
	if c := SelectByRegion(geo, candidates); c != nil {
		return c
	}
	return &candidates[0]
}

// Disambiguator resolves the caller's location only when there is more than
// one candidate to choose from.
type Disambiguator struct {
	geo    domain.GeoProvider
	logger *logrus.Logger
}

// NewDisambiguator creates a disambiguator. geo may be nil, in which case only
// caller-supplied hints are used.
func NewDisambiguator(geo domain.GeoProvider, logger *logrus.Logger) *Disambiguator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Disambiguator{geo: geo, logger: logger}
}

// Disambiguate returns the single best candidate for the request
func (d *Disambiguator) Disambiguate(
	ctx context.Context,
	request *domain.SuggestRequest,
	candidates []domain.Candidate,
) *domain.Candidate {
	if len(candidates) <= 1 {
		return SelectBest(nil, candidates)
	}
	return SelectBest(d.resolveGeo(ctx, request), candidates)
}

func (d *Disambiguator) resolveGeo(ctx context.Context, request *domain.SuggestRequest) *domain.GeoContext {
	if request != nil && !request.Geo.IsEmpty() {
		return request.Geo
	}
	if d.geo == nil {
		return nil
	}

	clientIP := ""
	if request != nil {
		clientIP = request.ClientIP
	}
	geo, err := d.geo.Locate(ctx, clientIP)
	if err != nil {
		d.logger.WithError(err).WithField("client_ip", clientIP).
			Debug("Geolocation unavailable, falling back to default candidate")
		return nil
	}
	return geo
}
