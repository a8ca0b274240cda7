package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/placewise/backend/internal/domain"
)

func TestSelectBest(t *testing.T) {
	t.Run("empty list", func(t *testing.T) {
		assert.Nil(t, SelectBest(geoAt(1, 1, nil), nil))
	})

	t.Run("single element returned as-is", func(t *testing.T) {
		only := []domain.Candidate{{CityName: "Paris", CountryCode: "FR"}}
		got := SelectBest(nil, only)
		require.NotNil(t, got)
		assert.Equal(t, "Paris", got.CityName)
	})

	t.Run("distance takes precedence over region", func(t *testing.T) {
		geo := geoAt(39.7, -89.6, nil)
		geo.RegionCode = "MO"
		geo.CountryCode = "US"

		got := SelectBest(geo, springfields())
		require.NotNil(t, got)
		assert.Equal(t, "IL", got.RegionCode)
	})

	t.Run("region fallback when no coordinate", func(t *testing.T) {
		got := SelectBest(&domain.GeoContext{RegionCode: "IL", CountryCode: "US"}, springfields())
		require.NotNil(t, got)
		assert.Equal(t, "IL", got.RegionCode)
	})

	t.Run("first candidate when nothing is known", func(t *testing.T) {
		got := SelectBest(nil, springfields())
		require.NotNil(t, got)
		assert.Equal(t, "MO", got.RegionCode)
	})

	t.Run("first candidate when hints match nothing", func(t *testing.T) {
		got := SelectBest(&domain.GeoContext{CountryCode: "GB"}, springfields())
		require.NotNil(t, got)
		assert.Equal(t, "MO", got.RegionCode)
	})
}

func TestDisambiguator_SingleCandidateSkipsGeolocation(t *testing.T) {
	geo := &countingGeo{geo: geoAt(39.7, -89.6, nil)}
	d := NewDisambiguator(geo, testLogger())

	only := springfields()[:1]
	got := d.Disambiguate(context.Background(), &domain.SuggestRequest{Query: "springfield"}, only)

	require.NotNil(t, got)
	assert.Equal(t, "MO", got.RegionCode)
	assert.Equal(t, 0, geo.Calls())

	assert.Nil(t, d.Disambiguate(context.Background(), &domain.SuggestRequest{Query: "x"}, nil))
	assert.Equal(t, 0, geo.Calls())
}

func TestDisambiguator_AccuracyOnlyHintFallsBackToGeolocation(t *testing.T) {
	geo := &countingGeo{geo: geoAt(39.7, -89.6, nil)}
	d := NewDisambiguator(geo, testLogger())

	accuracy := 2.0
	request := &domain.SuggestRequest{
		Query:    "springfield",
		ClientIP: "203.0.113.7",
		Geo:      &domain.GeoContext{AccuracyKm: &accuracy},
	}
	got := d.Disambiguate(context.Background(), request, springfields())

	require.NotNil(t, got)
	assert.Equal(t, "IL", got.RegionCode)
	assert.Equal(t, 1, geo.Calls())
}

func TestDisambiguator_UsesCallerHints(t *testing.T) {
	geo := &countingGeo{geo: &domain.GeoContext{RegionCode: "MO", CountryCode: "US"}}
	d := NewDisambiguator(geo, testLogger())

	request := &domain.SuggestRequest{Query: "springfield", Geo: geoAt(39.7, -89.6, nil)}
	got := d.Disambiguate(context.Background(), request, springfields())

	require.NotNil(t, got)
	assert.Equal(t, "IL", got.RegionCode)
	assert.Equal(t, 0, geo.Calls())
}

func TestDisambiguator_LooksUpGeolocation(t *testing.T) {
	geo := &countingGeo{geo: geoAt(39.7, -89.6, nil)}
	d := NewDisambiguator(geo, testLogger())

	got := d.Disambiguate(context.Background(), &domain.SuggestRequest{Query: "springfield", ClientIP: "203.0.113.7"}, springfields())

	require.NotNil(t, got)
	assert.Equal(t, "IL", got.RegionCode)
	assert.Equal(t, 1, geo.Calls())
}

func TestDisambiguator_GeolocationFailureFallsBackToFirst(t *testing.T) {
	geo := &countingGeo{err: errors.New("boom")}
	d := NewDisambiguator(geo, testLogger())

	got := d.Disambiguate(context.Background(), &domain.SuggestRequest{Query: "springfield"}, springfields())

	require.NotNil(t, got)
	assert.Equal(t, "MO", got.RegionCode)
	assert.Equal(t, 1, geo.Calls())
}

func TestDisambiguator_NilProvider(t *testing.T) {
	d := NewDisambiguator(nil, testLogger())

	got := d.Disambiguate(context.Background(), nil, springfields())

	require.NotNil(t, got)
	assert.Equal(t, "MO", got.RegionCode)
}
