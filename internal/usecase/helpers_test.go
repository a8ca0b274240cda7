package usecase

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/placewise/backend/internal/domain"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func coord(lat, lng float64) domain.Coordinate {
	return domain.Coordinate{Latitude: lat, Longitude: lng}
}

func floatPtr(f float64) *float64 {
	return &f
}

func geoAt(lat, lng float64, radius *float64) *domain.GeoContext {
	c := coord(lat, lng)
	return &domain.GeoContext{Coordinate: &c, AccuracyKm: radius}
}

// springfields returns the two Springfields, population descending.
func springfields() []domain.Candidate {
	return []domain.Candidate{
		{CityName: "Springfield", RegionCode: "MO", CountryCode: "US", Population: 150000, Coordinate: coord(37.2, -93.3)},
		{CityName: "Springfield", RegionCode: "IL", CountryCode: "US", Population: 5000, Coordinate: coord(39.8, -89.6)},
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// countingSource answers immediately and records calls
type countingSource struct {
	mu       sync.Mutex
	calls    int
	requests []*domain.SuggestRequest
	response *domain.SuggestResponse
	err      error
}

func (s *countingSource) Suggest(ctx context.Context, request *domain.SuggestRequest) (*domain.SuggestResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.requests = append(s.requests, request)
	if s.err != nil {
		return nil, s.err
	}
	return s.response, nil
}

func (s *countingSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// pendingFetch is one blocked call on a controlledSource
type pendingFetch struct {
	request *domain.SuggestRequest
	release chan fetchResult
}

func (p *pendingFetch) Resolve(response *domain.SuggestResponse, err error) {
	p.release <- fetchResult{response: response, err: err}
}

// controlledSource blocks every call until the test resolves it
type controlledSource struct {
	started chan *pendingFetch
}

func newControlledSource() *controlledSource {
	return &controlledSource{started: make(chan *pendingFetch, 8)}
}

func (s *controlledSource) Suggest(ctx context.Context, request *domain.SuggestRequest) (*domain.SuggestResponse, error) {
	p := &pendingFetch{request: request, release: make(chan fetchResult, 1)}
	s.started <- p
	r := <-p.release
	return r.response, r.err
}

// countingGeo records geolocation lookups
type countingGeo struct {
	mu    sync.Mutex
	calls int
	geo   *domain.GeoContext
	err   error
}

func (g *countingGeo) Locate(ctx context.Context, clientIP string) (*domain.GeoContext, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return g.geo, g.err
}

func (g *countingGeo) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}
