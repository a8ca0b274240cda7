package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/placewise/backend/internal/domain"
	"github.com/placewise/backend/internal/infrastructure/cache"
)

type registryFixture struct {
	source   *countingSource
	clock    *fakeClock
	caches   []*cache.MemoryCache
	registry *SessionRegistry
}

func newRegistryFixture(t *testing.T) *registryFixture {
	t.Helper()
	f := &registryFixture{
		source: &countingSource{response: &domain.SuggestResponse{Candidates: springfields()}},
		clock:  newFakeClock(),
	}

	resolver := NewMinKeywordLengthResolver(DefaultLength(2))
	newCache := func() SessionCache {
		c := cache.NewMemoryCache(cache.WithClock(f.clock.Now), cache.WithCleanupInterval(0))
		f.caches = append(f.caches, c)
		return c
	}
	build := func(c domain.CacheRepository) *SuggestionService {
		guard := NewStalenessGuard(f.source, c, StalenessGuardConfig{CacheTTL: time.Minute, Timeout: time.Second}, testLogger())
		return NewSuggestionService(guard, NewDisambiguator(nil, testLogger()), resolver, testLogger())
	}

	f.registry = NewSessionRegistry(newCache, build, resolver, 10*time.Minute, testLogger())
	f.registry.now = f.clock.Now
	t.Cleanup(f.registry.Close)
	return f
}

func TestSessionRegistry_SessionsAreIsolated(t *testing.T) {
	f := newRegistryFixture(t)
	ctx := context.Background()
	request := &domain.SuggestRequest{Query: "springfield"}

	first, err := f.registry.Suggest(ctx, "client-a", request)
	require.NoError(t, err)
	assert.Equal(t, SourceRemote, first.Source)

	again, err := f.registry.Suggest(ctx, "client-a", request)
	require.NoError(t, err)
	assert.Equal(t, SourceCache, again.Source)

	other, err := f.registry.Suggest(ctx, "client-b", request)
	require.NoError(t, err)
	assert.Equal(t, SourceRemote, other.Source, "caches are per client")

	assert.Equal(t, 2, f.registry.Len())
	assert.Equal(t, 2, f.source.Calls())
}

func TestSessionRegistry_ReconfigureOnlyAffectsOneClient(t *testing.T) {
	f := newRegistryFixture(t)
	ctx := context.Background()
	request := &domain.SuggestRequest{Query: "springfield"}

	_, _ = f.registry.Suggest(ctx, "client-a", request)
	_, _ = f.registry.Suggest(ctx, "client-b", request)

	token := f.registry.Reconfigure(ctx, "client-a")
	assert.Equal(t, domain.FetchToken(2), token)

	a, _ := f.registry.Suggest(ctx, "client-a", request)
	b, _ := f.registry.Suggest(ctx, "client-b", request)

	assert.Equal(t, SourceRemote, a.Source)
	assert.Equal(t, SourceCache, b.Source)
}

func TestSessionRegistry_SweepDisposesIdleSessions(t *testing.T) {
	f := newRegistryFixture(t)
	ctx := context.Background()
	request := &domain.SuggestRequest{Query: "springfield"}

	_, _ = f.registry.Suggest(ctx, "idle", request)
	f.clock.Advance(6 * time.Minute)
	_, _ = f.registry.Suggest(ctx, "active", request)
	f.clock.Advance(6 * time.Minute)

	assert.Equal(t, 1, f.registry.Sweep())
	assert.Equal(t, 1, f.registry.Len())

	// a returning client starts over with an empty cache
	result, err := f.registry.Suggest(ctx, "idle", request)
	require.NoError(t, err)
	assert.Equal(t, SourceRemote, result.Source)
	assert.Equal(t, 3, len(f.caches))
}

func TestSessionRegistry_PurgeExpired(t *testing.T) {
	f := newRegistryFixture(t)
	ctx := context.Background()

	_, _ = f.registry.Suggest(ctx, "client-a", &domain.SuggestRequest{Query: "springfield"})
	_, _ = f.registry.Suggest(ctx, "client-b", &domain.SuggestRequest{Query: "portland"})

	assert.Equal(t, 0, f.registry.PurgeExpired())

	f.clock.Advance(2 * time.Minute)
	assert.Equal(t, 2, f.registry.PurgeExpired())
	assert.Equal(t, 2, f.registry.Len())
}

func TestSessionRegistry_MinKeywordLength(t *testing.T) {
	f := newRegistryFixture(t)

	assert.Equal(t, 2, f.registry.MinKeywordLength())
	assert.Equal(t, 0, f.registry.Len())
}
