package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/placewise/backend/internal/domain"
)

// GuardState is the lifecycle state of a StalenessGuard
type GuardState int

const (
	GuardIdle GuardState = iota
	GuardFetching
	GuardSettled
)

func (s GuardState) String() string {
	switch s {
	case GuardFetching:
		return "fetching"
	case GuardSettled:
		return "settled"
	default:
		return "idle"
	}
}

// Default guard budgets
const (
	DefaultGuardCacheTTL = 60 * time.Second
	DefaultGuardTimeout  = 5 * time.Second
)

// StalenessGuardConfig holds configuration for the staleness guard
type StalenessGuardConfig struct {
	CacheTTL time.Duration
	Timeout  time.Duration
}

// StalenessGuard makes sure only the most recent outbound fetch is ever
// consumed. Every fetch mints a token; a completion whose token is no longer
// current is dropped. Successful current completions are cached by request
// fingerprint.
//
// The current token, the state and cache writes are only touched under mu, so
// the currency check and the cache write happen atomically. The network call
// itself runs outside the lock.
type StalenessGuard struct {
	source   domain.SuggestionSource
	cache    domain.CacheRepository
	logger   *logrus.Logger
	cacheTTL time.Duration
	timeout  time.Duration

	mu      sync.Mutex
	current domain.FetchToken
	state   GuardState
}

// NewStalenessGuard creates a guard in front of the given source
func NewStalenessGuard(
	source domain.SuggestionSource,
	cache domain.CacheRepository,
	config StalenessGuardConfig,
	logger *logrus.Logger,
) *StalenessGuard {
	cacheTTL := config.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = DefaultGuardCacheTTL
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultGuardTimeout
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &StalenessGuard{
		source:   source,
		cache:    cache,
		logger:   logger,
		cacheTTL: cacheTTL,
		timeout:  timeout,
	}
}

// Fetch serves the request from cache or performs a guarded network fetch.
// Exactly one outcome is returned per call; a fetch superseded while in
// flight reports FetchSuperseded and its response is never exposed.
func (g *StalenessGuard) Fetch(ctx context.Context, request *domain.SuggestRequest) domain.FetchOutcome {
	key := RequestFingerprint(request)

	if cached, ok := g.lookup(ctx, key); ok {
		return domain.FetchOutcome{
			Status:    statusFor(cached),
			Token:     g.Current(),
			Response:  cached,
			FromCache: true,
		}
	}

	token := g.begin()
	response, err := g.fetchWithTimeout(ctx, request)

	g.mu.Lock()
	defer g.mu.Unlock()

	if token != g.current {
		g.logger.WithFields(logrus.Fields{
			"token":   token,
			"current": g.current,
		}).Debug("Dropping superseded suggestion fetch")
		return domain.FetchOutcome{Status: domain.FetchSuperseded, Token: token}
	}

	g.state = GuardSettled

	if err != nil {
		g.logger.WithError(err).WithField("token", token).Warn("Suggestion fetch failed")
		return domain.FetchOutcome{Status: domain.FetchNoSuggestions, Token: token}
	}
	if response == nil {
		response = &domain.SuggestResponse{}
	}

	if err := g.cache.Set(ctx, key, response, g.cacheTTL); err != nil {
		g.logger.WithError(err).WithField("key", key).Warn("Failed to cache suggestion response")
	}

	return domain.FetchOutcome{Status: statusFor(response), Token: token, Response: response}
}

// Reconfigure supersedes any in-flight fetch and drops cached responses.
// Used when the subject the suggestions are fetched for changes.
func (g *StalenessGuard) Reconfigure(ctx context.Context) domain.FetchToken {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.current++
	g.state = GuardIdle
	if err := g.cache.Clear(ctx); err != nil {
		g.logger.WithError(err).Warn("Failed to clear suggestion cache on reconfigure")
	}

	g.logger.WithField("token", g.current).Info("Suggestion guard reconfigured")
	return g.current
}

// Current returns the token currently considered authoritative
func (g *StalenessGuard) Current() domain.FetchToken {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// State returns the current lifecycle state
func (g *StalenessGuard) State() GuardState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// begin mints a new token and makes it current
func (g *StalenessGuard) begin() domain.FetchToken {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.current++
	g.state = GuardFetching
	return g.current
}

func (g *StalenessGuard) lookup(ctx context.Context, key string) (*domain.SuggestResponse, bool) {
	value, err := g.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	response, ok := value.(*domain.SuggestResponse)
	if !ok || response == nil {
		return nil, false
	}
	return response, true
}

type fetchResult struct {
	response *domain.SuggestResponse
	err      error
}

// fetchWithTimeout races the source against the time budget. The losing
// fetch is not aborted; its eventual result is discarded.
func (g *StalenessGuard) fetchWithTimeout(
	ctx context.Context,
	request *domain.SuggestRequest,
) (*domain.SuggestResponse, error) {
	done := make(chan fetchResult, 1)
	fetchCtx := context.WithoutCancel(ctx)

	go func() {
		response, err := g.source.Suggest(fetchCtx, request)
		done <- fetchResult{response: response, err: err}
	}()

	timer := time.NewTimer(g.timeout)
	defer timer.Stop()

	select {
	case r := <-done:
		return r.response, r.err
	case <-timer.C:
		return nil, domain.ErrFetchTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func statusFor(response *domain.SuggestResponse) domain.FetchStatus {
	if response == nil || len(response.Candidates) == 0 {
		return domain.FetchNoSuggestions
	}
	return domain.FetchDelivered
}
