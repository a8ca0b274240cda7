package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/placewise/backend/internal/domain"
)

// DefaultSessionIdleTTL is how long an unused client session is kept
const DefaultSessionIdleTTL = 30 * time.Minute

// SessionCache is the per-client response cache
type SessionCache interface {
	domain.CacheRepository
	PurgeExpired() int
	Close()
}

// ServiceBuilder builds the suggestion service of one client around its cache
type ServiceBuilder func(cache domain.CacheRepository) *SuggestionService

type clientSession struct {
	service  *SuggestionService
	cache    SessionCache
	lastSeen time.Time
}

// SessionRegistry keeps one SuggestionService per logical client. Fetch tokens
// and cached responses of different clients never interact; a client's state
// lives until it has been idle for the configured TTL.
type SessionRegistry struct {
	newCache  func() SessionCache
	build     ServiceBuilder
	minLength *MinKeywordLengthResolver
	idleTTL   time.Duration
	now       func() time.Time
	logger    *logrus.Logger

	mu       sync.Mutex
	sessions map[string]*clientSession
}

// NewSessionRegistry creates an empty registry
func NewSessionRegistry(
	newCache func() SessionCache,
	build ServiceBuilder,
	minLength *MinKeywordLengthResolver,
	idleTTL time.Duration,
	logger *logrus.Logger,
) *SessionRegistry {
	if idleTTL <= 0 {
		idleTTL = DefaultSessionIdleTTL
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &SessionRegistry{
		newCache:  newCache,
		build:     build,
		minLength: minLength,
		idleTTL:   idleTTL,
		now:       time.Now,
		logger:    logger,
		sessions:  make(map[string]*clientSession),
	}
}

// Suggest runs the request in the client's session
func (r *SessionRegistry) Suggest(
	ctx context.Context,
	clientID string,
	request *domain.SuggestRequest,
) (*domain.SuggestResult, error) {
	return r.session(clientID).Suggest(ctx, request)
}

// Reconfigure supersedes the client's in-flight fetches and clears its cache
func (r *SessionRegistry) Reconfigure(ctx context.Context, clientID string) domain.FetchToken {
	return r.session(clientID).Reconfigure(ctx)
}

// MinKeywordLength returns the currently effective minimum query length
func (r *SessionRegistry) MinKeywordLength() int {
	return r.minLength.Resolve()
}

func (r *SessionRegistry) session(clientID string) *SuggestionService {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[clientID]; ok {
		s.lastSeen = r.now()
		return s.service
	}

	cache := r.newCache()
	s := &clientSession{
		service:  r.build(cache),
		cache:    cache,
		lastSeen: r.now(),
	}
	r.sessions[clientID] = s

	r.logger.WithFields(logrus.Fields{
		"client":   clientID,
		"sessions": len(r.sessions),
	}).Debug("Client session created")

	return s.service
}

// Sweep disposes of sessions idle for longer than the TTL
func (r *SessionRegistry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.idleTTL)
	removed := 0
	for id, s := range r.sessions {
		if s.lastSeen.Before(cutoff) {
			s.cache.Close()
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// PurgeExpired drops expired responses from every session cache
func (r *SessionRegistry) PurgeExpired() int {
	r.mu.Lock()
	caches := make([]SessionCache, 0, len(r.sessions))
	for _, s := range r.sessions {
		caches = append(caches, s.cache)
	}
	r.mu.Unlock()

	purged := 0
	for _, c := range caches {
		purged += c.PurgeExpired()
	}
	return purged
}

// Len returns the number of live sessions
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close disposes of every session
func (r *SessionRegistry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, s := range r.sessions {
		s.cache.Close()
		delete(r.sessions, id)
	}
}
