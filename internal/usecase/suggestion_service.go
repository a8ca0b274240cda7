package usecase

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/placewise/backend/internal/domain"
)

// Suggestion sources reported to callers
const (
	SourceRemote = "remote"
	SourceCache  = "cache"
)

// SuggestionService handles suggestion lookup for one logical client.
// Flow: min length gate -> guarded fetch (cache or remote) -> disambiguate -> return
type SuggestionService struct {
	guard         *StalenessGuard
	disambiguator *Disambiguator
	minLength     *MinKeywordLengthResolver
	logger        *logrus.Logger
}

// NewSuggestionService creates a new suggestion service with dependencies
func NewSuggestionService(
	guard *StalenessGuard,
	disambiguator *Disambiguator,
	minLength *MinKeywordLengthResolver,
	logger *logrus.Logger,
) *SuggestionService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &SuggestionService{
		guard:         guard,
		disambiguator: disambiguator,
		minLength:     minLength,
		logger:        logger,
	}
}

// Suggest returns at most one suggestion for the request
func (s *SuggestionService) Suggest(
	ctx context.Context,
	request *domain.SuggestRequest,
) (*domain.SuggestResult, error) {
	if request == nil {
		return nil, domain.ErrInvalidRequest
	}
	query := strings.TrimSpace(request.Query)
	if query == "" {
		return nil, domain.ErrInvalidRequest
	}
	if request.Limit < 0 {
		return nil, domain.ErrInvalidRequest
	}

	minLength := s.minLength.Resolve()
	result := &domain.SuggestResult{
		Query:            query,
		MinKeywordLength: minLength,
	}

	if utf8.RuneCountInString(query) < minLength {
		result.Status = domain.ResultBelowMinLength
		return result, nil
	}

	normalized := *request
	normalized.Query = query

	outcome := s.guard.Fetch(ctx, &normalized)
	switch outcome.Status {
	case domain.FetchSuperseded:
		result.Status = domain.ResultSuperseded
		return result, nil
	case domain.FetchNoSuggestions:
		result.Status = domain.ResultNoSuggestions
		return result, nil
	}

	candidates := outcome.Response.Candidates
	suggestion := s.disambiguator.Disambiguate(ctx, &normalized, candidates)
	if suggestion == nil {
		result.Status = domain.ResultNoSuggestions
		return result, nil
	}

	result.Status = domain.ResultDelivered
	result.Suggestion = suggestion
	result.Source = SourceRemote
	if outcome.FromCache {
		result.Source = SourceCache
	}

	s.logger.WithFields(logrus.Fields{
		"query":      query,
		"candidates": len(candidates),
		"city":       suggestion.CityName,
		"source":     result.Source,
		"token":      outcome.Token,
	}).Debug("Suggestion delivered")

	return result, nil
}

// Reconfigure supersedes in-flight fetches and drops cached responses
func (s *SuggestionService) Reconfigure(ctx context.Context) domain.FetchToken {
	return s.guard.Reconfigure(ctx)
}

// MinKeywordLength returns the currently effective minimum query length
func (s *SuggestionService) MinKeywordLength() int {
	return s.minLength.Resolve()
}
