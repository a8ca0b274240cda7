package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrNoSuggestions is returned when the remote source has nothing for a query
	ErrNoSuggestions = errors.New("no suggestions for query")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrSuggestAPIFailure is returned when the remote suggestion API request fails
	ErrSuggestAPIFailure = errors.New("suggestion API request failed")

	// ErrGeoLookupFailure is returned when the geolocation provider fails
	ErrGeoLookupFailure = errors.New("geolocation lookup failed")

	// ErrRemoteConfigFailure is returned when the remote config document cannot be fetched
	ErrRemoteConfigFailure = errors.New("remote config fetch failed")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")
)

// ErrFetchTimeout is returned when a guarded fetch exceeds its time budget
var ErrFetchTimeout = errors.New("suggestion fetch timed out")
