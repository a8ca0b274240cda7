package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Clear(ctx context.Context) error
}

// SuggestionSource defines the interface for the remote suggestion provider
type SuggestionSource interface {
	Suggest(ctx context.Context, request *SuggestRequest) (*SuggestResponse, error)
}

// GeoProvider resolves a client-side location estimate.
// Implementations return an empty GeoContext rather than failing on partial data.
type GeoProvider interface {
	Locate(ctx context.Context, clientIP string) (*GeoContext, error)
}

// PreferenceStore is a key/value store for user preferences
type PreferenceStore interface {
	IsSet(key string) bool
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	Set(key string, value interface{}) error
	Unset(key string) error
}

// ValueSource exposes loosely typed values by key (experiments, remote config).
// The boolean reports presence; a present key may still hold nil.
type ValueSource interface {
	Value(key string) (interface{}, bool)
}
