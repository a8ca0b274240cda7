package usecase

import (
	"encoding/json"
	"math"

	"github.com/spf13/cast"

	"github.com/placewise/backend/internal/domain"
)

// Keys consulted when resolving the minimum keyword length
const (
	MinKeywordLengthPrefKey         = "suggest.min_keyword_length"
	MinKeywordLengthExperimentKey   = "min_keyword_length"
	MinKeywordLengthRemoteConfigKey = "minKeywordLength"
)

// LengthLookup returns a candidate value and whether it applies
type LengthLookup func() (int, bool)

// MinKeywordLengthResolver evaluates lookups in order; the first applicable
// one wins. The result is never negative and is recomputed on every call.
type MinKeywordLengthResolver struct {
	lookups []LengthLookup
}

// NewMinKeywordLengthResolver creates a resolver from lookups in precedence order
func NewMinKeywordLengthResolver(lookups ...LengthLookup) *MinKeywordLengthResolver {
	return &MinKeywordLengthResolver{lookups: lookups}
}

// Resolve returns the effective minimum query length
func (r *MinKeywordLengthResolver) Resolve() int {
	for _, lookup := range r.lookups {
		if v, ok := lookup(); ok {
			return max(v, 0)
		}
	}
	return 0
}

// PreferenceOverride applies when the user explicitly set the preference
func PreferenceOverride(store domain.PreferenceStore, key string) LengthLookup {
	return func() (int, bool) {
		if store == nil || !store.IsSet(key) {
			return 0, false
		}
		return store.GetInt(key), true
	}
}

// ExperimentVariable applies when the experiment defines the key with a
// non-nil value that converts to an integer. Booleans do not apply.
func ExperimentVariable(source domain.ValueSource, key string) LengthLookup {
	return func() (int, bool) {
		if source == nil {
			return 0, false
		}
		v, ok := source.Value(key)
		if !ok || v == nil {
			return 0, false
		}
		switch v.(type) {
		case bool:
			return 0, false
		case float32, float64, json.Number:
			return numericValue(v)
		}
		n, err := cast.ToIntE(v)
		if err != nil {
			return 0, false
		}
		return n, true
	}
}

// RemoteConfigValue applies only when the remote value is a number
func RemoteConfigValue(source domain.ValueSource, key string) LengthLookup {
	return func() (int, bool) {
		if source == nil {
			return 0, false
		}
		v, ok := source.Value(key)
		if !ok {
			return 0, false
		}
		return numericValue(v)
	}
}

// DefaultLength always applies
func DefaultLength(n int) LengthLookup {
	return func() (int, bool) {
		return n, true
	}
}

func numericValue(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float32:
		return floatValue(float64(n))
	case float64:
		return floatValue(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return floatValue(f)
	default:
		return 0, false
	}
}

// floatValue truncates f, rejecting values an int cannot hold
func floatValue(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f >= float64(math.MaxInt) || f < float64(math.MinInt) {
		return 0, false
	}
	return int(f), true
}
