// Package experiments exposes experiment variables assigned through
// configuration.
package experiments

import "strings"

// Static serves a fixed set of experiment variables. Keys are matched
// case-insensitively, like viper keys.
type Static struct {
	values map[string]interface{}
}

// NewStatic copies values into a new source
func NewStatic(values map[string]interface{}) *Static {
	copied := make(map[string]interface{}, len(values))
	for k, v := range values {
		copied[strings.ToLower(k)] = v
	}
	return &Static{values: copied}
}

// Value returns the variable for key. A variable explicitly assigned null is
// reported as absent.
func (s *Static) Value(key string) (interface{}, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.values[strings.ToLower(key)]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Len returns the number of assigned variables
func (s *Static) Len() int {
	if s == nil {
		return 0
	}
	return len(s.values)
}
