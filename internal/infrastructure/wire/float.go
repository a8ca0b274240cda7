// Package wire holds lenient JSON value types for upstream payloads.
package wire

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// LooseFloat decodes a JSON number or numeric string. Anything else (null,
// bool, garbage) leaves it invalid instead of failing the whole document.
type LooseFloat struct {
	Value float64
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler and never returns an error
func (f *LooseFloat) UnmarshalJSON(data []byte) error {
	*f = LooseFloat{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	var s string
	if data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		s = strings.TrimSpace(s)
	} else {
		s = string(data)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}

	f.Value = v
	f.Valid = true
	return nil
}

// Ptr returns a pointer to the value, or nil when invalid
func (f LooseFloat) Ptr() *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

// OrNaN returns the value, or NaN when invalid
func (f LooseFloat) OrNaN() float64 {
	if !f.Valid {
		return math.NaN()
	}
	return f.Value
}
