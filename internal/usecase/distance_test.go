package usecase

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/placewise/backend/internal/domain"
)

func TestGreatCircleDistance(t *testing.T) {
	tests := []struct {
		name  string
		a, b  domain.Coordinate
		want  float64
		delta float64
	}{
		{"identical points", coord(39.7, -89.6), coord(39.7, -89.6), 0, 1e-6},
		{"one tenth degree of latitude", coord(39.7, -89.6), coord(39.8, -89.6), 11.12, 0.01},
		{"equator quarter turn", coord(0, 0), coord(0, 90), math.Pi / 2 * EarthRadiusKm, 1e-6},
		{"antipodes", coord(0, 0), coord(0, 180), math.Pi * EarthRadiusKm, 1e-6},
		{"pole to pole", coord(90, 0), coord(-90, 0), math.Pi * EarthRadiusKm, 1e-6},
		{"london to paris", coord(51.5074, -0.1278), coord(48.8566, 2.3522), 343.5, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GreatCircleDistance(tt.a, tt.b)
			assert.False(t, math.IsNaN(got))
			assert.InDelta(t, tt.want, got, tt.delta)
		})
	}
}

func TestGreatCircleDistance_Symmetric(t *testing.T) {
	a, b := coord(37.2, -93.3), coord(39.7, -89.6)
	assert.InDelta(t, GreatCircleDistance(a, b), GreatCircleDistance(b, a), 1e-9)
}
