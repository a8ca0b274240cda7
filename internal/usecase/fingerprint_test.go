package usecase

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/placewise/backend/internal/domain"
)

func TestRequestFingerprint(t *testing.T) {
	tests := []struct {
		name    string
		request *domain.SuggestRequest
		want    string
	}{
		{
			name:    "nil request",
			request: nil,
			want:    "suggest:::::",
		},
		{
			name:    "query only",
			request: &domain.SuggestRequest{Query: "Springfield"},
			want:    "suggest:springfield:0:::",
		},
		{
			name:    "punctuation and whitespace normalized",
			request: &domain.SuggestRequest{Query: "  St.   Louis!  ", Limit: 3},
			want:    "suggest:st louis:3:::",
		},
		{
			name: "region hints lowercased",
			request: &domain.SuggestRequest{
				Query: "portland",
				Geo:   &domain.GeoContext{RegionCode: "OR", CountryCode: "US"},
			},
			want: "suggest:portland:0::or:us",
		},
		{
			name: "out of range coordinate is ignored",
			request: &domain.SuggestRequest{
				Query: "x",
				Geo:   geoAt(95, 200, nil),
			},
			want: "suggest:x:0:::",
		},
		{
			name: "NaN coordinate is ignored",
			request: &domain.SuggestRequest{
				Query: "x",
				Geo:   geoAt(math.NaN(), 0, nil),
			},
			want: "suggest:x:0:::",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RequestFingerprint(tt.request))
		})
	}
}

func TestRequestFingerprint_GeoBuckets(t *testing.T) {
	near1 := RequestFingerprint(&domain.SuggestRequest{Query: "pizza", Geo: geoAt(39.7800, -89.6500, nil)})
	near2 := RequestFingerprint(&domain.SuggestRequest{Query: "pizza", Geo: geoAt(39.7801, -89.6501, nil)})
	far := RequestFingerprint(&domain.SuggestRequest{Query: "pizza", Geo: geoAt(37.2, -93.3, nil)})

	assert.Equal(t, near1, near2)
	assert.NotEqual(t, near1, far)
	assert.Contains(t, near1, ":dp")
}
