package suggest

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/placewise/backend/internal/domain"
	"github.com/placewise/backend/internal/infrastructure/wire"
)

// suggestResponse is the upstream payload
type suggestResponse struct {
	RequestID   string             `json:"request_id"`
	Suggestions []suggestionRecord `json:"suggestions"`
}

type suggestionRecord struct {
	CityName   string          `json:"city_name"`
	Region     string          `json:"region"`
	Country    string          `json:"country"`
	Population wire.LooseFloat `json:"population"`
	Latitude   wire.LooseFloat `json:"latitude"`
	Longitude  wire.LooseFloat `json:"longitude"`
	Payload    json.RawMessage `json:"payload"`
}

// mapToSuggestResponse converts the upstream payload, keeping record order.
// Records without a city name are dropped.
func mapToSuggestResponse(payload *suggestResponse) *domain.SuggestResponse {
	result := &domain.SuggestResponse{FetchedAt: time.Now()}
	if payload == nil {
		return result
	}

	result.RequestID = payload.RequestID
	result.Candidates = make([]domain.Candidate, 0, len(payload.Suggestions))
	for _, record := range payload.Suggestions {
		candidate, ok := mapToCandidate(record)
		if !ok {
			continue
		}
		result.Candidates = append(result.Candidates, candidate)
	}

	return result
}

func mapToCandidate(record suggestionRecord) (domain.Candidate, bool) {
	name := strings.TrimSpace(record.CityName)
	if name == "" {
		return domain.Candidate{}, false
	}

	return domain.Candidate{
		CityName:    name,
		RegionCode:  strings.TrimSpace(record.Region),
		CountryCode: strings.ToUpper(strings.TrimSpace(record.Country)),
		Population:  population(record.Population),
		Coordinate: domain.Coordinate{
			Latitude:  record.Latitude.OrNaN(),
			Longitude: record.Longitude.OrNaN(),
		},
		Payload: record.Payload,
	}, true
}

// population floors the value and clamps negatives and unknowns to zero
func population(v wire.LooseFloat) int64 {
	if !v.Valid || v.Value <= 0 {
		return 0
	}
	if v.Value >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(math.Floor(v.Value))
}
