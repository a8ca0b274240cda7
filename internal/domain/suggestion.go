package domain

import (
	"encoding/json"
	"time"
)

// Candidate is one location-bound suggestion returned for an ambiguous query.
// When a query yields several, the remote source orders them by population
// descending with equal relevance.
type Candidate struct {
	CityName    string          `json:"cityName"`
	RegionCode  string          `json:"regionCode,omitempty"`
	CountryCode string          `json:"countryCode,omitempty"`
	Population  int64           `json:"population"`
	Coordinate  Coordinate      `json:"coordinate"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// SuggestRequest is an inbound suggestion query
type SuggestRequest struct {
	Query    string      `json:"query"`
	Limit    int         `json:"limit,omitempty"`
	Geo      *GeoContext `json:"geo,omitempty"`
	ClientIP string      `json:"-"`
}

// SuggestResponse is what the remote source returns for one fetch
type SuggestResponse struct {
	Candidates []Candidate `json:"candidates"`
	RequestID  string      `json:"requestId,omitempty"`
	FetchedAt  time.Time   `json:"fetchedAt"`
}

// FetchToken identifies one outbound fetch attempt or reconfiguration event.
// Tokens are strictly increasing within a guard.
type FetchToken uint64

// FetchStatus is the outcome of a guarded fetch
type FetchStatus string

const (
	FetchDelivered     FetchStatus = "delivered"
	FetchNoSuggestions FetchStatus = "no_suggestions"
	FetchSuperseded    FetchStatus = "superseded"
)

// FetchOutcome is the single authoritative result of one guarded fetch
type FetchOutcome struct {
	Status    FetchStatus
	Token     FetchToken
	Response  *SuggestResponse
	FromCache bool
}

// ResultStatus describes what the caller of the suggestion service gets back
type ResultStatus string

const (
	ResultDelivered      ResultStatus = "delivered"
	ResultNoSuggestions  ResultStatus = "no_suggestions"
	ResultSuperseded     ResultStatus = "superseded"
	ResultBelowMinLength ResultStatus = "below_min_length"
)

// SuggestResult is the plain result object handed to the view layer
type SuggestResult struct {
	Status           ResultStatus `json:"status"`
	Query            string       `json:"query"`
	MinKeywordLength int          `json:"minKeywordLength"`
	Source           string       `json:"source,omitempty"` // "remote" or "cache"
	Suggestion       *Candidate   `json:"suggestion,omitempty"`
}
