package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/placewise/backend/internal/domain"
	"github.com/placewise/backend/internal/usecase"
)

// clientIDHeader names the logical client a request belongs to. Requests
// without it are grouped by client IP.
const clientIDHeader = "X-Client-ID"

// SuggestionUsecase is what the handler needs from the suggestion sessions
type SuggestionUsecase interface {
	Suggest(ctx context.Context, clientID string, request *domain.SuggestRequest) (*domain.SuggestResult, error)
	Reconfigure(ctx context.Context, clientID string) domain.FetchToken
	MinKeywordLength() int
}

// StatusReporter describes background machinery for the health endpoint
type StatusReporter interface {
	GetSchedulerStatus() map[string]interface{}
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	suggestions SuggestionUsecase
	prefs       domain.PreferenceStore
	scheduler   StatusReporter
	logger      *logrus.Logger
}

// NewHandler creates a new HTTP handler. Nil dependencies make the matching
// endpoints answer 501.
func NewHandler(suggestions SuggestionUsecase, prefs domain.PreferenceStore, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		suggestions: suggestions,
		prefs:       prefs,
		logger:      logger,
	}
}

// SetScheduler attaches the scheduler whose status /health reports
func (h *Handler) SetScheduler(scheduler StatusReporter) {
	h.scheduler = scheduler
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	response := gin.H{
		"status":  "healthy",
		"service": "placewise-backend",
		"version": "1.0.0",
	}
	if h.scheduler != nil {
		response["scheduler"] = h.scheduler.GetSchedulerStatus()
	}
	c.JSON(http.StatusOK, response)
}

// SearchRequest is the body of a suggestion search
type SearchRequest struct {
	Query       string   `json:"query" binding:"required"`
	Limit       int      `json:"limit"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	AccuracyKm  *float64 `json:"accuracyKm"`
	RegionCode  string   `json:"regionCode"`
	CountryCode string   `json:"countryCode"`
}

func (r *SearchRequest) toDomain(clientIP string) *domain.SuggestRequest {
	request := &domain.SuggestRequest{
		Query:    r.Query,
		Limit:    r.Limit,
		ClientIP: clientIP,
	}

	geo := &domain.GeoContext{
		AccuracyKm:  r.AccuracyKm,
		RegionCode:  r.RegionCode,
		CountryCode: r.CountryCode,
	}
	if r.Latitude != nil && r.Longitude != nil {
		geo.Coordinate = &domain.Coordinate{Latitude: *r.Latitude, Longitude: *r.Longitude}
	}
	if !geo.IsEmpty() {
		request.Geo = geo
	}

	return request
}

// SuggestionView is the JSON shape of a delivered suggestion. Unknown
// coordinates are omitted.
type SuggestionView struct {
	CityName    string          `json:"cityName"`
	RegionCode  string          `json:"regionCode,omitempty"`
	CountryCode string          `json:"countryCode,omitempty"`
	Population  int64           `json:"population"`
	Latitude    *float64        `json:"latitude,omitempty"`
	Longitude   *float64        `json:"longitude,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// SearchResponse is the body returned by a suggestion search
type SearchResponse struct {
	Status           domain.ResultStatus `json:"status"`
	Query            string              `json:"query"`
	MinKeywordLength int                 `json:"minKeywordLength"`
	Source           string              `json:"source,omitempty"`
	Suggestion       *SuggestionView     `json:"suggestion,omitempty"`
}

func newSearchResponse(result *domain.SuggestResult) SearchResponse {
	response := SearchResponse{
		Status:           result.Status,
		Query:            result.Query,
		MinKeywordLength: result.MinKeywordLength,
		Source:           result.Source,
	}

	if s := result.Suggestion; s != nil {
		view := &SuggestionView{
			CityName:    s.CityName,
			RegionCode:  s.RegionCode,
			CountryCode: s.CountryCode,
			Population:  s.Population,
			Payload:     s.Payload,
		}
		if s.Coordinate.IsFinite() {
			lat, lon := s.Coordinate.Latitude, s.Coordinate.Longitude
			view.Latitude, view.Longitude = &lat, &lon
		}
		response.Suggestion = view
	}

	return response
}

// SearchSuggestions handles suggestion search requests
func (h *Handler) SearchSuggestions(c *gin.Context) {
	if h.suggestions == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Suggestion service not configured"})
		return
	}

	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	result, err := h.suggestions.Suggest(c.Request.Context(), clientID(c), req.toDomain(c.ClientIP()))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newSearchResponse(result))
}

// Reconfigure supersedes in-flight fetches and clears cached responses
func (h *Handler) Reconfigure(c *gin.Context) {
	if h.suggestions == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Suggestion service not configured"})
		return
	}

	id := clientID(c)
	token := h.suggestions.Reconfigure(c.Request.Context(), id)
	h.logger.WithFields(logrus.Fields{
		"client": id,
		"token":  token,
	}).Info("suggestion source reconfigured")

	c.JSON(http.StatusOK, gin.H{
		"status": "reconfigured",
		"token":  token,
	})
}

// minLengthRequest is the body for overriding the minimum keyword length
type minLengthRequest struct {
	Value *int `json:"value" binding:"required"`
}

// GetMinKeywordLength returns the effective minimum and the user override
func (h *Handler) GetMinKeywordLength(c *gin.Context) {
	if h.suggestions == nil || h.prefs == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Preferences not configured"})
		return
	}
	c.JSON(http.StatusOK, h.minLengthState())
}

// SetMinKeywordLength stores a user override
func (h *Handler) SetMinKeywordLength(c *gin.Context) {
	if h.suggestions == nil || h.prefs == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Preferences not configured"})
		return
	}

	var req minLengthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if *req.Value < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "value cannot be negative"})
		return
	}

	if err := h.prefs.Set(usecase.MinKeywordLengthPrefKey, *req.Value); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.minLengthState())
}

// ClearMinKeywordLength removes the user override
func (h *Handler) ClearMinKeywordLength(c *gin.Context) {
	if h.suggestions == nil || h.prefs == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Preferences not configured"})
		return
	}

	if err := h.prefs.Unset(usecase.MinKeywordLengthPrefKey); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.minLengthState())
}

func (h *Handler) minLengthState() gin.H {
	state := gin.H{
		"effective": h.suggestions.MinKeywordLength(),
		"override":  nil,
	}
	if h.prefs.IsSet(usecase.MinKeywordLengthPrefKey) {
		state["override"] = h.prefs.GetInt(usecase.MinKeywordLengthPrefKey)
	}
	return state
}

func clientID(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader(clientIDHeader)); id != "" {
		return id
	}
	return c.ClientIP()
}

// respondError maps domain errors to HTTP status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrSuggestAPIFailure),
		errors.Is(err, domain.ErrGeoLookupFailure),
		errors.Is(err, domain.ErrRemoteConfigFailure):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Upstream service unavailable"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
