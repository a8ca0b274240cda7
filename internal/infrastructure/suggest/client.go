package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/placewise/backend/internal/domain"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	maxAttempts  = 3
	maxBodyBytes = 1 << 20
	backoffBase  = 500 * time.Millisecond

	defaultRequestsPerSecond = 10
	defaultBurst             = 20
)

// Client talks to the remote place suggestion API
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	rateLimiter *rate.Limiter
	backoff     func(attempt int) time.Duration
	logger      *logrus.Logger
	debug       bool
}

// NewClient creates a new suggestion API client
func NewClient(apiKey, baseURL string, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		apiKey:      apiKey,
		baseURL:     baseURL,
		rateLimiter: rate.NewLimiter(rate.Limit(defaultRequestsPerSecond), defaultBurst),
		backoff:     exponentialBackoff,
		logger:      logger,
	}
}

// SetRateLimit replaces the outbound request limiter. A non-positive rate
// disables limiting.
func (c *Client) SetRateLimit(requestsPerSecond float64, burst int) {
	if requestsPerSecond <= 0 {
		c.rateLimiter = rate.NewLimiter(rate.Inf, 0)
		return
	}
	if burst < 1 {
		burst = 1
	}
	c.rateLimiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

// SetTimeout sets the per-attempt HTTP timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		c.httpClient.Timeout = timeout
	}
}

// SetDebug toggles verbose request logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

func (c *Client) debugLog(format string, args ...interface{}) {
	if c.debug {
		c.logger.Debugf("[SUGGEST] "+format, args...)
	}
}

// exponentialBackoff returns the wait before retrying after the given attempt
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return backoffBase * time.Duration(1<<uint(attempt-1))
}

// readLimitedBody reads at most limit bytes from r
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// doRequest executes an HTTP GET request with proper headers
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Placewise/1.0")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSuggestAPIFailure, err)
	}

	return resp, nil
}

func (c *Client) buildURL(request *domain.SuggestRequest) (string, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("invalid base url: %q", c.baseURL)
	}

	params := url.Values{}
	params.Set("q", request.Query)
	if request.Limit > 0 {
		params.Set("limit", strconv.Itoa(request.Limit))
	}

	geo := request.Geo
	if geo.HasCoordinate() {
		params.Set("lat", strconv.FormatFloat(geo.Coordinate.Latitude, 'f', 4, 64))
		params.Set("lon", strconv.FormatFloat(geo.Coordinate.Longitude, 'f', 4, 64))
	}
	if geo != nil && geo.RegionCode != "" {
		params.Set("region", geo.RegionCode)
	}
	if geo != nil && geo.CountryCode != "" {
		params.Set("country", geo.CountryCode)
	}

	return fmt.Sprintf("%s/api/v1/suggest?%s", base.String(), params.Encode()), nil
}

// Suggest fetches candidates for the request. A 404 from the upstream is an
// empty result, not an error.
func (c *Client) Suggest(ctx context.Context, request *domain.SuggestRequest) (*domain.SuggestResponse, error) {
	if request == nil {
		return nil, domain.ErrInvalidRequest
	}

	reqURL, err := c.buildURL(request)
	if err != nil {
		return nil, err
	}
	c.debugLog("Suggest called with query: %q", request.Query)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepContext(ctx, c.backoff(attempt-1)); err != nil {
				return nil, err
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrRateLimited, err)
		}

		resp, err := c.doRequest(ctx, reqURL)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrSuggestAPIFailure, ctxErr)
			}
			c.debugLog("request error (attempt %d): %v", attempt, err)
			lastErr = err
			continue
		}

		body, readErr := readLimitedBody(resp.Body, maxBodyBytes)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("%w: reading body: %v", domain.ErrSuggestAPIFailure, readErr)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode == http.StatusNotFound:
			c.debugLog("no suggestions for query: %q", request.Query)
			return &domain.SuggestResponse{FetchedAt: time.Now()}, nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			c.debugLog("API error (attempt %d) status %d", attempt, resp.StatusCode)
			lastErr = fmt.Errorf("%w: status %d", domain.ErrSuggestAPIFailure, resp.StatusCode)
			continue
		default:
			return nil, fmt.Errorf("%w: status %d, body: %s", domain.ErrSuggestAPIFailure, resp.StatusCode, string(body))
		}

		var payload suggestResponse
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}

		result := mapToSuggestResponse(&payload)
		c.debugLog("found %d candidates for query: %q", len(result.Candidates), request.Query)
		return result, nil
	}

	c.logger.WithFields(logrus.Fields{
		"query":    request.Query,
		"attempts": maxAttempts,
	}).Warn("suggestion API retries exhausted")

	if lastErr == nil {
		lastErr = errors.New("suggestion request failed")
	}
	return nil, lastErr
}
