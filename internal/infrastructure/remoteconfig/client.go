// Package remoteconfig keeps a snapshot of a remotely served JSON config
// document.
package remoteconfig

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/placewise/backend/internal/domain"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 256 << 10

// Client fetches the remote config document and serves its top-level values.
// A failed refresh keeps the previous snapshot.
type Client struct {
	httpClient *http.Client
	url        string
	logger     *logrus.Logger

	mu        sync.RWMutex
	values    map[string]interface{}
	fetchedAt time.Time
}

// NewClient creates a remote config client. An empty url disables fetching.
func NewClient(url string, timeout time.Duration, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		url:        url,
		logger:     logger,
		values:     map[string]interface{}{},
	}
}

// Enabled reports whether a remote url is configured
func (c *Client) Enabled() bool {
	return c.url != ""
}

// Refresh replaces the snapshot with the current remote document
func (c *Client) Refresh(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRemoteConfigFailure, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRemoteConfigFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", domain.ErrRemoteConfigFailure, resp.StatusCode)
	}

	var values map[string]interface{}
	decoder := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes))
	decoder.UseNumber()
	if err := decoder.Decode(&values); err != nil {
		return fmt.Errorf("%w: decode: %v", domain.ErrRemoteConfigFailure, err)
	}
	if values == nil {
		values = map[string]interface{}{}
	}

	c.mu.Lock()
	c.values = values
	c.fetchedAt = time.Now()
	c.mu.Unlock()

	c.logger.WithField("keys", len(values)).Debug("remote config refreshed")
	return nil
}

// Value returns the top-level value for key from the current snapshot
func (c *Client) Value(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.values[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// FetchedAt returns when the snapshot was last replaced
func (c *Client) FetchedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetchedAt
}
