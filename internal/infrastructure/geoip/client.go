// Package geoip resolves a client IP address to an approximate location.
package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/placewise/backend/internal/domain"
	"github.com/placewise/backend/internal/infrastructure/wire"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	lookupFields    = "status,message,countryCode,region,lat,lon,accuracy"
	maxBodyBytes    = 64 << 10
	defaultCacheTTL = time.Hour
)

// Client is an ip-api style geolocation client
type Client struct {
	httpClient *http.Client
	baseURL    string
	cache      domain.CacheRepository
	cacheTTL   time.Duration
	timeout    time.Duration
	group      singleflight.Group
	logger     *logrus.Logger
}

// NewClient creates a geolocation client. A nil cache disables caching.
func NewClient(baseURL string, cache domain.CacheRepository, cacheTTL, timeout time.Duration, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		cache:      cache,
		cacheTTL:   cacheTTL,
		timeout:    timeout,
		logger:     logger,
	}
}

type lookupResponse struct {
	Status      string          `json:"status"`
	Message     string          `json:"message"`
	CountryCode string          `json:"countryCode"`
	Region      string          `json:"region"`
	Lat         wire.LooseFloat `json:"lat"`
	Lon         wire.LooseFloat `json:"lon"`
	Accuracy    wire.LooseFloat `json:"accuracy"`
}

// Locate returns the location estimate for clientIP. Addresses that cannot be
// located publicly (empty, private, loopback) produce an empty context.
func (c *Client) Locate(ctx context.Context, clientIP string) (*domain.GeoContext, error) {
	ip := net.ParseIP(strings.TrimSpace(clientIP))
	if !routable(ip) {
		return &domain.GeoContext{}, nil
	}

	key := "geoip:" + ip.String()
	if c.cache != nil {
		if cached, err := c.cache.Get(ctx, key); err == nil {
			if geo, ok := cached.(*domain.GeoContext); ok {
				return geo, nil
			}
		}
	}

	// the shared lookup outlives any single caller
	results := c.group.DoChan(key, func() (interface{}, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()

		geo, err := c.lookup(lookupCtx, ip.String())
		if err != nil {
			return nil, err
		}
		if c.cache != nil {
			if err := c.cache.Set(lookupCtx, key, geo, c.cacheTTL); err != nil {
				c.logger.WithError(err).Warn("failed to cache geolocation")
			}
		}
		return geo, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-results:
		if res.Err != nil {
			return nil, res.Err
		}
		c.logger.WithFields(logrus.Fields{
			"ip":     ip.String(),
			"shared": res.Shared,
		}).Debug("geolocation resolved")
		return res.Val.(*domain.GeoContext), nil
	}
}

func (c *Client) lookup(ctx context.Context, ip string) (*domain.GeoContext, error) {
	reqURL := fmt.Sprintf("%s/json/%s?%s", c.baseURL, url.PathEscape(ip), url.Values{"fields": {lookupFields}}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGeoLookupFailure, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGeoLookupFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", domain.ErrGeoLookupFailure, resp.StatusCode)
	}

	var payload lookupResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", domain.ErrGeoLookupFailure, err)
	}
	if payload.Status != "" && payload.Status != "success" {
		return nil, fmt.Errorf("%w: %s", domain.ErrGeoLookupFailure, payload.Message)
	}

	return toGeoContext(payload), nil
}

func toGeoContext(payload lookupResponse) *domain.GeoContext {
	geo := &domain.GeoContext{
		RegionCode:  strings.TrimSpace(payload.Region),
		CountryCode: strings.ToUpper(strings.TrimSpace(payload.CountryCode)),
		AccuracyKm:  payload.Accuracy.Ptr(),
	}

	if payload.Lat.Valid && payload.Lon.Valid {
		coord := domain.Coordinate{Latitude: payload.Lat.Value, Longitude: payload.Lon.Value}
		if coord.Latitude >= -90 && coord.Latitude <= 90 && coord.Longitude >= -180 && coord.Longitude <= 180 {
			geo.Coordinate = &coord
		}
	}

	return geo
}

func routable(ip net.IP) bool {
	if ip == nil {
		return false
	}
	return !(ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsMulticast())
}
