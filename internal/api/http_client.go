package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"taxidash/internal/geo"

	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is where the statistics API listens in development.
const DefaultBaseURL = "http://localhost:5002/api"

// StatusError reports a non-200 response.
type StatusError struct {
	Path       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Path)
}

type httpClient struct {
	cfg        Config
	httpClient *http.Client

	// Response bodies keyed by path+query; queries are order-stable.
	cache *lru.Cache
}

// NewHTTPClient creates a client for the REST API at cfg.BaseURL.
func NewHTTPClient(cfg Config) (Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 128
	}

	cache, err := lru.New(cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create response cache: %w", err)
	}

	return &httpClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		cache: cache,
	}, nil
}

func (c *httpClient) Invalidate() {
	c.cache.Purge()
	log.Debug().Msg("Response cache purged")
}

func (c *httpClient) get(ctx context.Context, path string, out any) error {
	if val, ok := c.cache.Get(path); ok {
		log.Debug().Str("path", path).Msg("Cache hit")
		return json.Unmarshal(val.([]byte), out)
	}

	url := c.cfg.BaseURL + path
	log.Debug().Str("url", url).Msg("Requesting statistics")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Path: path, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}

	c.cache.Add(path, body)
	return nil
}

func (c *httpClient) Statistics(ctx context.Context, query string) (*Stats, error) {
	var s Stats
	if err := c.get(ctx, "/statistics"+query, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *httpClient) PeakHours(ctx context.Context, query string) ([]PeakHour, error) {
	var rows []PeakHour
	if err := c.get(ctx, "/statistics/peak-hours"+query, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *httpClient) ZoneCounts(ctx context.Context, query string) (ZoneCounts, error) {
	counts := ZoneCounts{}
	if err := c.get(ctx, "/statistics/by-zone"+query, &counts); err != nil {
		return nil, err
	}
	return counts, nil
}

func (c *httpClient) Boroughs(ctx context.Context, query string) ([]BoroughCount, error) {
	var rows boroughList
	if err := c.get(ctx, "/statistics/by-borough"+query, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *httpClient) FareDistribution(ctx context.Context, query string) ([]FareBucket, error) {
	var rows []FareBucket
	if err := c.get(ctx, "/statistics/fare-distribution"+query, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *httpClient) Trends(ctx context.Context, query string) ([]TrendPoint, error) {
	var rows []TrendPoint
	if err := c.get(ctx, "/statistics/trends"+query, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *httpClient) PickupTimes(ctx context.Context, query string) ([]HourCount, error) {
	var rows []HourCount
	if err := c.get(ctx, "/statistics/pickup-time-distribution"+query, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *httpClient) ZonesGeoJSON(ctx context.Context) (*geo.FeatureCollection, error) {
	var fc geo.FeatureCollection
	if err := c.get(ctx, "/zones/geojson", &fc); err != nil {
		return nil, err
	}
	return &fc, nil
}
