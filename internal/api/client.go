// Package api is the client for the taxi statistics REST API.
package api

import (
	"context"
	"time"

	"taxidash/internal/geo"
)

// Client is the interface for the statistics endpoints. Every filtered
// method takes the query string produced by the filter package ("" or "?...").
type Client interface {
	Statistics(ctx context.Context, query string) (*Stats, error)
	PeakHours(ctx context.Context, query string) ([]PeakHour, error)
	ZoneCounts(ctx context.Context, query string) (ZoneCounts, error)
	Boroughs(ctx context.Context, query string) ([]BoroughCount, error)
	FareDistribution(ctx context.Context, query string) ([]FareBucket, error)
	Trends(ctx context.Context, query string) ([]TrendPoint, error)
	PickupTimes(ctx context.Context, query string) ([]HourCount, error)
	ZonesGeoJSON(ctx context.Context) (*geo.FeatureCollection, error)
	// Invalidate drops cached responses so the next calls hit the API.
	Invalidate()
}

// Config holds the connection settings for the statistics API.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	CacheSize int
}

// NewClient creates a new API client based on the provided configuration.
func NewClient(cfg Config) (Client, error) {
	return NewHTTPClient(cfg)
}
