package collector

import (
	"context"

	"github.com/newthinker/sentinel/internal/core"
)

// Config holds collector configuration
type Config struct {
	BaseURL    string
	RatePerSec float64
	Burst      int
	MaxRetries int
}

// PriceSource supplies daily close prices keyed by trading day.
type PriceSource interface {
	Name() string

	// FetchCloses returns the full daily close history for symbol. When
	// refresh is set any cached copy is ignored and replaced.
	FetchCloses(ctx context.Context, symbol string, refresh bool) (core.PriceSeries, error)
}

// Downloader fetches and decodes raw history from a remote provider. It is
// wrapped by Cached to become a PriceSource.
type Downloader interface {
	Name() string
	CacheKey(symbol string) (string, error)
	Download(ctx context.Context, symbol string) ([]byte, error)
	Parse(raw []byte) (core.PriceSeries, error)
}
