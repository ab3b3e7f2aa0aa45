package collector

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/sentinel/internal/core"
	"github.com/newthinker/sentinel/internal/metrics"
	"github.com/newthinker/sentinel/internal/storage/archive"
)

// Cached turns a Downloader into a PriceSource that keeps the raw response
// in archive storage and serves later lookups from it.
type Cached struct {
	downloader Downloader
	store      archive.Storage
	logger     *zap.Logger
	metrics    *metrics.Registry
}

// NewCached wraps d. metrics may be nil.
func NewCached(d Downloader, store archive.Storage, logger *zap.Logger, m *metrics.Registry) *Cached {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{downloader: d, store: store, logger: logger, metrics: m}
}

func (c *Cached) Name() string {
	return c.downloader.Name()
}

// CachePath returns where symbol's raw history is stored.
func (c *Cached) CachePath(symbol string) (string, error) {
	key, err := c.downloader.CacheKey(symbol)
	if err != nil {
		return "", err
	}
	return c.store.Location(key), nil
}

// FetchCloses implements PriceSource.
func (c *Cached) FetchCloses(ctx context.Context, symbol string, refresh bool) (core.PriceSeries, error) {
	key, err := c.downloader.CacheKey(symbol)
	if err != nil {
		return nil, err
	}

	raw, hit, err := c.load(ctx, key, symbol, refresh)
	if err != nil {
		c.record("error")
		return nil, err
	}
	if hit {
		c.record("hit")
	} else {
		c.record("miss")
	}

	series, err := c.downloader.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing %s history: %w", symbol, err)
	}
	if len(series) == 0 {
		return nil, core.Errorf(core.ErrNoData, "%s returned no rows for %s", c.Name(), symbol)
	}
	return series, nil
}

func (c *Cached) load(ctx context.Context, key, symbol string, refresh bool) ([]byte, bool, error) {
	if !refresh {
		exists, err := c.store.Exists(ctx, key)
		if err != nil {
			return nil, false, fmt.Errorf("checking cache %s: %w", key, err)
		}
		if exists {
			raw, err := c.store.Read(ctx, key)
			if err != nil {
				return nil, false, fmt.Errorf("reading cache %s: %w", key, err)
			}
			c.logger.Debug("price cache hit", zap.String("symbol", symbol), zap.String("key", key))
			return raw, true, nil
		}
	}

	start := time.Now()
	raw, err := c.downloader.Download(ctx, symbol)
	if c.metrics != nil {
		c.metrics.ObserveDownload(c.Name(), time.Since(start).Seconds())
	}
	if err != nil {
		return nil, false, fmt.Errorf("downloading %s: %w", symbol, err)
	}
	if err := c.store.Write(ctx, key, raw); err != nil {
		return nil, false, fmt.Errorf("writing cache %s: %w", key, err)
	}
	c.logger.Info("price history downloaded",
		zap.String("source", c.Name()),
		zap.String("symbol", symbol),
		zap.Int("bytes", len(raw)),
	)
	return raw, false, nil
}

func (c *Cached) record(result string) {
	if c.metrics != nil {
		c.metrics.RecordFetch(c.Name(), result)
	}
}
