// Package sources assembles the configured price sources.
package sources

import (
	"go.uber.org/zap"

	"github.com/newthinker/sentinel/internal/collector"
	"github.com/newthinker/sentinel/internal/collector/stooq"
	"github.com/newthinker/sentinel/internal/collector/synthetic"
	"github.com/newthinker/sentinel/internal/collector/yahoo"
	"github.com/newthinker/sentinel/internal/config"
	"github.com/newthinker/sentinel/internal/core"
	"github.com/newthinker/sentinel/internal/metrics"
	"github.com/newthinker/sentinel/internal/storage/archive"
)

// NewRegistry registers every known source. Remote sources are cached in
// store; the base URL override applies only to the configured source.
func NewRegistry(cfg config.DataConfig, pair core.AssetPair, store archive.Storage, logger *zap.Logger, m *metrics.Registry) *collector.Registry {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientCfg := func(name string) collector.Config {
		c := collector.Config{
			RatePerSec: cfg.RatePerSec,
			Burst:      cfg.Burst,
			MaxRetries: cfg.MaxRetries,
		}
		if cfg.Source == name {
			c.BaseURL = cfg.BaseURL
		}
		return c
	}

	reg := collector.NewRegistry()
	reg.Register(collector.NewCached(stooq.New(clientCfg("stooq"), logger), store, logger, m))
	reg.Register(collector.NewCached(yahoo.New(clientCfg("yahoo"), logger), store, logger, m))
	reg.Register(synthetic.New(pair))
	return reg
}

// Select returns the source named by cfg.Source.
func Select(reg *collector.Registry, name string) (collector.PriceSource, error) {
	src, ok := reg.Get(name)
	if !ok {
		return nil, core.Errorf(core.ErrConfigInvalid, "unknown data source %q, have %v", name, reg.Names())
	}
	return src, nil
}

// CachePaths returns where each asset's raw history is cached, or nil when
// src keeps no cache.
func CachePaths(src collector.PriceSource, pair core.AssetPair) []string {
	cached, ok := src.(*collector.Cached)
	if !ok {
		return nil
	}
	var paths []string
	for _, a := range []core.Asset{pair.Risk, pair.Safe} {
		if p, err := cached.CachePath(string(a)); err == nil {
			paths = append(paths, p)
		}
	}
	return paths
}
