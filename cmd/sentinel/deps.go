package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/newthinker/sentinel/internal/backtest"
	"github.com/newthinker/sentinel/internal/collector"
	"github.com/newthinker/sentinel/internal/collector/sources"
	"github.com/newthinker/sentinel/internal/config"
	"github.com/newthinker/sentinel/internal/metrics"
	"github.com/newthinker/sentinel/internal/report"
	"github.com/newthinker/sentinel/internal/research"
	"github.com/newthinker/sentinel/internal/storage/archive"
)

// loadConfig loads and validates the --config file, or defaults.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// pipeline bundles what every backtest command needs.
type pipeline struct {
	runner  *research.Runner
	source  collector.PriceSource
	reports *report.Writer
}

// newPipeline wires storage, the named price source and the research
// runner. m may be nil.
func newPipeline(cfg *config.Config, sourceName string, log *zap.Logger, m *metrics.Registry) (*pipeline, error) {
	store, err := archive.New(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("creating storage: %w", err)
	}

	reg := sources.NewRegistry(cfg.Data, cfg.Backtest.Pair(), store, log, m)
	src, err := sources.Select(reg, sourceName)
	if err != nil {
		return nil, err
	}

	params := backtest.Params{
		Pair:         cfg.Backtest.Pair(),
		InitialValue: cfg.Backtest.InitialValue,
		CostBps:      cfg.Backtest.CostBps,
	}
	reports := report.NewWriter(store)
	runner := research.NewRunner(src, reports, params, log, m)
	return &pipeline{runner: runner, source: src, reports: reports}, nil
}
