package research

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/sentinel/internal/backtest"
	"github.com/newthinker/sentinel/internal/calendar"
	"github.com/newthinker/sentinel/internal/collector"
	"github.com/newthinker/sentinel/internal/core"
	"github.com/newthinker/sentinel/internal/metrics"
	"github.com/newthinker/sentinel/internal/qa"
	"github.com/newthinker/sentinel/internal/report"
)

// Runner binds the pipeline to a price source and a report writer.
type Runner struct {
	source  collector.PriceSource
	reports *report.Writer
	params  backtest.Params
	logger  *zap.Logger
	metrics *metrics.Registry
}

// NewRunner creates a runner. p supplies the pair and initial value; the
// cost is given per call. logger and m may be nil.
func NewRunner(source collector.PriceSource, reports *report.Writer, p backtest.Params, logger *zap.Logger, m *metrics.Registry) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		source:  source,
		reports: reports,
		params:  p,
		logger:  logger,
		metrics: m,
	}
}

// Pair returns the traded assets.
func (r *Runner) Pair() core.AssetPair {
	return r.params.Pair
}

// Load fetches and aligns both series.
func (r *Runner) Load(ctx context.Context, refresh bool) (*calendar.Aligned, error) {
	pair := r.params.Pair
	risk, err := r.source.FetchCloses(ctx, string(pair.Risk), refresh)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", pair.Risk, err)
	}
	safe, err := r.source.FetchCloses(ctx, string(pair.Safe), refresh)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", pair.Safe, err)
	}
	return calendar.Align(pair, risk, safe)
}

// RunVariant runs one research window and writes real_decision_record_<window>.md.
func (r *Runner) RunVariant(ctx context.Context, window int, costBps float64, refresh bool) (*VariantResult, error) {
	return r.RunRecord(ctx, report.VariantRecordName(window), window, costBps, refresh)
}

// RunSingle runs one window and writes real_decision_record.md.
func (r *Runner) RunSingle(ctx context.Context, window int, costBps float64, refresh bool) (*VariantResult, error) {
	return r.RunRecord(ctx, report.RealRecordName, window, costBps, refresh)
}

// RunRecord runs the full pipeline for window and stores the decision record
// under name.
func (r *Runner) RunRecord(ctx context.Context, name string, window int, costBps float64, refresh bool) (*VariantResult, error) {
	start := time.Now()
	res, err := r.runRecord(ctx, name, window, costBps, refresh)
	if r.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		r.metrics.RecordBacktest(status, time.Since(start).Seconds())
	}
	if err != nil {
		r.logger.Error("variant failed", zap.Int("window", window), zap.Error(err))
		return nil, err
	}
	r.logger.Info("variant complete",
		zap.Int("window", window),
		zap.Float64("cost_bps", costBps),
		zap.Float64("cagr", res.Stats.CAGR),
		zap.Int("trades", res.Stats.TradeCount),
		zap.String("record", res.DecisionRecordPath),
	)
	return res, nil
}

func (r *Runner) runRecord(ctx context.Context, name string, window int, costBps float64, refresh bool) (*VariantResult, error) {
	aligned, err := r.Load(ctx, refresh)
	if err != nil {
		return nil, err
	}

	p := r.params
	p.CostBps = costBps
	eval, err := Evaluate(aligned, window, p)
	if err != nil {
		return nil, err
	}

	record := report.DecisionRecord(report.RecordConfig{
		Pair:    p.Pair,
		Window:  window,
		Rule:    eval.Rule,
		CostBps: costBps,
	}, eval.Result, eval.Stats)
	path, err := r.reports.Write(ctx, name, record)
	if err != nil {
		return nil, err
	}

	warnings, err := qa.RunAll(p.Pair, map[core.Asset]core.PriceSeries{
		p.Pair.Risk: aligned.Risk,
		p.Pair.Safe: aligned.Safe,
	}, aligned.Days)
	if err != nil {
		return nil, err
	}

	return &VariantResult{
		Window:             window,
		Rule:               eval.Rule,
		StartDate:          eval.Result.StartDate,
		EndDate:            eval.Result.EndDate,
		FinalValue:         eval.Result.FinalValue,
		Stats:              eval.Stats,
		QAWarnings:         warnings,
		DecisionRecordPath: path,
	}, nil
}

// Compare runs RunVariant for each window and judges robustness.
func (r *Runner) Compare(ctx context.Context, windows []int, costBps float64, refresh bool) (*Comparison, error) {
	c, err := CompareVariants(ctx, windows, costBps, refresh, r.RunVariant)
	if err != nil {
		return nil, err
	}
	if r.metrics != nil {
		r.metrics.RecordResearch(c.Robust)
	}
	r.logger.Info("comparison complete",
		zap.Ints("windows", c.Windows()),
		zap.Bool("robust", c.Robust),
		zap.Float64("cagr_range", c.CAGRRange),
		zap.Float64("max_drawdown_range", c.DrawdownRange),
	)
	return c, nil
}

// Research runs Compare and writes research_report.md. It returns the
// comparison and the report location.
func (r *Runner) Research(ctx context.Context, windows []int, costBps float64, refresh bool) (*Comparison, string, error) {
	c, err := r.Compare(ctx, windows, costBps, refresh)
	if err != nil {
		return nil, "", err
	}
	path, err := r.reports.Write(ctx, report.ResearchName, report.ResearchReport(c.Summary(costBps)))
	if err != nil {
		return nil, "", err
	}
	return c, path, nil
}
