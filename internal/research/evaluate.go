// Package research runs the trend backtest over real or synthetic prices and
// compares window variants for robustness.
package research

import (
	"fmt"

	"github.com/newthinker/sentinel/internal/backtest"
	"github.com/newthinker/sentinel/internal/calendar"
	"github.com/newthinker/sentinel/internal/core"
	"github.com/newthinker/sentinel/internal/strategy/trend"
)

// Evaluation is the output of one pipeline run.
type Evaluation struct {
	Rule      string
	Decisions []trend.Decision
	Result    *backtest.Result
	Stats     backtest.Stats
}

// Evaluate derives decisions for window, simulates them and computes stats.
// It is pure: identical inputs give identical outputs.
func Evaluate(aligned *calendar.Aligned, window int, p backtest.Params) (*Evaluation, error) {
	strategy := trend.New(window, p.Pair)
	decisions, err := strategy.Decide(aligned.Days, aligned.Risk)
	if err != nil {
		return nil, fmt.Errorf("making decisions: %w", err)
	}
	if len(decisions) == 0 {
		return nil, core.Errorf(core.ErrInsufficientData,
			"no month-end signal has %d days of history (have %d days)", window, len(aligned.Days))
	}

	prices := map[core.Asset]core.PriceSeries{
		p.Pair.Risk: aligned.Risk,
		p.Pair.Safe: aligned.Safe,
	}
	result, err := backtest.Run(aligned.Days, prices, decisions, p)
	if err != nil {
		return nil, fmt.Errorf("simulating: %w", err)
	}

	stats, err := backtest.ComputeStats(result)
	if err != nil {
		return nil, fmt.Errorf("computing stats: %w", err)
	}

	return &Evaluation{Rule: strategy.Description(), Decisions: decisions, Result: result, Stats: stats}, nil
}
