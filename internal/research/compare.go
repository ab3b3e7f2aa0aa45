package research

import (
	"context"
	"fmt"
	"slices"

	"github.com/newthinker/sentinel/internal/backtest"
	"github.com/newthinker/sentinel/internal/core"
	"github.com/newthinker/sentinel/internal/report"
)

// Robustness thresholds, absolute.
const (
	MaxCAGRRange     = 0.02
	MaxDrawdownRange = 0.05
)

// Verdict reasons.
const (
	ReasonCAGR     = "CAGR range exceeds 2% absolute."
	ReasonDrawdown = "Max drawdown range exceeds 5% absolute."
)

// VariantResult summarizes one window's run.
type VariantResult struct {
	Window             int            `json:"window"`
	Rule               string         `json:"rule,omitempty"`
	StartDate          core.Date      `json:"start_date"`
	EndDate            core.Date      `json:"end_date"`
	FinalValue         float64        `json:"final_value"`
	Stats              backtest.Stats `json:"stats"`
	QAWarnings         []string       `json:"qa_warnings"`
	DecisionRecordPath string         `json:"decision_record_path"`
}

// DateRange formats the simulated span.
func (v VariantResult) DateRange() string {
	return report.DateRange(v.StartDate, v.EndDate)
}

// VariantFunc runs the pipeline for one window.
type VariantFunc func(ctx context.Context, window int, costBps float64, refresh bool) (*VariantResult, error)

// Comparison is the outcome of running several windows.
type Comparison struct {
	Results       []VariantResult `json:"results"`
	CAGRRange     float64         `json:"cagr_range"`
	DrawdownRange float64         `json:"max_drawdown_range"`
	Robust        bool            `json:"robust"`
	Reasons       []string        `json:"reasons"`
}

// CompareVariants runs fn once per window in order and judges the spread of
// outcomes. The first error aborts the comparison.
func CompareVariants(ctx context.Context, windows []int, costBps float64, refresh bool, fn VariantFunc) (*Comparison, error) {
	if len(windows) == 0 {
		return nil, core.Errorf(core.ErrInvalidInput, "windows must not be empty")
	}

	results := make([]VariantResult, 0, len(windows))
	for _, w := range windows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := fn(ctx, w, costBps, refresh)
		if err != nil {
			return nil, fmt.Errorf("window %d: %w", w, err)
		}
		results = append(results, *res)
	}

	return Judge(results), nil
}

// Judge sorts results by window and derives the robustness verdict.
func Judge(results []VariantResult) *Comparison {
	slices.SortStableFunc(results, func(a, b VariantResult) int {
		return a.Window - b.Window
	})

	c := &Comparison{Results: results, Reasons: []string{}}
	if len(results) == 0 {
		c.Robust = true
		return c
	}

	minCAGR, maxCAGR := results[0].Stats.CAGR, results[0].Stats.CAGR
	minDD, maxDD := results[0].Stats.MaxDrawdown, results[0].Stats.MaxDrawdown
	for _, r := range results[1:] {
		minCAGR = min(minCAGR, r.Stats.CAGR)
		maxCAGR = max(maxCAGR, r.Stats.CAGR)
		minDD = min(minDD, r.Stats.MaxDrawdown)
		maxDD = max(maxDD, r.Stats.MaxDrawdown)
	}
	c.CAGRRange = maxCAGR - minCAGR
	c.DrawdownRange = maxDD - minDD

	if c.CAGRRange > MaxCAGRRange {
		c.Reasons = append(c.Reasons, ReasonCAGR)
	}
	if c.DrawdownRange > MaxDrawdownRange {
		c.Reasons = append(c.Reasons, ReasonDrawdown)
	}
	c.Robust = len(c.Reasons) == 0
	return c
}

// Summary converts the comparison into report rows.
func (c *Comparison) Summary(costBps float64) report.ResearchSummary {
	rows := make([]report.VariantRow, len(c.Results))
	for i, r := range c.Results {
		rows[i] = report.VariantRow{
			Window:     r.Window,
			DateRange:  r.DateRange(),
			FinalValue: r.FinalValue,
			Stats:      r.Stats,
			QAWarnings: r.QAWarnings,
			RecordPath: r.DecisionRecordPath,
		}
	}
	return report.ResearchSummary{
		CostBps: costBps,
		Robust:  c.Robust,
		Reasons: c.Reasons,
		Rows:    rows,
	}
}

// Windows lists the compared windows in result order.
func (c *Comparison) Windows() []int {
	out := make([]int, len(c.Results))
	for i, r := range c.Results {
		out[i] = r.Window
	}
	return out
}
