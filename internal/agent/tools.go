package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/newthinker/sentinel/internal/core"
	"github.com/newthinker/sentinel/internal/research"
)

// Tool names the model may call.
const (
	ToolRealBacktest    = "real_backtest"
	ToolCompareVariants = "compare_variants"
)

// Heuristic is reported alongside every robustness verdict.
const Heuristic = "Flag if CAGR varies by >2% or max drawdown varies by >5% (absolute)."

// Backtester runs the research pipeline on behalf of the agent.
type Backtester interface {
	RunVariant(ctx context.Context, window int, costBps float64, refresh bool) (*research.VariantResult, error)
	Compare(ctx context.Context, windows []int, costBps float64, refresh bool) (*research.Comparison, error)
}

type realBacktestArgs struct {
	SMAWindow int     `json:"sma_window"`
	CostBps   float64 `json:"cost_bps"`
	Refresh   *bool   `json:"refresh"`
}

type compareVariantsArgs struct {
	Windows []int   `json:"windows"`
	CostBps float64 `json:"cost_bps"`
	Refresh *bool   `json:"refresh"`
}

type backtestOutput struct {
	DateRange          string   `json:"date_range"`
	FinalValue         float64  `json:"final_value"`
	CAGR               float64  `json:"cagr"`
	MaxDrawdown        float64  `json:"max_drawdown"`
	Volatility         float64  `json:"volatility"`
	TurnoverInitial    float64  `json:"turnover_initial"`
	TurnoverAvgEquity  float64  `json:"turnover_avg_equity"`
	TradeCount         int      `json:"trade_count"`
	PathDecisionRecord string   `json:"path_decision_record"`
	QAWarnings         []string `json:"qa_warnings"`
}

type robustnessOutput struct {
	IsRobust         bool    `json:"is_robust"`
	CAGRRange        float64 `json:"cagr_range"`
	MaxDrawdownRange float64 `json:"max_drawdown_range"`
	Heuristic        string  `json:"heuristic"`
}

type compareOutput struct {
	Results    map[int]backtestOutput `json:"results"`
	Robustness robustnessOutput       `json:"robustness"`
}

func toOutput(v *research.VariantResult) backtestOutput {
	warnings := v.QAWarnings
	if warnings == nil {
		warnings = []string{}
	}
	return backtestOutput{
		DateRange:          v.DateRange(),
		FinalValue:         v.FinalValue,
		CAGR:               v.Stats.CAGR,
		MaxDrawdown:        v.Stats.MaxDrawdown,
		Volatility:         v.Stats.Volatility,
		TurnoverInitial:    v.Stats.TurnoverInitial,
		TurnoverAvgEquity:  v.Stats.TurnoverAvgEquity,
		TradeCount:         v.Stats.TradeCount,
		PathDecisionRecord: v.DecisionRecordPath,
		QAWarnings:         warnings,
	}
}

// invoke runs one tool call and returns its JSON output. A missing refresh
// argument falls back to defaultRefresh.
func invoke(ctx context.Context, bt Backtester, call ToolCall, defaultRefresh bool) (string, error) {
	var out any
	switch call.Name {
	case ToolRealBacktest:
		var args realBacktestArgs
		if err := decodeArgs(call, &args); err != nil {
			return "", err
		}
		if args.SMAWindow < 1 {
			return "", core.Errorf(core.ErrInvalidWindow, "sma_window must be at least 1, got %d", args.SMAWindow)
		}
		res, err := bt.RunVariant(ctx, args.SMAWindow, args.CostBps, refreshOr(args.Refresh, defaultRefresh))
		if err != nil {
			return "", err
		}
		out = toOutput(res)

	case ToolCompareVariants:
		var args compareVariantsArgs
		if err := decodeArgs(call, &args); err != nil {
			return "", err
		}
		c, err := bt.Compare(ctx, args.Windows, args.CostBps, refreshOr(args.Refresh, defaultRefresh))
		if err != nil {
			return "", err
		}
		results := make(map[int]backtestOutput, len(c.Results))
		for i := range c.Results {
			results[c.Results[i].Window] = toOutput(&c.Results[i])
		}
		out = compareOutput{
			Results: results,
			Robustness: robustnessOutput{
				IsRobust:         c.Robust,
				CAGRRange:        c.CAGRRange,
				MaxDrawdownRange: c.DrawdownRange,
				Heuristic:        Heuristic,
			},
		}

	default:
		return "", core.Errorf(core.ErrAgentFailed, "unknown tool requested by model: %s", call.Name)
	}

	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encoding %s output: %w", call.Name, err)
	}
	return string(b), nil
}

func decodeArgs(call ToolCall, v any) error {
	if len(call.Arguments) == 0 {
		return nil
	}
	if err := json.Unmarshal(call.Arguments, v); err != nil {
		return core.Errorf(core.ErrAgentFailed, "invalid JSON arguments for tool %s: %w", call.Name, err)
	}
	return nil
}

func refreshOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
