package backtest

import (
	"github.com/newthinker/sentinel/internal/core"
)

// Params configures a single simulation
type Params struct {
	Pair         core.AssetPair
	InitialValue float64
	CostBps      float64 // per side
}

// DefaultParams returns the SPY/BIL portfolio starting at 100,000 with 5 bps per side.
func DefaultParams() Params {
	return Params{
		Pair:         core.DefaultPair,
		InitialValue: 100_000.0,
		CostBps:      5.0,
	}
}

// Point is one equity-curve observation.
type Point struct {
	Date  core.Date `json:"date"`
	Value float64   `json:"value"`
}

// Holding records which asset was held at the close of a day.
type Holding struct {
	Date  core.Date  `json:"date"`
	Asset core.Asset `json:"asset"`
}

// Trade is a realized switch between the two assets.
type Trade struct {
	Date       core.Date  `json:"date"`
	FromAsset  core.Asset `json:"from_asset"`
	ToAsset    core.Asset `json:"to_asset"`
	PreValue   float64    `json:"pre_value"`
	PostValue  float64    `json:"post_value"`
	CostBps    float64    `json:"cost_bps"`
	CostAmount float64    `json:"cost_amount"`
}

// Notional approximates the traded notional of both legs as twice the
// pre-trade portfolio value.
func (t Trade) Notional() float64 {
	return 2.0 * t.PreValue
}

// Result holds the complete backtest output
type Result struct {
	StartDate    core.Date `json:"start_date"`
	EndDate      core.Date `json:"end_date"`
	InitialValue float64   `json:"initial_value"`
	FinalValue   float64   `json:"final_value"`
	EquityCurve  []Point   `json:"equity_curve"`
	Holdings     []Holding `json:"holdings"`
	Trades       []Trade   `json:"trades"`
}

// LastPoints returns up to n trailing equity points.
func (r *Result) LastPoints(n int) []Point {
	if n >= len(r.EquityCurve) {
		return r.EquityCurve
	}
	return r.EquityCurve[len(r.EquityCurve)-n:]
}

// Stats holds performance statistics
type Stats struct {
	CAGR              float64 `json:"cagr"`
	MaxDrawdown       float64 `json:"max_drawdown"` // negative fraction
	Volatility        float64 `json:"volatility"`   // annualized
	TurnoverInitial   float64 `json:"turnover_initial"`
	TurnoverAvgEquity float64 `json:"turnover_avg_equity"`
	TradeCount        int     `json:"trade_count"`
}
