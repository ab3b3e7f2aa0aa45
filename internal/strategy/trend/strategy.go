// Package trend implements the monthly SMA trend-following rule: hold the
// risk asset while its close is above the trailing moving average, otherwise
// hold the safe asset.
package trend

import (
	"fmt"

	"github.com/newthinker/sentinel/internal/core"
	"github.com/newthinker/sentinel/internal/indicator"
)

// Decision is the rebalancing decision observed on a month-end signal date
// and executed on the following trading day.
type Decision struct {
	SignalDate    core.Date  `json:"signal_date"`
	TradeDate     core.Date  `json:"trade_date"`
	ObservedClose float64    `json:"observed_close"`
	MovingAverage float64    `json:"moving_average"`
	TargetAsset   core.Asset `json:"target_asset"`
}

// DecideTarget returns the risk asset when price is strictly above the moving
// average. Ties go to the safe asset.
func DecideTarget(pair core.AssetPair, price, movingAverage float64) core.Asset {
	if price > movingAverage {
		return pair.Risk
	}
	return pair.Safe
}

// MakeDecisions emits one decision per month-end signal date that has a full
// trailing window of history and a next trading day to trade on.
func MakeDecisions(days []core.Date, riskCloses core.PriceSeries, window int, pair core.AssetPair) ([]Decision, error) {
	if window <= 0 {
		return nil, core.Errorf(core.ErrInvalidWindow, "got %d", window)
	}

	indexByDate := make(map[core.Date]int, len(days))
	for i, d := range days {
		indexByDate[d] = i
	}

	var decisions []Decision
	values := make([]float64, window)

	for _, signal := range MonthEndSignalDates(days) {
		idx := indexByDate[signal]
		if idx+1 < window || idx >= len(days)-1 {
			continue
		}

		for j, d := range days[idx-window+1 : idx+1] {
			v, err := riskCloses.Close(pair.Risk, d)
			if err != nil {
				return nil, err
			}
			values[j] = v
		}

		ma, err := indicator.Trailing(values, window)
		if err != nil {
			return nil, err
		}
		observed := values[window-1]

		tradeDate, err := NextTradingDay(days, signal)
		if err != nil {
			return nil, err
		}

		decisions = append(decisions, Decision{
			SignalDate:    signal,
			TradeDate:     tradeDate,
			ObservedClose: observed,
			MovingAverage: ma,
			TargetAsset:   DecideTarget(pair, observed, ma),
		})
	}

	return decisions, nil
}

// Strategy binds a window length and asset pair.
type Strategy struct {
	Window int
	Pair   core.AssetPair
}

// New creates a new SMA trend strategy
func New(window int, pair core.AssetPair) *Strategy {
	return &Strategy{Window: window, Pair: pair}
}

func (s *Strategy) Name() string {
	return "sma_trend"
}

func (s *Strategy) Description() string {
	return fmt.Sprintf("%s above SMA%d, else %s", s.Pair.Risk, s.Window, s.Pair.Safe)
}

// Decide runs MakeDecisions with the strategy's parameters.
func (s *Strategy) Decide(days []core.Date, riskCloses core.PriceSeries) ([]Decision, error) {
	return MakeDecisions(days, riskCloses, s.Window, s.Pair)
}
