package backtest

import (
	"github.com/newthinker/sentinel/internal/core"
	"github.com/newthinker/sentinel/internal/strategy/trend"
)

// Run simulates the two-asset portfolio over days, starting on the earliest
// decision trade date and switching assets on each decision's trade date.
func Run(days []core.Date, prices map[core.Asset]core.PriceSeries, decisions []trend.Decision, p Params) (*Result, error) {
	if len(decisions) == 0 {
		return nil, core.Errorf(core.ErrInvalidInput, "decisions must not be empty")
	}
	if err := p.Pair.Validate(); err != nil {
		return nil, err
	}
	for _, asset := range []core.Asset{p.Pair.Risk, p.Pair.Safe} {
		if _, ok := prices[asset]; !ok {
			return nil, core.Errorf(core.ErrInvalidInput, "prices missing series for %s", asset)
		}
	}

	// The first decision per trade date wins.
	byTradeDate := make(map[core.Date]trend.Decision, len(decisions))
	first := decisions[0]
	for _, d := range decisions {
		if !p.Pair.Contains(d.TargetAsset) {
			return nil, core.Errorf(core.ErrInvalidInput,
				"decision on %s targets %s outside %s/%s", d.SignalDate, d.TargetAsset, p.Pair.Risk, p.Pair.Safe)
		}
		if _, seen := byTradeDate[d.TradeDate]; !seen {
			byTradeDate[d.TradeDate] = d
		}
		if d.TradeDate.Before(first.TradeDate) {
			first = d
		}
	}

	start := first.TradeDate
	if !containsDay(days, start) {
		return nil, core.Errorf(core.ErrInvalidInput, "start date %s not in trading days", start)
	}

	held := first.TargetAsset
	value := p.InitialValue

	var (
		curve    []Point
		holdings []Holding
		trades   []Trade
		prev     core.Date
		started  bool
	)

	for _, day := range days {
		if day.Before(start) {
			continue
		}

		if started && !day.After(prev) {
			return nil, core.Errorf(core.ErrInvalidInput, "trading days not strictly increasing at %s", day)
		}

		if started {
			series := prices[held]
			today, err := series.Close(held, day)
			if err != nil {
				return nil, err
			}
			yesterday, err := series.Close(held, prev)
			if err != nil {
				return nil, err
			}
			value *= today / yesterday
		}

		if dec, ok := byTradeDate[day]; ok && dec.TargetAsset != held {
			pre := value
			value = ApplyCost(value, p.CostBps) // exit leg
			value = ApplyCost(value, p.CostBps) // entry leg
			trades = append(trades, Trade{
				Date:       day,
				FromAsset:  held,
				ToAsset:    dec.TargetAsset,
				PreValue:   pre,
				PostValue:  value,
				CostBps:    p.CostBps,
				CostAmount: pre - value,
			})
			held = dec.TargetAsset
		}

		curve = append(curve, Point{Date: day, Value: value})
		holdings = append(holdings, Holding{Date: day, Asset: held})
		prev = day
		started = true
	}

	if len(curve) == 0 {
		return nil, core.WrapError(core.ErrEmptyResult, nil)
	}

	return &Result{
		StartDate:    curve[0].Date,
		EndDate:      curve[len(curve)-1].Date,
		InitialValue: p.InitialValue,
		FinalValue:   curve[len(curve)-1].Value,
		EquityCurve:  curve,
		Holdings:     holdings,
		Trades:       trades,
	}, nil
}

func containsDay(days []core.Date, d core.Date) bool {
	for _, day := range days {
		if day == d {
			return true
		}
	}
	return false
}
