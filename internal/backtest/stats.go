package backtest

import (
	"math"

	"github.com/newthinker/sentinel/internal/core"
)

const (
	daysPerYear     = 365.25
	tradingDaysYear = 252.0
)

// ComputeStats computes all performance statistics for a result
func ComputeStats(r *Result) (Stats, error) {
	cagr, err := CAGR(r.EquityCurve)
	if err != nil {
		return Stats{}, err
	}
	dd, err := MaxDrawdown(r.EquityCurve)
	if err != nil {
		return Stats{}, err
	}
	vol, err := Volatility(r.EquityCurve)
	if err != nil {
		return Stats{}, err
	}
	toInitial, err := TurnoverInitial(r.Trades, r.InitialValue)
	if err != nil {
		return Stats{}, err
	}
	toAvg, err := TurnoverAvgEquity(r.Trades, r.EquityCurve)
	if err != nil {
		return Stats{}, err
	}

	return Stats{
		CAGR:              cagr,
		MaxDrawdown:       dd,
		Volatility:        vol,
		TurnoverInitial:   toInitial,
		TurnoverAvgEquity: toAvg,
		TradeCount:        len(r.Trades),
	}, nil
}

// MaxDrawdown returns the most negative decline from the running peak as a
// fraction of the peak, or 0 if the curve never falls below a prior peak.
func MaxDrawdown(curve []Point) (float64, error) {
	if len(curve) == 0 {
		return 0, core.Errorf(core.ErrInsufficientData, "equity curve is empty")
	}

	peak := curve[0].Value
	var maxDD float64
	for _, p := range curve {
		if p.Value > peak {
			peak = p.Value
		}
		if dd := (p.Value - peak) / peak; dd < maxDD {
			maxDD = dd
		}
	}
	return maxDD, nil
}

// CAGR annualizes the total return over the calendar days spanned by the curve.
func CAGR(curve []Point) (float64, error) {
	if len(curve) < 2 {
		return 0, core.Errorf(core.ErrInsufficientData, "equity curve needs at least two points")
	}
	first, last := curve[0], curve[len(curve)-1]
	days := last.Date.DaysSince(first.Date)
	if days <= 0 {
		return 0, core.Errorf(core.ErrInvalidInput, "equity curve spans %d days", days)
	}
	years := float64(days) / daysPerYear
	return math.Pow(last.Value/first.Value, 1.0/years) - 1.0, nil
}

// Volatility returns the population standard deviation of simple
// period-over-period returns, annualized with sqrt(252).
func Volatility(curve []Point) (float64, error) {
	if len(curve) < 2 {
		return 0, core.Errorf(core.ErrInsufficientData, "equity curve needs at least two points")
	}

	returns := make([]float64, 0, len(curve)-1)
	var sum float64
	for i := 1; i < len(curve); i++ {
		r := curve[i].Value/curve[i-1].Value - 1.0
		returns = append(returns, r)
		sum += r
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns))

	return math.Sqrt(variance) * math.Sqrt(tradingDaysYear), nil
}

// TurnoverInitial is total traded notional over the initial portfolio value.
func TurnoverInitial(trades []Trade, initialValue float64) (float64, error) {
	if initialValue <= 0 {
		return 0, core.Errorf(core.ErrInvalidInput, "initial value must be positive, got %g", initialValue)
	}
	return totalNotional(trades) / initialValue, nil
}

// TurnoverAvgEquity is total traded notional over the mean equity value.
func TurnoverAvgEquity(trades []Trade, curve []Point) (float64, error) {
	if len(curve) == 0 {
		return 0, core.Errorf(core.ErrInsufficientData, "equity curve is empty")
	}
	var sum float64
	for _, p := range curve {
		sum += p.Value
	}
	return totalNotional(trades) / (sum / float64(len(curve))), nil
}

func totalNotional(trades []Trade) float64 {
	var total float64
	for _, t := range trades {
		total += t.Notional()
	}
	return total
}
