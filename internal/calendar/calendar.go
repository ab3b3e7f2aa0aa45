// Package calendar derives and aligns trading-day calendars from price series.
package calendar

import (
	"slices"
	"time"

	"github.com/newthinker/sentinel/internal/core"
)

// TradingDaysFrom returns the sorted distinct dates that have a price.
func TradingDaysFrom(prices core.PriceSeries) []core.Date {
	days := make([]core.Date, 0, len(prices))
	for d := range prices {
		days = append(days, d)
	}
	slices.SortFunc(days, core.Date.Compare)
	return days
}

// Intersect returns the sorted set intersection of two calendars.
func Intersect(a, b []core.Date) []core.Date {
	inB := make(map[core.Date]struct{}, len(b))
	for _, d := range b {
		inB[d] = struct{}{}
	}

	seen := make(map[core.Date]struct{}, len(a))
	out := make([]core.Date, 0, min(len(a), len(b)))
	for _, d := range a {
		if _, ok := inB[d]; !ok {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	slices.SortFunc(out, core.Date.Compare)
	return out
}

// Restrict returns the sub-series of prices for exactly the given days.
func Restrict(asset core.Asset, prices core.PriceSeries, days []core.Date) (core.PriceSeries, error) {
	out := make(core.PriceSeries, len(days))
	for _, d := range days {
		v, err := prices.Close(asset, d)
		if err != nil {
			return nil, err
		}
		out[d] = v
	}
	return out, nil
}

// Aligned holds two series restricted to their common calendar.
type Aligned struct {
	Days []core.Date
	Risk core.PriceSeries
	Safe core.PriceSeries
}

// Align intersects the calendars of the risk and safe series and drops every
// date that only one of them has.
func Align(pair core.AssetPair, risk, safe core.PriceSeries) (*Aligned, error) {
	days := Intersect(TradingDaysFrom(risk), TradingDaysFrom(safe))
	if len(days) == 0 {
		return nil, core.Errorf(core.ErrInsufficientData,
			"%s and %s share no trading days", pair.Risk, pair.Safe)
	}

	r, err := Restrict(pair.Risk, risk, days)
	if err != nil {
		return nil, err
	}
	s, err := Restrict(pair.Safe, safe, days)
	if err != nil {
		return nil, err
	}
	return &Aligned{Days: days, Risk: r, Safe: s}, nil
}

// Weekdays returns the first count Monday-Friday dates on or after start.
func Weekdays(start core.Date, count int) []core.Date {
	days := make([]core.Date, 0, max(count, 0))
	for d := start; len(days) < count; d = d.AddDays(1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			days = append(days, d)
		}
	}
	return days
}
