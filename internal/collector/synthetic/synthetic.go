// Package synthetic provides a deterministic price source for demo runs and
// tests: the risk asset stays flat, then trends up, while the safe asset
// accrues a small daily gain.
package synthetic

import (
	"context"
	"time"

	"github.com/newthinker/sentinel/internal/calendar"
	"github.com/newthinker/sentinel/internal/core"
)

const (
	// DemoDays is the number of generated weekdays.
	DemoDays = 756
	// FlatDays is how long the risk asset stays at its base price.
	FlatDays = 260

	basePrice = 100.0
	riskSlope = 1.5
	safeSlope = 0.05
)

// DemoStart is the first generated trading day.
var DemoStart = core.NewDate(2021, time.January, 4)

// Source generates closes for one asset pair.
type Source struct {
	pair core.AssetPair
	days []core.Date
}

// New returns a demo source for pair over DemoDays weekdays from DemoStart.
func New(pair core.AssetPair) *Source {
	return NewWithCalendar(pair, calendar.Weekdays(DemoStart, DemoDays))
}

// NewWithCalendar returns a source over the given trading days.
func NewWithCalendar(pair core.AssetPair, days []core.Date) *Source {
	return &Source{pair: pair, days: days}
}

func (s *Source) Name() string {
	return "synthetic"
}

// Days returns the generated calendar.
func (s *Source) Days() []core.Date {
	return s.days
}

// FetchCloses implements collector.PriceSource. refresh has no effect.
func (s *Source) FetchCloses(ctx context.Context, symbol string, refresh bool) (core.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch core.Asset(symbol) {
	case s.pair.Risk:
		return s.risk(), nil
	case s.pair.Safe:
		return s.safe(), nil
	default:
		return nil, core.Errorf(core.ErrSymbolNotFound, "synthetic source has no series for %s", symbol)
	}
}

func (s *Source) risk() core.PriceSeries {
	series := make(core.PriceSeries, len(s.days))
	for idx, d := range s.days {
		if idx < FlatDays {
			series[d] = basePrice
		} else {
			series[d] = basePrice + float64(idx-FlatDays+1)*riskSlope
		}
	}
	return series
}

func (s *Source) safe() core.PriceSeries {
	series := make(core.PriceSeries, len(s.days))
	for idx, d := range s.days {
		series[d] = basePrice + float64(idx)*safeSlope
	}
	return series
}
