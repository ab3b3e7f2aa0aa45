package backtest

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/newthinker/sentinel/internal/core"
)

func curveOf(start core.Date, values ...float64) []Point {
	curve := make([]Point, len(values))
	for i, v := range values {
		curve[i] = Point{Date: start.AddDays(i), Value: v}
	}
	return curve
}

func TestMaxDrawdown(t *testing.T) {
	curve := curveOf(core.NewDate(2023, time.January, 2), 100, 120, 90, 110)

	got, err := MaxDrawdown(curve)
	if err != nil {
		t.Fatalf("MaxDrawdown() error = %v", err)
	}
	if got != -0.25 {
		t.Errorf("MaxDrawdown() = %v, want -0.25", got)
	}
}

func TestMaxDrawdown_NeverBelowPeak(t *testing.T) {
	got, err := MaxDrawdown(curveOf(core.NewDate(2023, time.January, 2), 100, 100, 101, 105))
	if err != nil {
		t.Fatalf("MaxDrawdown() error = %v", err)
	}
	if got != 0 {
		t.Errorf("MaxDrawdown() = %v, want 0", got)
	}
}

func TestMaxDrawdown_Empty(t *testing.T) {
	if _, err := MaxDrawdown(nil); !errors.Is(err, core.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestCAGR_DoublingOverOneYear(t *testing.T) {
	curve := []Point{
		{Date: core.NewDate(2021, time.January, 1), Value: 100},
		{Date: core.NewDate(2022, time.January, 1), Value: 200},
	}

	got, err := CAGR(curve)
	if err != nil {
		t.Fatalf("CAGR() error = %v", err)
	}
	want := math.Pow(2, 365.25/365.0) - 1
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("CAGR() = %v, want %v", got, want)
	}
}

func TestCAGR_Errors(t *testing.T) {
	d := core.NewDate(2023, time.January, 2)

	if _, err := CAGR([]Point{{Date: d, Value: 100}}); !errors.Is(err, core.ErrInsufficientData) {
		t.Errorf("single point: expected ErrInsufficientData, got %v", err)
	}
	if _, err := CAGR([]Point{{Date: d, Value: 100}, {Date: d, Value: 110}}); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("zero span: expected ErrInvalidInput, got %v", err)
	}
}

func TestVolatility_ConstantReturns(t *testing.T) {
	curve := curveOf(core.NewDate(2023, time.January, 2), 100, 101, 102.01, 103.0301)

	got, err := Volatility(curve)
	if err != nil {
		t.Fatalf("Volatility() error = %v", err)
	}
	if math.Abs(got) > 1e-10 {
		t.Errorf("Volatility() = %v, want 0", got)
	}
}

func TestVolatility_SingleFlatReturnIsExactlyZero(t *testing.T) {
	got, err := Volatility(curveOf(core.NewDate(2023, time.January, 2), 100, 100))
	if err != nil {
		t.Fatalf("Volatility() error = %v", err)
	}
	if got != 0 {
		t.Errorf("Volatility() = %v, want 0", got)
	}
}

func TestVolatility_PopulationStdDev(t *testing.T) {
	// Returns +10% and -10%: mean 0, population std 0.1.
	got, err := Volatility(curveOf(core.NewDate(2023, time.January, 2), 100, 110, 99))
	if err != nil {
		t.Fatalf("Volatility() error = %v", err)
	}
	want := 0.1 * math.Sqrt(252)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Volatility() = %v, want %v", got, want)
	}
}

func TestVolatility_TooShort(t *testing.T) {
	if _, err := Volatility(curveOf(core.NewDate(2023, time.January, 2), 100)); !errors.Is(err, core.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestTurnover(t *testing.T) {
	trades := []Trade{{PreValue: 100}, {PreValue: 50}}

	got, err := TurnoverInitial(trades, 100)
	if err != nil {
		t.Fatalf("TurnoverInitial() error = %v", err)
	}
	// (2*100 + 2*50) / 100
	if got != 3 {
		t.Errorf("TurnoverInitial() = %v, want 3", got)
	}

	curve := curveOf(core.NewDate(2023, time.January, 2), 100, 200, 300)
	got, err = TurnoverAvgEquity(trades, curve)
	if err != nil {
		t.Fatalf("TurnoverAvgEquity() error = %v", err)
	}
	// 300 / mean(100, 200, 300)
	if got != 1.5 {
		t.Errorf("TurnoverAvgEquity() = %v, want 1.5", got)
	}
}

func TestTurnover_Errors(t *testing.T) {
	if _, err := TurnoverInitial(nil, 0); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := TurnoverAvgEquity(nil, nil); !errors.Is(err, core.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestComputeStats(t *testing.T) {
	r := &Result{
		InitialValue: 100,
		EquityCurve:  curveOf(core.NewDate(2023, time.January, 2), 100, 120, 90, 110),
		Trades:       []Trade{{PreValue: 120}},
	}

	stats, err := ComputeStats(r)
	if err != nil {
		t.Fatalf("ComputeStats() error = %v", err)
	}
	if stats.MaxDrawdown != -0.25 {
		t.Errorf("MaxDrawdown = %v, want -0.25", stats.MaxDrawdown)
	}
	if stats.TradeCount != 1 {
		t.Errorf("TradeCount = %d, want 1", stats.TradeCount)
	}
	if math.Abs(stats.TurnoverInitial-2.4) > 1e-12 {
		t.Errorf("TurnoverInitial = %v, want 2.4", stats.TurnoverInitial)
	}
	if stats.CAGR <= 0 || stats.Volatility <= 0 {
		t.Errorf("expected positive CAGR and volatility, got %+v", stats)
	}
}
