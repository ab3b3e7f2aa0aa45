// Package qa runs data-quality checks on aligned price history. Findings are
// returned as warnings; only an empty series is an error.
package qa

import (
	"fmt"
	"time"

	"github.com/newthinker/sentinel/internal/core"
)

// MaxMissingRatio is the share of weekdays that may be absent from the
// calendar before a warning is raised. Exchange holidays count as missing.
const MaxMissingRatio = 0.06

// CheckNonEmpty fails when prices has no observations.
func CheckNonEmpty(asset core.Asset, prices core.PriceSeries) error {
	if len(prices) == 0 {
		return core.Errorf(core.ErrNoData, "%s prices are empty", asset)
	}
	return nil
}

// CheckNonPositive warns when any close is zero or negative.
func CheckNonPositive(asset core.Asset, prices core.PriceSeries) []string {
	for _, v := range prices {
		if v <= 0 {
			return []string{fmt.Sprintf("%s has non-positive prices", asset)}
		}
	}
	return nil
}

// CheckMonotonic warns when days is not strictly increasing.
func CheckMonotonic(days []core.Date) []string {
	for i := 1; i < len(days); i++ {
		if !days[i].After(days[i-1]) {
			return []string{"trading_days are not strictly increasing"}
		}
	}
	return nil
}

// CheckMissingRatio compares the calendar against every weekday between its
// first and last day.
func CheckMissingRatio(days []core.Date) []string {
	if len(days) == 0 {
		return nil
	}
	start, end := days[0], days[0]
	for _, d := range days[1:] {
		if d.Before(start) {
			start = d
		}
		if d.After(end) {
			end = d
		}
	}

	expected := 0
	for d := start; !d.After(end); d = d.AddDays(1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			expected++
		}
	}
	if expected == 0 {
		return nil
	}

	observed := len(days)
	ratio := float64(expected-observed) / float64(expected)
	if ratio <= MaxMissingRatio {
		return nil
	}
	return []string{fmt.Sprintf(
		"trading_days missing ratio (heuristic, includes holidays) %.2f%% exceeds 6%% (observed %d, expected %d)",
		ratio*100, observed, expected,
	)}
}

// RunAll checks the risk then the safe series, then the shared calendar.
func RunAll(pair core.AssetPair, prices map[core.Asset]core.PriceSeries, days []core.Date) ([]string, error) {
	var warnings []string
	for _, asset := range []core.Asset{pair.Risk, pair.Safe} {
		series := prices[asset]
		if err := CheckNonEmpty(asset, series); err != nil {
			return nil, err
		}
		warnings = append(warnings, CheckNonPositive(asset, series)...)
	}
	warnings = append(warnings, CheckMonotonic(days)...)
	warnings = append(warnings, CheckMissingRatio(days)...)
	return warnings, nil
}
