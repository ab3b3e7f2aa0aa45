package trend

import (
	"sort"

	"github.com/newthinker/sentinel/internal/core"
)

// MonthEndSignalDates returns the last trading day of every (year, month) in
// days, which must be sorted. The final day of the series is always included
// even when its month is incomplete.
func MonthEndSignalDates(days []core.Date) []core.Date {
	if len(days) == 0 {
		return []core.Date{}
	}

	var monthEnds []core.Date
	last := days[0]
	for _, d := range days[1:] {
		if !d.SameMonth(last) {
			monthEnds = append(monthEnds, last)
		}
		last = d
	}
	return append(monthEnds, last)
}

// NextTradingDay returns the first day in the sorted calendar strictly after d.
func NextTradingDay(days []core.Date, d core.Date) (core.Date, error) {
	i := sort.Search(len(days), func(i int) bool { return days[i].After(d) })
	if i == len(days) {
		return core.Date{}, core.Errorf(core.ErrNoNextTradingDay, "after %s", d)
	}
	return days[i], nil
}
