package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/newthinker/sentinel/internal/report"
	"github.com/newthinker/sentinel/internal/research"
)

func printHeadline(w io.Writer, v *research.VariantResult) {
	if v.Rule != "" {
		fmt.Fprintf(w, "Rule: %s\n", v.Rule)
	}
	fmt.Fprintf(w, "Final value: %s\n", report.Money(v.FinalValue))
	fmt.Fprintf(w, "CAGR: %.4f | Max Drawdown: %.4f | Volatility: %.4f\n",
		v.Stats.CAGR, v.Stats.MaxDrawdown, v.Stats.Volatility)
}

func printTurnover(w io.Writer, v *research.VariantResult) {
	fmt.Fprintf(w, "Turnover (initial): %.4f\n", v.Stats.TurnoverInitial)
	fmt.Fprintf(w, "Turnover (avg equity): %.4f\n", v.Stats.TurnoverAvgEquity)
	fmt.Fprintf(w, "Number of trades: %d\n", v.Stats.TradeCount)
}

func printQA(w io.Writer, warnings []string) {
	for _, warning := range warnings {
		fmt.Fprintf(w, "QA: %s\n", warning)
	}
}

// printComparison renders one row per window.
func printComparison(w io.Writer, c *research.Comparison) {
	table := tablewriter.NewWriter(w)
	table.Header("Window", "Date range", "Final value", "CAGR", "Max DD", "Vol", "Trades")
	for _, r := range c.Results {
		table.Append(
			strconv.Itoa(r.Window),
			r.DateRange(),
			report.Money(r.FinalValue),
			fmt.Sprintf("%.4f", r.Stats.CAGR),
			fmt.Sprintf("%.4f", r.Stats.MaxDrawdown),
			fmt.Sprintf("%.4f", r.Stats.Volatility),
			strconv.Itoa(r.Stats.TradeCount),
		)
	}
	table.Render()

	fmt.Fprintf(w, "CAGR range: %.4f | Max drawdown range: %.4f\n", c.CAGRRange, c.DrawdownRange)
	for _, reason := range c.Reasons {
		fmt.Fprintf(w, "Reason: %s\n", reason)
	}
}
