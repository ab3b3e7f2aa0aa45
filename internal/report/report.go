// Package report renders decision records and research reports as markdown
// and stores them in archive storage.
package report

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/newthinker/sentinel/internal/backtest"
	"github.com/newthinker/sentinel/internal/core"
	"github.com/newthinker/sentinel/internal/storage/archive"
)

// Report file names.
const (
	DemoRecordName    = "demo_decision_record.md"
	RealRecordName    = "real_decision_record.md"
	ResearchName      = "research_report.md"
	AgentResearchName = "agent_research_report.md"
)

// equityTail is how many trailing equity points a decision record lists.
const equityTail = 10

// VariantRecordName is the decision record name for one research window.
func VariantRecordName(window int) string {
	return fmt.Sprintf("real_decision_record_%d.md", window)
}

// RecordConfig describes the run a decision record belongs to.
type RecordConfig struct {
	Pair    core.AssetPair
	Window  int
	Rule    string
	CostBps float64
}

// VariantRow is one line of the research summary.
type VariantRow struct {
	Window     int
	DateRange  string
	FinalValue float64
	Stats      backtest.Stats
	QAWarnings []string
	RecordPath string
}

// ResearchSummary is everything a research report shows.
type ResearchSummary struct {
	CostBps float64
	Robust  bool
	Reasons []string
	Rows    []VariantRow
}

// Money formats v with thousands separators and two decimals.
func Money(v float64) string {
	return humanize.FormatFloat("#,###.##", v)
}

// DateRange formats "start to end".
func DateRange(start, end core.Date) string {
	return start.String() + " to " + end.String()
}

func bps(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// DecisionRecord renders the configuration, summary metrics, trade ledger
// and the last equity points of one backtest.
func DecisionRecord(cfg RecordConfig, r *backtest.Result, s backtest.Stats) string {
	var b strings.Builder
	b.WriteString("# Decision Record\n\n")

	b.WriteString("## Configuration\n")
	fmt.Fprintf(&b, "- Assets: %s, %s\n", cfg.Pair.Risk, cfg.Pair.Safe)
	fmt.Fprintf(&b, "- SMA Window: %d\n", cfg.Window)
	if cfg.Rule != "" {
		fmt.Fprintf(&b, "- Rule: %s\n", cfg.Rule)
	}
	fmt.Fprintf(&b, "- Cost (bps per side): %s\n", bps(cfg.CostBps))
	fmt.Fprintf(&b, "- Date Range: %s\n\n", DateRange(r.StartDate, r.EndDate))

	b.WriteString("## Summary Metrics\n")
	fmt.Fprintf(&b, "- CAGR: %.4f\n", s.CAGR)
	fmt.Fprintf(&b, "- Max Drawdown: %.4f\n", s.MaxDrawdown)
	fmt.Fprintf(&b, "- Volatility: %.4f\n", s.Volatility)
	fmt.Fprintf(&b, "- Final Value: %s\n\n", Money(r.FinalValue))

	b.WriteString("## Trades\n")
	b.WriteString("| Date | From | To | Cost |\n")
	b.WriteString("| --- | --- | --- | --- |\n")
	for _, t := range r.Trades {
		fmt.Fprintf(&b, "| %s | %s | %s | %.2f |\n", t.Date, t.FromAsset, t.ToAsset, t.CostAmount)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Last %d Equity Points\n", equityTail)
	b.WriteString("| Date | Value |\n")
	b.WriteString("| --- | --- |\n")
	for _, p := range r.LastPoints(equityTail) {
		fmt.Fprintf(&b, "| %s | %s |\n", p.Date, Money(p.Value))
	}
	return b.String()
}

// ResearchReport renders the comparison of several windows.
func ResearchReport(s ResearchSummary) string {
	windows := make([]string, len(s.Rows))
	for i, row := range s.Rows {
		windows[i] = strconv.Itoa(row.Window)
	}
	dateRange := "n/a"
	if len(s.Rows) > 0 {
		dateRange = s.Rows[0].DateRange
	}

	var b strings.Builder
	b.WriteString("# Research Report\n\n")

	b.WriteString("## Configuration\n")
	fmt.Fprintf(&b, "- Windows: %s\n", strings.Join(windows, ", "))
	fmt.Fprintf(&b, "- Cost (bps per side): %s\n", bps(s.CostBps))
	fmt.Fprintf(&b, "- Date Range: %s\n\n", dateRange)

	b.WriteString("## Robustness Verdict\n")
	fmt.Fprintf(&b, "- Verdict: %s\n", Verdict(s.Robust))
	if len(s.Reasons) > 0 {
		b.WriteString("- Reasons:\n")
		for _, reason := range s.Reasons {
			fmt.Fprintf(&b, "  - %s\n", reason)
		}
	}
	b.WriteString("\n")

	b.WriteString("## Summary Table\n")
	b.WriteString("| Window | CAGR | Max Drawdown | Volatility | Turnover (Avg Eq) | Trades | Final Value |\n")
	b.WriteString("| --- | --- | --- | --- | --- | --- | --- |\n")
	for _, row := range s.Rows {
		fmt.Fprintf(&b, "| %d | %.4f | %.4f | %.4f | %.4f | %d | %s |\n",
			row.Window, row.Stats.CAGR, row.Stats.MaxDrawdown, row.Stats.Volatility,
			row.Stats.TurnoverAvgEquity, row.Stats.TradeCount, Money(row.FinalValue))
	}
	b.WriteString("\n")

	b.WriteString("## QA Warnings\n")
	for _, row := range s.Rows {
		fmt.Fprintf(&b, "- Window %d:\n", row.Window)
		if len(row.QAWarnings) == 0 {
			b.WriteString("  - None\n")
			continue
		}
		for _, w := range row.QAWarnings {
			fmt.Fprintf(&b, "  - %s\n", w)
		}
	}
	b.WriteString("\n")

	b.WriteString("## Decision Records\n")
	for _, row := range s.Rows {
		fmt.Fprintf(&b, "- Window %d: %s\n", row.Window, row.RecordPath)
	}
	return b.String()
}

// Verdict is the human label for a robustness flag.
func Verdict(robust bool) string {
	if robust {
		return "robust"
	}
	return "not robust"
}

// Writer stores rendered reports.
type Writer struct {
	store archive.Storage
}

// NewWriter creates a report writer over store.
func NewWriter(store archive.Storage) *Writer {
	return &Writer{store: store}
}

// Write stores content under name and returns its location.
func (w *Writer) Write(ctx context.Context, name, content string) (string, error) {
	if err := w.store.Write(ctx, name, []byte(content)); err != nil {
		return "", fmt.Errorf("writing report %s: %w", name, err)
	}
	return w.store.Location(name), nil
}
