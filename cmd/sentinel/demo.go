package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/newthinker/sentinel/internal/logger"
	"github.com/newthinker/sentinel/internal/report"
)

const (
	demoWindow  = 200
	demoCostBps = 5.0
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the backtest on synthetic prices",
	Long:  "Run the trend backtest offline on a synthetic three-year calendar and write demo_decision_record.md",
	RunE:  runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

func runDemo(cmd *cobra.Command, args []string) error {
	log, err := logger.NewCLI(debug)
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	p, err := newPipeline(cfg, "synthetic", log, nil)
	if err != nil {
		return err
	}

	res, err := p.runner.RunRecord(cmd.Context(), report.DemoRecordName, demoWindow, demoCostBps, false)
	if err != nil {
		return fmt.Errorf("demo run: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "sentinel: demo run complete")
	printHeadline(out, res)
	fmt.Fprintf(out, "Number of trades: %d\n", res.Stats.TradeCount)
	fmt.Fprintf(out, "Decision record: %s\n", res.DecisionRecordPath)
	return nil
}
