package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/newthinker/sentinel/internal/collector/sources"
	"github.com/newthinker/sentinel/internal/logger"
)

var (
	runWindow  int
	runCostBps float64
	runRefresh bool
	runSource  string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the backtest on real market data",
	Long:  "Download (or read cached) daily closes for the configured pair, run one SMA window and write real_decision_record.md",
	RunE:  runReal,
}

func init() {
	runCmd.Flags().IntVar(&runWindow, "window", 0, "SMA window in trading days (default from config)")
	runCmd.Flags().Float64Var(&runCostBps, "cost-bps", -1, "cost in bps per side (default from config)")
	runCmd.Flags().BoolVar(&runRefresh, "refresh", false, "ignore cached prices and download again")
	runCmd.Flags().StringVar(&runSource, "source", "", "price source: stooq, yahoo or synthetic (default from config)")

	rootCmd.AddCommand(runCmd)
}

func runReal(cmd *cobra.Command, args []string) error {
	log, err := logger.NewCLI(debug)
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	window := cfg.Backtest.Window
	if runWindow > 0 {
		window = runWindow
	}
	costBps := cfg.Backtest.CostBps
	if runCostBps >= 0 {
		costBps = runCostBps
	}
	source := cfg.Data.Source
	if runSource != "" {
		source = runSource
	}

	p, err := newPipeline(cfg, source, log, nil)
	if err != nil {
		return err
	}

	res, err := p.runner.RunSingle(cmd.Context(), window, costBps, runRefresh)
	if err != nil {
		return fmt.Errorf("real run: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "sentinel: real run complete")
	fmt.Fprintf(out, "Date range: %s\n", res.DateRange())
	printHeadline(out, res)
	printTurnover(out, res)
	if paths := sources.CachePaths(p.source, p.runner.Pair()); len(paths) > 0 {
		fmt.Fprintf(out, "Cache files: %s\n", strings.Join(paths, ", "))
	}
	printQA(out, res.QAWarnings)
	fmt.Fprintf(out, "Decision record: %s\n", res.DecisionRecordPath)
	return nil
}
