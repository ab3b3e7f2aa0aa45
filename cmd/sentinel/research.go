package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/newthinker/sentinel/internal/logger"
	"github.com/newthinker/sentinel/internal/report"
)

var (
	researchWindows []int
	researchCostBps float64
	researchRefresh bool
)

var researchCmd = &cobra.Command{
	Use:   "research",
	Short: "Compare neighbouring SMA windows",
	Long:  "Run the real backtest for each window, judge robustness and write research_report.md",
	RunE:  runResearch,
}

func init() {
	researchCmd.Flags().IntSliceVar(&researchWindows, "windows", nil, "SMA windows to compare (default from config)")
	researchCmd.Flags().Float64Var(&researchCostBps, "cost-bps", -1, "cost in bps per side (default from config)")
	researchCmd.Flags().BoolVar(&researchRefresh, "refresh", false, "ignore cached prices and download again")

	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	log, err := logger.NewCLI(debug)
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	windows := cfg.Research.Windows
	if len(researchWindows) > 0 {
		windows = researchWindows
	}
	costBps := cfg.Backtest.CostBps
	if researchCostBps >= 0 {
		costBps = researchCostBps
	}

	p, err := newPipeline(cfg, cfg.Data.Source, log, nil)
	if err != nil {
		return err
	}

	c, path, err := p.runner.Research(cmd.Context(), windows, costBps, researchRefresh)
	if err != nil {
		return fmt.Errorf("research: %w", err)
	}

	out := cmd.OutOrStdout()
	printComparison(out, c)
	fmt.Fprintf(out, "Research report: %s\n", path)
	fmt.Fprintf(out, "Verdict: %s\n", report.Verdict(c.Robust))
	return nil
}
