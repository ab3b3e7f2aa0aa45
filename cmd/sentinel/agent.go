package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/sentinel/internal/agent"
	"github.com/newthinker/sentinel/internal/llm/factory"
	"github.com/newthinker/sentinel/internal/logger"
)

var (
	agentCostBps  float64
	agentRefresh  bool
	agentProvider string
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Let an LLM drive the window research",
	Long:  "Run the research workflow through an LLM that calls the real_backtest and compare_variants tools, then write agent_research_report.md",
	RunE:  runAgent,
}

func init() {
	agentCmd.Flags().Float64Var(&agentCostBps, "cost-bps", -1, "cost in bps per side (default from config)")
	agentCmd.Flags().BoolVar(&agentRefresh, "refresh", false, "default refresh for tool calls that omit it")
	agentCmd.Flags().StringVar(&agentProvider, "provider", "", "LLM provider: claude or openai (default from config)")

	rootCmd.AddCommand(agentCmd)
}

func runAgent(cmd *cobra.Command, args []string) error {
	log, err := logger.NewCLI(debug)
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if agentProvider != "" {
		cfg.LLM.Provider = agentProvider
	}
	if err := cfg.ValidateLLM(); err != nil {
		return fmt.Errorf("agent research disabled: %w", err)
	}
	costBps := cfg.Backtest.CostBps
	if agentCostBps >= 0 {
		costBps = agentCostBps
	}

	provider, err := factory.New(cfg.LLM)
	if err != nil {
		return err
	}
	p, err := newPipeline(cfg, cfg.Data.Source, log, nil)
	if err != nil {
		return err
	}
	a := agent.New(provider, p.runner, p.reports, log, nil)
	res, err := a.Run(cmd.Context(), agent.Config{
		Windows:  cfg.Research.Windows,
		CostBps:  costBps,
		Refresh:  agentRefresh,
		MaxTurns: cfg.LLM.MaxTurns,
	})
	if err != nil {
		return fmt.Errorf("agent research: %w", err)
	}

	log.Debug("agent usage",
		zap.String("run_id", res.RunID),
		zap.Int("input_tokens", res.Usage.InputTokens),
		zap.Int("output_tokens", res.Usage.OutputTokens),
	)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Agent turns: %d | Tool calls: %d\n", res.Turns, res.ToolCalls)
	fmt.Fprintf(out, "Agent research report: %s\n", res.ReportPath)
	return nil
}
