// Package agent drives an LLM through a research workflow. The model answers
// every turn with a JSON object that either requests tool calls or carries
// the final markdown report.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/newthinker/sentinel/internal/core"
	"github.com/newthinker/sentinel/internal/llm"
	"github.com/newthinker/sentinel/internal/metrics"
	"github.com/newthinker/sentinel/internal/report"
)

// DefaultMaxTurns bounds the number of tool rounds.
const DefaultMaxTurns = 8

const maxTokens = 4096

const systemPrompt = `You are a Research Agent for a SPY/BIL trend-following backtester.
You must call compare_variants for windows [%s] with cost_bps %s and summarize results.

Tools:
- real_backtest {"sma_window": int >= 1, "cost_bps": number >= 0, "refresh": bool}
  Run a real backtest for a single SMA window.
- compare_variants {"windows": [int >= 1, ...], "cost_bps": number >= 0, "refresh": bool}
  Compare multiple SMA windows and return a robustness verdict.

Reply with exactly one JSON object per turn:
- to call tools: {"calls": [{"name": "<tool>", "arguments": {...}}]}
- to finish: {"report": "<markdown>"}
Tool outputs arrive in the next user message.

The report must include:
- A table with window, final_value, cagr, max_drawdown, volatility, turnover_initial, turnover_avg_equity, trade_count.
- A robustness statement using the provided heuristic.
- Any qa_warnings from each run.
Write the report content only; do not fabricate numbers.`

// ToolCall is one tool invocation requested by the model.
type ToolCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// step is the model's reply for one turn.
type step struct {
	Calls  []ToolCall `json:"calls"`
	Report string     `json:"report"`
}

// Config parameterizes a research run.
type Config struct {
	Windows  []int
	CostBps  float64
	Refresh  bool // default for tool calls that omit refresh
	MaxTurns int
}

// Result describes a finished agent run.
type Result struct {
	RunID      string
	ReportPath string
	Report     string
	Turns      int
	ToolCalls  int
	Usage      llm.Usage
}

// Agent runs the tool loop.
type Agent struct {
	provider llm.Provider
	tools    Backtester
	reports  *report.Writer
	logger   *zap.Logger
	metrics  *metrics.Registry
}

// New creates an agent. logger and m may be nil.
func New(provider llm.Provider, tools Backtester, reports *report.Writer, logger *zap.Logger, m *metrics.Registry) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{
		provider: provider,
		tools:    tools,
		reports:  reports,
		logger:   logger,
		metrics:  m,
	}
}

// Run executes the research workflow and stores agent_research_report.md.
func (a *Agent) Run(ctx context.Context, cfg Config) (*Result, error) {
	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	res := &Result{RunID: uuid.NewString()}
	log := a.logger.With(zap.String("run_id", res.RunID), zap.String("provider", a.provider.Name()))

	req := llm.ChatRequest{
		SystemPrompt: buildPrompt(cfg),
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: "Run the research workflow now."}},
		MaxTokens:    maxTokens,
		JSONMode:     true,
	}

	for turn := 0; turn <= maxTurns; turn++ {
		resp, err := a.provider.Chat(ctx, req)
		if err != nil {
			return nil, err
		}
		res.Turns++
		res.Usage.Add(resp.Usage)

		var s step
		if err := json.Unmarshal([]byte(resp.Content), &s); err != nil {
			return nil, core.Errorf(core.ErrAgentFailed, "model reply is not a JSON step: %w", err)
		}

		if len(s.Calls) == 0 {
			if strings.TrimSpace(s.Report) == "" {
				return nil, core.Errorf(core.ErrAgentFailed, "no report text in response")
			}
			res.Report = strings.TrimSpace(s.Report)
			path, err := a.reports.Write(ctx, report.AgentResearchName, res.Report+"\n")
			if err != nil {
				return nil, err
			}
			res.ReportPath = path
			log.Info("agent research complete",
				zap.Int("turns", res.Turns),
				zap.Int("tool_calls", res.ToolCalls),
				zap.Int("input_tokens", res.Usage.InputTokens),
				zap.Int("output_tokens", res.Usage.OutputTokens),
			)
			return res, nil
		}

		if turn == maxTurns {
			break
		}

		outputs := make([]string, 0, len(s.Calls))
		for _, call := range s.Calls {
			log.Info("tool call", zap.String("tool", call.Name), zap.ByteString("arguments", call.Arguments))
			out, err := invoke(ctx, a.tools, call, cfg.Refresh)
			a.recordCall(call.Name, err)
			if err != nil {
				return nil, fmt.Errorf("tool %s: %w", call.Name, err)
			}
			res.ToolCalls++
			outputs = append(outputs, fmt.Sprintf("Output of %s:\n%s", call.Name, out))
		}

		req.Messages = append(req.Messages,
			llm.Message{Role: llm.RoleAssistant, Content: resp.Content},
			llm.Message{Role: llm.RoleUser, Content: strings.Join(outputs, "\n\n")},
		)
	}

	return nil, core.Errorf(core.ErrAgentFailed,
		"tool loop did not complete after %d rounds without a final report", maxTurns)
}

func (a *Agent) recordCall(tool string, err error) {
	if a.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	a.metrics.RecordToolCall(tool, status)
}

func buildPrompt(cfg Config) string {
	windows := make([]string, len(cfg.Windows))
	for i, w := range cfg.Windows {
		windows[i] = fmt.Sprint(w)
	}
	return fmt.Sprintf(systemPrompt, strings.Join(windows, ", "), fmt.Sprint(cfg.CostBps))
}
