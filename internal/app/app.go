package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/newthinker/sentinel/internal/config"
	"github.com/newthinker/sentinel/internal/core"
	"github.com/newthinker/sentinel/internal/notifier"
	"github.com/newthinker/sentinel/internal/research"
)

// Researcher runs a window comparison and writes the research report.
type Researcher interface {
	Research(ctx context.Context, windows []int, costBps float64, refresh bool) (*research.Comparison, string, error)
}

// App runs research comparisons on a cron schedule.
type App struct {
	cfg        *config.Config
	logger     *zap.Logger
	researcher Researcher
	notifiers  []notifier.Notifier
	cron       *cron.Cron

	mu         sync.RWMutex
	running    bool
	cancel     context.CancelFunc
	runs       int
	failures   int
	lastRun    time.Time
	lastReport string
	lastRobust bool
}

// New creates a new App instance
func New(cfg *config.Config, researcher Researcher, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	cl := cronLogger{logger.Sugar()}
	return &App{
		cfg:        cfg,
		logger:     logger,
		researcher: researcher,
		cron:       cron.New(cron.WithLogger(cl), cron.WithChain(cron.SkipIfStillRunning(cl))),
	}
}

// AddNotifier adds a receiver for verdicts of successful runs.
func (a *App) AddNotifier(n notifier.Notifier) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.notifiers = append(a.notifiers, n)
}

// Start registers the research job and blocks until ctx is cancelled or
// Stop is called. An in-flight run finishes before Start returns.
func (a *App) Start(ctx context.Context) error {
	schedule := a.cfg.Research.Schedule
	if schedule == "" {
		return core.Errorf(core.ErrConfigMissing, "research.schedule is empty")
	}

	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("app already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	if _, err := a.cron.AddFunc(schedule, func() { a.RunOnce(ctx) }); err != nil {
		a.mu.Unlock()
		cancel()
		return core.Errorf(core.ErrConfigInvalid, "research.schedule %q: %v", schedule, err)
	}
	a.running = true
	a.cancel = cancel
	a.mu.Unlock()

	a.logger.Info("SENTINEL scheduler starting",
		zap.String("schedule", schedule),
		zap.Ints("windows", a.cfg.Research.Windows),
		zap.Float64("cost_bps", a.cfg.Backtest.CostBps),
	)
	a.cron.Start()

	<-ctx.Done()
	a.logger.Info("SENTINEL scheduler shutting down")
	<-a.cron.Stop().Done()

	a.mu.Lock()
	a.running = false
	a.mu.Unlock()
	return ctx.Err()
}

// Stop stops the scheduler
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
	}
}

// RunOnce runs a single research comparison with fresh prices.
func (a *App) RunOnce(ctx context.Context) (*research.Comparison, string, error) {
	start := time.Now()
	c, path, err := a.researcher.Research(ctx, a.cfg.Research.Windows, a.cfg.Backtest.CostBps, true)

	a.mu.Lock()
	a.runs++
	a.lastRun = start
	if err != nil {
		a.failures++
		a.mu.Unlock()
		a.logger.Error("scheduled research failed", zap.Error(err))
		return nil, "", err
	}
	a.lastReport = path
	a.lastRobust = c.Robust
	notifiers := append([]notifier.Notifier(nil), a.notifiers...)
	a.mu.Unlock()

	a.logger.Info("scheduled research complete",
		zap.Bool("robust", c.Robust),
		zap.String("report", path),
		zap.Duration("elapsed", time.Since(start)),
	)

	v := verdictOf(c, a.cfg.Backtest.CostBps, path, start)
	for _, n := range notifiers {
		if err := n.Notify(ctx, v); err != nil {
			a.logger.Warn("notify failed", zap.String("notifier", n.Name()), zap.Error(err))
		}
	}
	return c, path, nil
}

func verdictOf(c *research.Comparison, costBps float64, path string, at time.Time) notifier.Verdict {
	variants := make([]notifier.Variant, len(c.Results))
	for i, r := range c.Results {
		variants[i] = notifier.Variant{
			Window:      r.Window,
			CAGR:        r.Stats.CAGR,
			MaxDrawdown: r.Stats.MaxDrawdown,
			Trades:      r.Stats.TradeCount,
		}
	}
	return notifier.Verdict{
		Robust:      c.Robust,
		Reasons:     c.Reasons,
		CostBps:     costBps,
		Variants:    variants,
		ReportPath:  path,
		GeneratedAt: at.UTC(),
	}
}

// GetStats returns scheduler statistics
func (a *App) GetStats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return map[string]any{
		"running":     a.running,
		"schedule":    a.cfg.Research.Schedule,
		"runs":        a.runs,
		"failures":    a.failures,
		"last_run":    a.lastRun,
		"last_report": a.lastReport,
		"last_robust": a.lastRobust,
	}
}

// cronLogger routes cron's logging through zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
