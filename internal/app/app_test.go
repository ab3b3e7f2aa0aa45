package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/sentinel/internal/config"
	"github.com/newthinker/sentinel/internal/core"
	"github.com/newthinker/sentinel/internal/notifier"
	"github.com/newthinker/sentinel/internal/research"
)

type mockResearcher struct {
	mu      sync.Mutex
	calls   int
	windows []int
	costBps float64
	refresh bool
	err     error
}

func (m *mockResearcher) Research(ctx context.Context, windows []int, costBps float64, refresh bool) (*research.Comparison, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.windows = windows
	m.costBps = costBps
	m.refresh = refresh
	if m.err != nil {
		return nil, "", m.err
	}
	results := make([]research.VariantResult, len(windows))
	for i, w := range windows {
		results[i] = research.VariantResult{Window: w}
	}
	return research.Judge(results), "runs/research_report.md", nil
}

func (m *mockResearcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestApp_New(t *testing.T) {
	app := New(config.Defaults(), &mockResearcher{}, nil)
	require.NotNil(t, app)

	stats := app.GetStats()
	assert.False(t, stats["running"].(bool))
	assert.Equal(t, 0, stats["runs"])
}

func TestApp_RunOnce(t *testing.T) {
	cfg := config.Defaults()
	r := &mockResearcher{}
	app := New(cfg, r, nil)

	c, path, err := app.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, c.Robust)
	assert.Equal(t, "runs/research_report.md", path)
	assert.Equal(t, []int{180, 200, 220}, r.windows)
	assert.Equal(t, 5.0, r.costBps)
	assert.True(t, r.refresh, "scheduled runs always refresh prices")

	stats := app.GetStats()
	assert.Equal(t, 1, stats["runs"])
	assert.Equal(t, "runs/research_report.md", stats["last_report"])
}

type mockNotifier struct {
	received []notifier.Verdict
	err      error
}

func (m *mockNotifier) Name() string { return "mock" }

func (m *mockNotifier) Notify(ctx context.Context, v notifier.Verdict) error {
	m.received = append(m.received, v)
	return m.err
}

func TestApp_RunOnce_Notifies(t *testing.T) {
	app := New(config.Defaults(), &mockResearcher{}, nil)
	failing := &mockNotifier{err: errors.New("unreachable")}
	ok := &mockNotifier{}
	app.AddNotifier(failing)
	app.AddNotifier(ok)

	_, _, err := app.RunOnce(context.Background())
	require.NoError(t, err, "notifier errors must not fail the run")

	require.Len(t, ok.received, 1)
	v := ok.received[0]
	assert.True(t, v.Robust)
	assert.Equal(t, 5.0, v.CostBps)
	assert.Equal(t, "runs/research_report.md", v.ReportPath)
	require.Len(t, v.Variants, 3)
	assert.Equal(t, 180, v.Variants[0].Window)
	assert.Len(t, failing.received, 1)
}

func TestApp_RunOnce_FailureSkipsNotify(t *testing.T) {
	app := New(config.Defaults(), &mockResearcher{err: core.ErrNoData}, nil)
	n := &mockNotifier{}
	app.AddNotifier(n)

	_, _, err := app.RunOnce(context.Background())
	assert.Error(t, err)
	assert.Empty(t, n.received)
}

func TestApp_RunOnce_Failure(t *testing.T) {
	r := &mockResearcher{err: core.Errorf(core.ErrCollectorFailed, "stooq down")}
	app := New(config.Defaults(), r, nil)

	_, _, err := app.RunOnce(context.Background())
	assert.True(t, errors.Is(err, core.ErrCollectorFailed))
	assert.Equal(t, 1, app.GetStats()["failures"])
}

func TestApp_Start_EmptySchedule(t *testing.T) {
	cfg := config.Defaults()
	cfg.Research.Schedule = ""
	app := New(cfg, &mockResearcher{}, nil)

	err := app.Start(context.Background())
	assert.True(t, errors.Is(err, core.ErrConfigMissing))
}

func TestApp_Start_InvalidSchedule(t *testing.T) {
	cfg := config.Defaults()
	cfg.Research.Schedule = "not a cron spec"
	app := New(cfg, &mockResearcher{}, nil)

	err := app.Start(context.Background())
	assert.True(t, errors.Is(err, core.ErrConfigInvalid))
	assert.False(t, app.GetStats()["running"].(bool))
}

func TestApp_Start_RunsOnSchedule(t *testing.T) {
	cfg := config.Defaults()
	cfg.Research.Schedule = "@every 1s"
	r := &mockResearcher{}
	app := New(cfg, r, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2500*time.Millisecond)
	defer cancel()

	err := app.Start(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, r.Calls(), 1)
	assert.False(t, app.GetStats()["running"].(bool))
}

func TestApp_Stop(t *testing.T) {
	cfg := config.Defaults()
	cfg.Research.Schedule = "@daily"
	app := New(cfg, &mockResearcher{}, nil)

	done := make(chan error, 1)
	go func() { done <- app.Start(context.Background()) }()

	require.Eventually(t, func() bool {
		return app.GetStats()["running"].(bool)
	}, time.Second, 5*time.Millisecond)

	app.Stop()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Start did not return after Stop")
	}
}
