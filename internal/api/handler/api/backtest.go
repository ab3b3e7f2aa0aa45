// internal/api/handler/api/backtest.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/newthinker/sentinel/internal/api/job"
	"github.com/newthinker/sentinel/internal/api/response"
	"github.com/newthinker/sentinel/internal/core"
	"github.com/newthinker/sentinel/internal/research"
)

// Job types.
const (
	JobBacktest = "backtest"
	JobResearch = "research"
)

// Runner is the pipeline the handlers start jobs against.
type Runner interface {
	RunSingle(ctx context.Context, window int, costBps float64, refresh bool) (*research.VariantResult, error)
	Research(ctx context.Context, windows []int, costBps float64, refresh bool) (*research.Comparison, string, error)
}

// Defaults fill request fields the client leaves out.
type Defaults struct {
	Window  int
	Windows []int
	CostBps float64
}

// BacktestRequest is the request body for starting a backtest.
type BacktestRequest struct {
	Window  *int     `json:"window,omitempty"`
	CostBps *float64 `json:"cost_bps,omitempty"`
	Refresh bool     `json:"refresh"`
}

// BacktestHandler handles backtest API requests.
type BacktestHandler struct {
	jobs     *job.Runner
	runner   Runner
	defaults Defaults
}

// NewBacktestHandler creates a new backtest handler.
func NewBacktestHandler(jobs *job.Runner, runner Runner, defaults Defaults) *BacktestHandler {
	return &BacktestHandler{
		jobs:     jobs,
		runner:   runner,
		defaults: defaults,
	}
}

// Create starts a new single-window backtest job.
func (h *BacktestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req BacktestRequest
	if err := decode(r, &req); err != nil {
		response.Fail(w, err)
		return
	}

	window := h.defaults.Window
	if req.Window != nil {
		window = *req.Window
	}
	if window <= 0 {
		response.Fail(w, core.Errorf(core.ErrInvalidWindow, "got %d", window))
		return
	}
	costBps, err := h.costBps(req.CostBps)
	if err != nil {
		response.Fail(w, err)
		return
	}

	refresh := req.Refresh
	j := h.jobs.Submit(JobBacktest, func(ctx context.Context) (any, error) {
		return h.runner.RunSingle(ctx, window, costBps, refresh)
	})

	accepted(w, j)
}

func (h *BacktestHandler) costBps(v *float64) (float64, error) {
	return costOrDefault(v, h.defaults.CostBps)
}

func costOrDefault(v *float64, def float64) (float64, error) {
	if v == nil {
		return def, nil
	}
	if *v < 0 {
		return 0, core.Errorf(core.ErrInvalidInput, "cost_bps must be non-negative, got %g", *v)
	}
	return *v, nil
}

// decode reads an optional JSON body into dst. An empty body keeps defaults.
func decode(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return core.WrapError(core.ErrInvalidInput, err)
}

func accepted(w http.ResponseWriter, j *job.Job) {
	response.JSON(w, http.StatusAccepted, map[string]any{
		"job_id": j.ID,
		"type":   j.Type,
		"status": j.Status,
	})
}
