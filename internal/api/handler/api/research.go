package api

import (
	"context"
	"net/http"

	"github.com/newthinker/sentinel/internal/api/job"
	"github.com/newthinker/sentinel/internal/api/response"
	"github.com/newthinker/sentinel/internal/core"
	"github.com/newthinker/sentinel/internal/research"
)

// ResearchRequest is the request body for a window comparison.
type ResearchRequest struct {
	Windows []int    `json:"windows,omitempty"`
	CostBps *float64 `json:"cost_bps,omitempty"`
	Refresh bool     `json:"refresh"`
}

// ResearchResult is stored as the job result of a research run.
type ResearchResult struct {
	*research.Comparison
	ReportPath string `json:"report_path"`
}

// ResearchHandler handles window-comparison requests.
type ResearchHandler struct {
	jobs     *job.Runner
	runner   Runner
	defaults Defaults
}

// NewResearchHandler creates a new research handler.
func NewResearchHandler(jobs *job.Runner, runner Runner, defaults Defaults) *ResearchHandler {
	return &ResearchHandler{jobs: jobs, runner: runner, defaults: defaults}
}

// Create starts a research job.
func (h *ResearchHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ResearchRequest
	if err := decode(r, &req); err != nil {
		response.Fail(w, err)
		return
	}

	windows := req.Windows
	if len(windows) == 0 {
		windows = h.defaults.Windows
	}
	if len(windows) == 0 {
		response.Fail(w, core.Errorf(core.ErrInvalidInput, "windows must not be empty"))
		return
	}
	for _, win := range windows {
		if win <= 0 {
			response.Fail(w, core.Errorf(core.ErrInvalidWindow, "got %d", win))
			return
		}
	}
	costBps, err := costOrDefault(req.CostBps, h.defaults.CostBps)
	if err != nil {
		response.Fail(w, err)
		return
	}

	windows = append([]int(nil), windows...)
	refresh := req.Refresh
	j := h.jobs.Submit(JobResearch, func(ctx context.Context) (any, error) {
		c, path, err := h.runner.Research(ctx, windows, costBps, refresh)
		if err != nil {
			return nil, err
		}
		return &ResearchResult{Comparison: c, ReportPath: path}, nil
	})

	accepted(w, j)
}
