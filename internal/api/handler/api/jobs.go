package api

import (
	"net/http"

	"github.com/newthinker/sentinel/internal/api/job"
	"github.com/newthinker/sentinel/internal/api/response"
)

// JobsHandler exposes job status.
type JobsHandler struct {
	store *job.Store
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store *job.Store) *JobsHandler {
	return &JobsHandler{store: store}
}

// Get returns one job, including its result or error once finished.
func (h *JobsHandler) Get(w http.ResponseWriter, r *http.Request) {
	j, err := h.store.Get(r.PathValue("id"))
	if err != nil {
		response.Error(w, http.StatusNotFound, err)
		return
	}
	response.JSON(w, http.StatusOK, j)
}

// List returns all retained jobs, oldest first.
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.store.List())
}
