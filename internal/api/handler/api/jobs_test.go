package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/sentinel/internal/api/job"
	"github.com/newthinker/sentinel/internal/api/response"
)

func TestJobsHandler_Get(t *testing.T) {
	store := job.NewStore(100, time.Hour)
	handler := NewJobsHandler(store)
	j := store.Create(JobBacktest)

	req := httptest.NewRequest("GET", "/api/v1/jobs/"+j.ID, nil)
	req.SetPathValue("id", j.ID)
	w := httptest.NewRecorder()
	handler.Get(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp response.SuccessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]any)
	assert.Equal(t, j.ID, data["id"])
	assert.Equal(t, "backtest", data["type"])
	assert.Equal(t, "pending", data["status"])
}

func TestJobsHandler_Get_NotFound(t *testing.T) {
	handler := NewJobsHandler(job.NewStore(100, time.Hour))

	req := httptest.NewRequest("GET", "/api/v1/jobs/nonexistent", nil)
	req.SetPathValue("id", "nonexistent")
	w := httptest.NewRecorder()
	handler.Get(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	var resp response.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "JOB_NOT_FOUND", resp.Error.Code)
}

func TestJobsHandler_List(t *testing.T) {
	store := job.NewStore(100, time.Hour)
	store.Create(JobBacktest)
	store.Create(JobResearch)
	handler := NewJobsHandler(store)

	w := httptest.NewRecorder()
	handler.List(w, httptest.NewRequest("GET", "/api/v1/jobs", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp response.SuccessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data.([]any), 2)
}
