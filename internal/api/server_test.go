// internal/api/server_test.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	handlerapi "github.com/newthinker/sentinel/internal/api/handler/api"
	"github.com/newthinker/sentinel/internal/api/response"
	"github.com/newthinker/sentinel/internal/metrics"
	"github.com/newthinker/sentinel/internal/research"
)

type stubRunner struct{}

func (stubRunner) RunSingle(ctx context.Context, window int, costBps float64, refresh bool) (*research.VariantResult, error) {
	return &research.VariantResult{Window: window}, nil
}

func (stubRunner) Research(ctx context.Context, windows []int, costBps float64, refresh bool) (*research.Comparison, string, error) {
	results := make([]research.VariantResult, len(windows))
	for i, w := range windows {
		results[i] = research.VariantResult{Window: w}
	}
	return research.Judge(results), "runs/research_report.md", nil
}

func newTestServer(t *testing.T, apiKey string, reg *metrics.Registry) *Server {
	t.Helper()
	srv, err := NewServer(Config{
		Host:   "localhost",
		Port:   0,
		APIKey: apiKey,
	}, Dependencies{
		Runner:   stubRunner{},
		Defaults: handlerapi.Defaults{Window: 200, Windows: []int{180, 200, 220}, CostBps: 5},
		Metrics:  reg,
	}, zap.NewNop())
	require.NoError(t, err)
	return srv
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t, "", nil)

	req := httptest.NewRequest("GET", "/api/health", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestServer_RequiresRunner(t *testing.T) {
	_, err := NewServer(Config{}, Dependencies{}, zap.NewNop())
	assert.Error(t, err)
}

func TestServer_APIAuth_Required(t *testing.T) {
	srv := newTestServer(t, "test-key", nil)

	req := httptest.NewRequest("GET", "/api/v1/jobs", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestServer_APIAuth_ValidKey(t *testing.T) {
	srv := newTestServer(t, "test-key", nil)

	req := httptest.NewRequest("GET", "/api/v1/jobs", nil)
	req.Header.Set("X-API-Key", "test-key")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_APIAuth_Disabled(t *testing.T) {
	srv := newTestServer(t, "", nil)

	req := httptest.NewRequest("GET", "/api/v1/jobs", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_ResearchJobLifecycle(t *testing.T) {
	srv := newTestServer(t, "", nil)

	req := httptest.NewRequest("POST", "/api/v1/research", bytes.NewBufferString(`{"windows":[200,180]}`))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusAccepted, w.Code)

	var created response.SuccessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	id := created.Data.(map[string]any)["job_id"].(string)

	srv.jobs.Wait()

	req = httptest.NewRequest("GET", "/api/v1/jobs/"+id, nil)
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var got response.SuccessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	data := got.Data.(map[string]any)
	assert.Equal(t, "complete", data["status"])
	result := data["result"].(map[string]any)
	assert.Equal(t, "runs/research_report.md", result["report_path"])
	assert.Equal(t, true, result["robust"])
}

func TestServer_WrongMethod(t *testing.T) {
	srv := newTestServer(t, "", nil)

	req := httptest.NewRequest("GET", "/api/v1/backtests", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestServer_Metrics(t *testing.T) {
	srv := newTestServer(t, "", metrics.NewRegistry())

	srv.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/health", nil))

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "http_requests_total"))
}

func TestServer_Shutdown(t *testing.T) {
	srv := newTestServer(t, "", nil)
	assert.NoError(t, srv.Shutdown(context.Background()))
}
