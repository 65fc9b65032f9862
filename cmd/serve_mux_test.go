package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/sells-group/lead-router/internal/model"
)

func postJSON(t *testing.T, mux *http.ServeMux, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func TestMuxHealth(t *testing.T) {
	env := newTestEnv(t)
	mux := buildMux(context.Background(), env, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestMuxImport(t *testing.T) {
	env := newTestEnv(t)
	mux := buildMux(context.Background(), env, nil)

	rr := postJSON(t, mux, "/import", map[string]any{
		"campaign": "web-batch",
		"header":   []string{"Client Name", "Phone", "Priority"},
		"rows":     [][]string{{"Jane Roe", "5551110000", "High"}},
	})
	assert.Equal(t, http.StatusOK, rr.Code)

	var summary importSummary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.Imported)
	assert.Len(t, env.Engine.Leads(), 1)
}

func TestMuxImportMissingHeader(t *testing.T) {
	env := newTestEnv(t)
	mux := buildMux(context.Background(), env, nil)

	rr := postJSON(t, mux, "/import", map[string]any{
		"rows": [][]string{{"Jane Roe", "5551110000"}},
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "header is required")
}

func TestMuxImportRateLimited(t *testing.T) {
	env := newTestEnv(t)
	// Burst of one: the second request inside the window is rejected.
	mux := buildMux(context.Background(), env, rate.NewLimiter(rate.Limit(0.01), 1))

	payload := map[string]any{
		"header":  []string{"Client Name", "Phone"},
		"rows":    [][]string{{"Jane Roe", "5551110000"}},
		"dry_run": true,
	}
	first := postJSON(t, mux, "/import", payload)
	assert.Equal(t, http.StatusOK, first.Code)

	second := postJSON(t, mux, "/import", payload)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestMuxAssignAuto(t *testing.T) {
	env := newTestEnv(t)
	mux := buildMux(context.Background(), env, nil)

	_, err := importLeads(context.Background(), env, []string{"Client Name", "Phone", "Priority"},
		[][]string{{"Jane Roe", "5551110000", "High"}}, "web-batch", false, 2)
	require.NoError(t, err)
	leadID := env.Engine.Leads()[0].ID

	rr := postJSON(t, mux, "/assign", map[string]string{"lead_id": leadID})
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "rep-east", resp["rep_id"])
}

func TestMuxAssignUnknownLead(t *testing.T) {
	env := newTestEnv(t)
	mux := buildMux(context.Background(), env, nil)

	rr := postJSON(t, mux, "/assign", map[string]string{"lead_id": "ghost"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMuxAssignMissingLeadID(t *testing.T) {
	env := newTestEnv(t)
	mux := buildMux(context.Background(), env, nil)

	rr := postJSON(t, mux, "/assign", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "lead_id is required")
}

func TestMuxAssignBulkPartialFailure(t *testing.T) {
	env := newTestEnv(t)
	mux := buildMux(context.Background(), env, nil)

	_, err := importLeads(context.Background(), env, []string{"Client Name", "Phone"},
		[][]string{{"Jane Roe", "5551110000"}}, "web-batch", false, 2)
	require.NoError(t, err)
	leadID := env.Engine.Leads()[0].ID

	rr := postJSON(t, mux, "/assign/bulk", map[string]any{
		"pairs": []map[string]string{
			{"lead_id": leadID, "rep_id": "rep-west"},
			{"lead_id": "ghost", "rep_id": "rep-west"},
		},
	})
	assert.Equal(t, http.StatusOK, rr.Code)

	var result struct {
		Success []string          `json:"success"`
		Failed  []string          `json:"failed"`
		Causes  map[string]string `json:"causes"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.Equal(t, []string{leadID}, result.Success)
	assert.Equal(t, []string{"ghost"}, result.Failed)
	assert.Contains(t, result.Causes, "ghost")
}

func TestMuxWorkload(t *testing.T) {
	env := newTestEnv(t)
	mux := buildMux(context.Background(), env, nil)

	req := httptest.NewRequest(http.MethodGet, "/workload/rep-east", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	var wl model.RepWorkload
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &wl))
	assert.Equal(t, "rep-east", wl.RepID)
	assert.Equal(t, 5, wl.MaxLeads)

	req = httptest.NewRequest(http.MethodGet, "/workload/ghost", nil)
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMuxWorkloadSnapshot(t *testing.T) {
	env := newTestEnv(t)
	mux := buildMux(context.Background(), env, nil)

	req := httptest.NewRequest(http.MethodGet, "/workload", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	var snapshot []model.RepWorkload
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snapshot))
	assert.Len(t, snapshot, 2)
}
