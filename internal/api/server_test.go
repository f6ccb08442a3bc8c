package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	syncapp "github.com/eshaffer321/ynab-amazon-sync/internal/application/sync"
	"github.com/eshaffer321/ynab-amazon-sync/internal/infrastructure/storage"
)

type stubTrigger struct {
	opts    syncapp.Options
	summary *syncapp.RunSummary
	err     error
}

func (s *stubTrigger) Run(_ context.Context, opts syncapp.Options) (*syncapp.RunSummary, error) {
	s.opts = opts
	return s.summary, s.err
}

func newTestServer(t *testing.T, repo storage.Repository, trigger *stubTrigger) *Server {
	t.Helper()
	cfg := DefaultConfig()
	if trigger != nil {
		return NewServer(cfg, repo, trigger, nil)
	}
	return NewServer(cfg, repo, nil, nil)
}

func TestServer_Health(t *testing.T) {
	server := newTestServer(t, storage.NewMockRepository(), nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestServer_ListRuns(t *testing.T) {
	repo := storage.NewMockRepository()
	require.NoError(t, repo.StartRun(&storage.RunRecord{
		ID:           "run-1",
		StartedAt:    time.Now(),
		LookbackDays: 31,
		Status:       storage.RunStatusCompleted,
	}))

	server := newTestServer(t, repo, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"run-1"`)
	assert.Contains(t, rec.Body.String(), `"count":1`)
}

func TestServer_GetRun(t *testing.T) {
	repo := storage.NewMockRepository()
	require.NoError(t, repo.StartRun(&storage.RunRecord{
		ID:        "run-abc",
		StartedAt: time.Now(),
		Status:    storage.RunStatusRunning,
	}))

	server := newTestServer(t, repo, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/runs/run-abc", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"run-abc"`)
}

func TestServer_GetRunNotFound(t *testing.T) {
	server := newTestServer(t, storage.NewMockRepository(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/runs/missing", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_found")
}

func TestServer_ListAnnotations(t *testing.T) {
	repo := storage.NewMockRepository()
	require.NoError(t, repo.SaveAnnotation(&storage.AnnotationRecord{
		RunID:         "run-1",
		TransactionID: "txn-1",
		OrderNumber:   "111-2222222-3333333",
		Status:        storage.AnnotationStatusUpdated,
		AnnotatedAt:   time.Now(),
	}))
	require.NoError(t, repo.SaveAnnotation(&storage.AnnotationRecord{
		RunID:         "run-2",
		TransactionID: "txn-2",
		Status:        storage.AnnotationStatusUnmatched,
		AnnotatedAt:   time.Now(),
	}))

	server := newTestServer(t, repo, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/annotations?run_id=run-1", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"transaction_id":"txn-1"`)
	assert.NotContains(t, rec.Body.String(), `"transaction_id":"txn-2"`)
}

func TestServer_Stats(t *testing.T) {
	repo := storage.NewMockRepository()
	require.NoError(t, repo.SaveAnnotation(&storage.AnnotationRecord{
		RunID:            "run-1",
		TransactionID:    "txn-1",
		AmountMilliunits: -29990,
		Status:           storage.AnnotationStatusUpdated,
		AnnotatedAt:      time.Now(),
	}))

	server := newTestServer(t, repo, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_annotations":1`)
	assert.Contains(t, rec.Body.String(), `"updated_count":1`)
}

func TestServer_TriggerSync(t *testing.T) {
	trigger := &stubTrigger{
		summary: &syncapp.RunSummary{
			RunID:             "run-xyz",
			TransactionsFound: 3,
			Matched:           2,
			Updated:           2,
			Unmatched:         1,
		},
	}
	server := newTestServer(t, storage.NewMockRepository(), trigger)

	body := strings.NewReader(`{"dry_run":true,"lookback_days":14}`)
	req := httptest.NewRequest(http.MethodPost, "/api/sync", body)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"run_id":"run-xyz"`)
	assert.True(t, trigger.opts.DryRun)
	assert.Equal(t, 14, trigger.opts.LookbackDays)
}

func TestServer_TriggerSyncDefaultsLookback(t *testing.T) {
	trigger := &stubTrigger{summary: &syncapp.RunSummary{RunID: "run-1"}}
	server := newTestServer(t, storage.NewMockRepository(), trigger)

	req := httptest.NewRequest(http.MethodPost, "/api/sync", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, DefaultConfig().LookbackDays, trigger.opts.LookbackDays)
}

func TestServer_TriggerSyncFailure(t *testing.T) {
	trigger := &stubTrigger{
		summary: &syncapp.RunSummary{RunID: "run-bad"},
		err:     errors.New("order fetch failed"),
	}
	server := newTestServer(t, storage.NewMockRepository(), trigger)

	req := httptest.NewRequest(http.MethodPost, "/api/sync", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "order fetch failed")
}

func TestServer_SyncRouteAbsentWithoutTrigger(t *testing.T) {
	server := newTestServer(t, storage.NewMockRepository(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/sync", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
