package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"fatwabox/internal/database"
	"fatwabox/internal/models"
	"fatwabox/internal/service"
	"fatwabox/pkg/questions"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRemote stands in for the hosted question collection endpoint.
type fakeRemote struct {
	mu       sync.Mutex
	received []map[string]string
	fail     bool
	server   *httptest.Server
}

func newFakeRemote(t *testing.T) *fakeRemote {
	t.Helper()
	fr := &fakeRemote{}
	fr.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fr.mu.Lock()
		defer fr.mu.Unlock()

		if fr.fail {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusOK)
			return
		}

		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		fr.received = append(fr.received, payload)
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(fr.server.Close)
	return fr
}

func (fr *fakeRemote) setFail(fail bool) {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	fr.fail = fail
}

func (fr *fakeRemote) deliveries() []map[string]string {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	out := make([]map[string]string, len(fr.received))
	copy(out, fr.received)
	return out
}

type testHarness struct {
	server  *Server
	remote  *fakeRemote
	monitor *service.ConnectivityMonitor
	queue   *service.QueueManager
}

func newTestServer(t *testing.T) *testHarness {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	remote := newFakeRemote(t)

	db, err := database.New(filepath.Join(t.TempDir(), "queue.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	client := questions.NewClient(models.RemoteConfig{
		BaseURL:    remote.server.URL,
		APIKey:     "test-key",
		Table:      "questions",
		TimeoutSec: 5,
	})

	queue := service.NewQueueManager(db, logger)
	syncEngine := service.NewSyncEngine(db, client, logger, 5*time.Second)
	monitor := service.NewConnectivityMonitor(client, logger, time.Minute, time.Second)
	monitor.OnTransition(func(online bool) {
		if online {
			_, _ = syncEngine.Flush(context.Background())
		}
	})

	frontDoor := service.NewFrontDoor(queue, client, monitor, logger, 5*time.Second, true)

	cfg := &models.Config{
		Remote: models.RemoteConfig{BaseURL: remote.server.URL, Table: "questions"},
		Server: models.ServerConfig{Port: 8083},
	}

	return &testHarness{
		server:  NewServer(cfg, frontDoor, queue, syncEngine, monitor, logger),
		remote:  remote,
		monitor: monitor,
		queue:   queue,
	}
}

func (h *testHarness) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.server.router.ServeHTTP(rec, req)
	return rec
}

func submitBody(category, text string) map[string]string {
	return map[string]string{"category": category, "question_text": text}
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestServer(t)

	rec := h.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t)

	rec := h.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Contains(t, payload, "counters")
	assert.Contains(t, payload, "uptime_ms")
}

func TestSubmitOnlineDeliversDirectly(t *testing.T) {
	h := newTestServer(t)
	h.monitor.SetOnline(true)

	rec := h.do(t, http.MethodPost, "/api/questions", submitBody("prayer", "Can I combine prayers while travelling?"))
	require.Equal(t, http.StatusCreated, rec.Code)

	var result models.SubmissionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.Queued)
	assert.Empty(t, result.ID)

	deliveries := h.remote.deliveries()
	require.Len(t, deliveries, 1)
	assert.Equal(t, "prayer", deliveries[0]["category"])
	assert.Equal(t, "Can I combine prayers while travelling?", deliveries[0]["question_text"])
}

func TestSubmitOfflineQueues(t *testing.T) {
	h := newTestServer(t)

	rec := h.do(t, http.MethodPost, "/api/questions", submitBody("fasting", "Does an injection break the fast?"))
	require.Equal(t, http.StatusAccepted, rec.Code)

	var result models.SubmissionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Queued)
	assert.Regexp(t, `^offline-\d+-[0-9a-f]{9}$`, result.ID)
	assert.Empty(t, h.remote.deliveries())

	listRec := h.do(t, http.MethodGet, "/api/questions/pending", nil)
	require.Equal(t, http.StatusOK, listRec.Code)

	var pending []models.PendingQuestion
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &pending))
	require.Len(t, pending, 1)
	assert.Equal(t, result.ID, pending[0].ID)
	assert.Equal(t, "fasting", pending[0].Category)
	assert.Equal(t, "Does an injection break the fast?", pending[0].QuestionText)
}

func TestSubmitRemoteFailureFallsBackToQueue(t *testing.T) {
	h := newTestServer(t)
	h.monitor.SetOnline(true)
	h.remote.setFail(true)

	rec := h.do(t, http.MethodPost, "/api/questions", submitBody("zakat", "Is zakat due on my pension fund?"))
	require.Equal(t, http.StatusAccepted, rec.Code)

	var result models.SubmissionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Queued)
	assert.NotEmpty(t, result.ID)
}

func TestSubmitInvalidBody(t *testing.T) {
	h := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/questions", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	h.server.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitMissingQuestionText(t *testing.T) {
	h := newTestServer(t)

	rec := h.do(t, http.MethodPost, "/api/questions", submitBody("prayer", "   "))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitContentRejected(t *testing.T) {
	h := newTestServer(t)

	rec := h.do(t, http.MethodPost, "/api/questions", submitBody("other_custom", "Buy now at https://spam.example.com limited offer!!!"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["error"])
}

func TestEditPendingQuestion(t *testing.T) {
	h := newTestServer(t)

	rec := h.do(t, http.MethodPost, "/api/questions", submitBody("marriage", "Original wording"))
	require.Equal(t, http.StatusAccepted, rec.Code)

	var result models.SubmissionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))

	editRec := h.do(t, http.MethodPut, "/api/questions/pending/"+result.ID, map[string]string{
		"question_text": "Clarified wording",
	})
	require.Equal(t, http.StatusNoContent, editRec.Code)

	listRec := h.do(t, http.MethodGet, "/api/questions/pending", nil)
	var pending []models.PendingQuestion
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &pending))
	require.Len(t, pending, 1)
	assert.Equal(t, "Clarified wording", pending[0].QuestionText)
	assert.Equal(t, "marriage", pending[0].Category)
}

func TestEditPendingQuestionNotFound(t *testing.T) {
	h := newTestServer(t)

	rec := h.do(t, http.MethodPut, "/api/questions/pending/offline-123-abc", map[string]string{
		"question_text": "New text",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEditPendingQuestionEmptyBody(t *testing.T) {
	h := newTestServer(t)

	rec := h.do(t, http.MethodPut, "/api/questions/pending/offline-123-abc", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRemovePendingQuestion(t *testing.T) {
	h := newTestServer(t)

	sub := h.do(t, http.MethodPost, "/api/questions", submitBody("prayer", "Withdraw this one"))
	var result models.SubmissionResult
	require.NoError(t, json.Unmarshal(sub.Body.Bytes(), &result))

	rec := h.do(t, http.MethodDelete, "/api/questions/pending/"+result.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Removing again is a no-op
	rec = h.do(t, http.MethodDelete, "/api/questions/pending/"+result.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	count, err := h.queue.PendingCount(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestClearPendingQuestions(t *testing.T) {
	h := newTestServer(t)

	for i := 0; i < 3; i++ {
		rec := h.do(t, http.MethodPost, "/api/questions", submitBody("fasting", "Question number three or fewer"))
		require.Equal(t, http.StatusAccepted, rec.Code)
	}

	rec := h.do(t, http.MethodDelete, "/api/questions/pending", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	listRec := h.do(t, http.MethodGet, "/api/questions/pending", nil)
	assert.JSONEq(t, "[]", listRec.Body.String())
}

func TestStatusEndpoint(t *testing.T) {
	h := newTestServer(t)

	h.do(t, http.MethodPost, "/api/questions", submitBody("prayer", "Still waiting to be sent"))

	rec := h.do(t, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var status models.QueueStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.False(t, status.Online)
	assert.False(t, status.Syncing)
	assert.Equal(t, 1, status.PendingCount)
}

func TestConnectivityOverrideFlushesQueue(t *testing.T) {
	h := newTestServer(t)

	for _, text := range []string{"first queued question", "second queued question"} {
		rec := h.do(t, http.MethodPost, "/api/questions", submitBody("inheritance", text))
		require.Equal(t, http.StatusAccepted, rec.Code)
	}

	rec := h.do(t, http.MethodPost, "/api/connectivity", map[string]bool{"online": true})
	require.Equal(t, http.StatusOK, rec.Code)

	var status models.QueueStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.Online)
	assert.Zero(t, status.PendingCount)

	deliveries := h.remote.deliveries()
	require.Len(t, deliveries, 2)
	assert.Equal(t, "first queued question", deliveries[0]["question_text"])
	assert.Equal(t, "second queued question", deliveries[1]["question_text"])
}

func TestSyncNowEndpoint(t *testing.T) {
	h := newTestServer(t)

	h.do(t, http.MethodPost, "/api/questions", submitBody("prayer", "Deliver me on demand"))

	rec := h.do(t, http.MethodPost, "/api/sync", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp syncResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Delivered)
	assert.Zero(t, resp.Pending)
	require.Len(t, h.remote.deliveries(), 1)
}

func TestSyncNowKeepsFailedQuestions(t *testing.T) {
	h := newTestServer(t)
	h.remote.setFail(true)

	h.do(t, http.MethodPost, "/api/questions", submitBody("prayer", "Remote is down for this one"))

	rec := h.do(t, http.MethodPost, "/api/sync", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp syncResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Zero(t, resp.Delivered)
	assert.Equal(t, 1, resp.Pending)
}
