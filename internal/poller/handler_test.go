package poller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pushrelay/internal/logger"
)

type stubRunner struct {
	result RunResult
	ran    int
}

func (s *stubRunner) Run(_ context.Context) RunResult {
	s.ran++
	return s.result
}

func newTestRouter(runner Runner, st *fakeStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(runner, st, logger.NopLogger()).RegisterRoutes(router)
	return router
}

func TestPollReturnsSentCount(t *testing.T) {
	runner := &stubRunner{result: RunResult{Sent: 4, Candidates: 7}}
	router := newTestRouter(runner, newFakeStore())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/poll", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]int
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, map[string]int{"sent": 4}, body)
	assert.Equal(t, 1, runner.ran)
}

func TestPollAcceptsGET(t *testing.T) {
	runner := &stubRunner{result: RunResult{Sent: 0, UsersFailed: 2}}
	router := newTestRouter(runner, newFakeStore())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/poll", nil)
	router.ServeHTTP(w, req)

	// Even a fully failed run reports a count, not an error status.
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"sent": 0}`, w.Body.String())
}

func TestGetCursorFound(t *testing.T) {
	st := newFakeStore()
	st.cursors["alice"] = "12345"
	router := newTestRouter(&stubRunner{}, st)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cursors/alice", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user": "alice", "cursor": "12345"}`, w.Body.String())
}

func TestGetCursorMissing(t *testing.T) {
	router := newTestRouter(&stubRunner{}, newFakeStore())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cursors/nobody", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "NOT_FOUND", body["error_code"])
}
