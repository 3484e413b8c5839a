package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/exam-results/internal/config"
	"github.com/hongminglow/exam-results/internal/middleware"
	"github.com/hongminglow/exam-results/internal/testutil"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.Config{
		Env:          "test",
		Port:         "0",
		JWTSecret:    "secret",
		JWTIssuer:    "exam-results",
		JWTTTL:       time.Hour,
		CORSOrigins:  []string{"*"},
		QueryTimeout: time.Second,
	}
	store := testutil.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ts := httptest.NewServer(NewHandler(cfg, Deps{Users: store, Results: store}, logger))
	t.Cleanup(ts.Close)
	return ts
}

func TestHandlerServesHealthWithRequestID(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestHandlerExposesMetrics(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/student/login")
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `exam_results_http_requests_total{method="GET",route="/student/login",status="200"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestHandlerAnswersPreflight(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/user/addresult", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example.com")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestHandlerRequiresTokenForMutations(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/user/addresult", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
