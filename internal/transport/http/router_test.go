package http

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warrantysync/internal/pipeline"
	"warrantysync/internal/portal"
	"warrantysync/internal/shared/testutil"
)

type staticStatus pipeline.Status

func (s staticStatus) Status() pipeline.Status { return pipeline.Status(s) }

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		status     pipeline.Status
		wantStatus int
		wantKey    string
		wantValue  interface{}
	}{
		{
			name:       "idle",
			status:     pipeline.Status{SessionState: "idle"},
			wantStatus: http.StatusOK,
			wantKey:    "session_state",
			wantValue:  "idle",
		},
		{
			name:       "running",
			status:     pipeline.Status{Running: true, Attempt: 2, SessionState: "syncing"},
			wantStatus: http.StatusOK,
			wantKey:    "attempt",
			wantValue:  float64(2),
		},
		{
			name:       "failed session",
			status:     pipeline.Status{Running: true, Attempt: 1, SessionState: portal.Failed.String()},
			wantStatus: http.StatusServiceUnavailable,
			wantKey:    "error_code",
			wantValue:  "RUN_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			router := NewRouter(staticStatus(tt.status), nil, logger)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantValue, body[tt.wantKey])
			assert.NotEmpty(t, w.Header().Get("Content-Type"))
		})
	}
}

func TestRouter_Metrics(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "warrantysync_runs_total 1\n")
	})
	router := NewRouter(staticStatus{SessionState: "idle"}, metrics, logger)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "warrantysync_runs_total")
}

func TestRouter_UnknownRoute(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	router := NewRouter(staticStatus{}, nil, logger)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/healthz", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, ln, NewRouter(staticStatus{SessionState: "idle"}, nil, logger), logger)
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.True(t, handler.ContainsMessage("Status server stopped"))
}

func TestServe_BadAddress(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	err := Serve(context.Background(), "256.0.0.1:bad", http.NotFoundHandler(), logger)
	assert.Error(t, err)
}
