package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warrantysync/internal/shared/testutil"
)

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "run failed",
			err:        ErrRunFailed("login failed"),
			wantStatus: http.StatusServiceUnavailable,
			wantType:   TypeRunFailed,
		},
		{
			name:       "wrapped api error",
			err:        fmt.Errorf("status: %w", ErrNotFound),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
		},
		{
			name:       "deadline",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "application error",
			err:        NewSheetsError("update failed", nil),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
		{
			name:       "unknown error",
			err:        fmt.Errorf("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, handler := testutil.NewTestLogger(t)
			h := NewErrorHandler(logger, false)

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			h.HandleError(w, r, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decodeProblem(t, w)
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, "/healthz", body["instance"])
			assert.Contains(t, body, "trace_id")
			assert.True(t, handler.ContainsMessage("request failed"))
		})
	}
}

func TestErrorHandler_HandleErrorNil(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	w := httptest.NewRecorder()
	h.HandleError(w, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Equal(t, 0, w.Body.Len())
}

func TestErrorHandler_RunFailedDetails(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	problem := h.ErrorToProblem(ErrRunFailed("export unavailable"), r)

	assert.Equal(t, "RUN_FAILED", problem.Extensions["error_code"])
	assert.Equal(t, "export unavailable", problem.Extensions["details"])
}

func TestRecoveryMiddleware(t *testing.T) {
	tests := []struct {
		name         string
		includeStack bool
	}{
		{name: "without stack", includeStack: false},
		{name: "with stack", includeStack: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, handler := testutil.NewTestLogger(t)
			h := NewErrorHandler(logger, tt.includeStack)

			r := chi.NewRouter()
			r.Use(middleware.RequestID)
			r.Use(RecoveryMiddleware(h))
			r.Get("/panic", func(http.ResponseWriter, *http.Request) {
				panic("kaboom")
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			body := decodeProblem(t, w)
			assert.NotEmpty(t, body["trace_id"])
			_, hasPanic := body["panic"]
			assert.Equal(t, tt.includeStack, hasPanic)
			assert.True(t, handler.ContainsMessage("panic recovered"))
		})
	}
}

func TestErrorHandler_NotFoundAndMethodNotAllowed(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	r := chi.NewRouter()
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, TypeNotFound, decodeProblem(t, w)["type"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Contains(t, decodeProblem(t, w)["detail"], "POST")
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusServiceUnavailable, TypeServiceDown, "Service Unavailable", "", "").
		WithExtension("error_code", "SERVICE_UNAVAILABLE").
		WithExtension("status", "overridden")

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, float64(http.StatusServiceUnavailable), body["status"])
	assert.Equal(t, "SERVICE_UNAVAILABLE", body["error_code"])
	assert.NotContains(t, body, "detail")
	assert.NotContains(t, body, "instance")
}
