package httptransport

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	applog "example.com/gymcheckins/internal/logger"
)

func jsonLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
	return entry
}

func TestRequestLoggerRecordsRequest(t *testing.T) {
	var buf bytes.Buffer
	handler := RequestLogger(jsonLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		applog.AddRequestAttrs(r.Context(), slog.String("user_id", "user-1"))
		w.WriteHeader(http.StatusCreated)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/gyms", nil))

	entry := decodeEntry(t, &buf)
	require.Equal(t, "http_request", entry["msg"])
	require.Equal(t, "POST", entry["method"])
	require.Equal(t, "/v1/gyms", entry["path"])
	require.Equal(t, float64(http.StatusCreated), entry["status"])
	require.Equal(t, "user-1", entry["user_id"])
	require.Equal(t, "INFO", entry["level"])
	require.Contains(t, entry, "duration_ms")
}

func TestRequestLoggerLevelFollowsStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{status: http.StatusOK, level: "INFO"},
		{status: http.StatusConflict, level: "WARN"},
		{status: http.StatusInternalServerError, level: "ERROR"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		handler := RequestLogger(jsonLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		entry := decodeEntry(t, &buf)
		require.Equal(t, tt.level, entry["level"])
		require.NotContains(t, entry, "user_id")
	}
}

func TestRequestLoggerDefaultsToOKOnWrite(t *testing.T) {
	var buf bytes.Buffer
	handler := RequestLogger(jsonLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
		w.WriteHeader(http.StatusTeapot)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, float64(http.StatusOK), decodeEntry(t, &buf)["status"])
}

func TestRecovererReturns500(t *testing.T) {
	var buf bytes.Buffer
	handler := Recoverer(jsonLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/gyms/search", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.JSONEq(t, `{"type":"server_error","detail":"internal server error"}`, rec.Body.String())
	entry := decodeEntry(t, &buf)
	require.Equal(t, "panic recovered", entry["msg"])
	require.Equal(t, "boom", entry["panic"])
}

func TestNewServerAppliesConfig(t *testing.T) {
	cfg := DefaultServerConfig(":9999")
	srv := NewServer(cfg, http.NotFoundHandler())

	require.Equal(t, ":9999", srv.Addr)
	require.Equal(t, 5*time.Second, srv.ReadTimeout)
	require.Equal(t, 2*time.Second, srv.ReadHeaderTimeout)
	require.Equal(t, 10*time.Second, srv.WriteTimeout)
	require.Equal(t, 60*time.Second, srv.IdleTimeout)
}
