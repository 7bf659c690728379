package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLogger_LevelsByStatus(t *testing.T) {
	tests := []struct {
		status int
		level  zapcore.Level
	}{
		{http.StatusOK, zapcore.DebugLevel},
		{http.StatusBadRequest, zapcore.InfoLevel},
		{http.StatusTooManyRequests, zapcore.InfoLevel},
		{http.StatusInternalServerError, zapcore.WarnLevel},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			handler := RequestLogger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("body"))
			}))

			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/schema", nil))

			require.Equal(t, 1, logs.Len())
			entry := logs.All()[0]
			assert.Equal(t, "HTTP request", entry.Message)
			assert.Equal(t, tt.level, entry.Level)
			assert.Equal(t, int64(tt.status), entry.ContextMap()["status"])
			assert.Equal(t, int64(4), entry.ContextMap()["bytes"])
			assert.Equal(t, "/api/schema", entry.ContextMap()["path"])
		})
	}
}

func TestRequestLogger_IncludesRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	handler := chimw.RequestID(RequestLogger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, 1, logs.Len())
	assert.NotEmpty(t, logs.All()[0].ContextMap()["request_id"])
}

func TestRequestLogger_NilLogger_PassesThrough(t *testing.T) {
	called := false
	handler := RequestLogger(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.True(t, called)
}

func TestResponseWriter_PreventsDuplicateWriteHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	rw.WriteHeader(http.StatusCreated)
	rw.WriteHeader(http.StatusInternalServerError)

	assert.Equal(t, http.StatusCreated, rw.statusCode)
	assert.Equal(t, http.StatusCreated, rec.Code)
}
