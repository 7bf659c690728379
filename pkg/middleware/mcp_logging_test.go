package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func jsonHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(body))
	})
}

func serveMCP(t *testing.T, logger *zap.Logger, next http.Handler, reqBody string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewBufferString(reqBody))
	rec := httptest.NewRecorder()
	MCPRequestLogger(logger)(next).ServeHTTP(rec, req)
	return rec
}

func TestMCPRequestLogger(t *testing.T) {
	const askCall = `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"ask_question","arguments":{"question":"How many orders shipped?"}}}`

	t.Run("logs successful tool call", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)

		rec := serveMCP(t, zap.New(core), jsonHandler(`{"jsonrpc":"2.0","id":1,"result":{"content":[{"type":"text","text":"{}"}]}}`), askCall)
		assert.Equal(t, http.StatusOK, rec.Code)

		require.Equal(t, 2, logs.Len())
		requestLog := logs.All()[0]
		assert.Equal(t, "MCP request", requestLog.Message)
		assert.Equal(t, "tools/call", requestLog.ContextMap()["method"])
		assert.Equal(t, "ask_question", requestLog.ContextMap()["tool"])

		responseLog := logs.All()[1]
		assert.Equal(t, "MCP tool call", responseLog.Message)
		assert.Equal(t, zapcore.InfoLevel, responseLog.Level)
	})

	t.Run("logs tool error result", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)

		serveMCP(t, zap.New(core), jsonHandler(`{"jsonrpc":"2.0","id":1,"result":{"isError":true,"content":[]}}`), askCall)

		require.Equal(t, 2, logs.Len())
		assert.Equal(t, "MCP tool returned error result", logs.All()[1].Message)
	})

	t.Run("logs JSON-RPC error", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)

		serveMCP(t, zap.New(core), jsonHandler(`{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"missing question"}}`), askCall)

		require.Equal(t, 2, logs.Len())
		errorLog := logs.All()[1]
		assert.Equal(t, "MCP tool call failed", errorLog.Message)
		assert.Equal(t, zapcore.WarnLevel, errorLog.Level)
		assert.Equal(t, int64(-32602), errorLog.ContextMap()["error_code"])
	})

	t.Run("non-tool methods only log the request", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)

		serveMCP(t, zap.New(core), jsonHandler(`{"jsonrpc":"2.0","id":1,"result":{"tools":[]}}`), `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)

		assert.Equal(t, 1, logs.Len())
	})

	t.Run("body is still readable downstream", func(t *testing.T) {
		var seen string
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			seen = string(b)
		})

		serveMCP(t, zap.NewNop(), next, askCall)
		assert.Equal(t, askCall, seen)
	})

	t.Run("nil logger passes through", func(t *testing.T) {
		rec := serveMCP(t, nil, jsonHandler(`{}`), askCall)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, `{}`, rec.Body.String())
	})
}

func TestSanitizeArguments(t *testing.T) {
	t.Run("redacts sensitive keywords", func(t *testing.T) {
		result := sanitizeArguments(map[string]any{
			"password":     "secret",
			"api_key":      "abc123",
			"access_token": "xyz789",
			"question":     "visible",
		})

		assert.Equal(t, "[REDACTED]", result["password"])
		assert.Equal(t, "[REDACTED]", result["api_key"])
		assert.Equal(t, "[REDACTED]", result["access_token"])
		assert.Equal(t, "visible", result["question"])
	})

	t.Run("truncates long strings", func(t *testing.T) {
		result := sanitizeArguments(map[string]any{"question": strings.Repeat("x", 250)})

		truncated := result["question"].(string)
		assert.Len(t, truncated, maxLoggedArgument+3)
		assert.True(t, strings.HasSuffix(truncated, "..."))
	})

	t.Run("preserves non-string values", func(t *testing.T) {
		result := sanitizeArguments(map[string]any{"limit": float64(5), "flag": true})
		assert.Equal(t, float64(5), result["limit"])
		assert.Equal(t, true, result["flag"])
	})

	t.Run("handles nil arguments", func(t *testing.T) {
		assert.Nil(t, sanitizeArguments(nil))
	})
}
