package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/apperrors"
)

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestErrorResponse(t *testing.T) {
	w := httptest.NewRecorder()

	require.NoError(t, ErrorResponse(w, http.StatusTeapot, "short_and_stout", "here is my handle"))

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, map[string]string{"error": "short_and_stout", "message": "here is my handle"}, decodeBody(t, w))
}

func TestWriteJSON(t *testing.T) {
	t.Run("defaults to 200", func(t *testing.T) {
		w := httptest.NewRecorder()
		require.NoError(t, WriteJSON(w, http.StatusOK, map[string]string{"dialect": "SQLite"}))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"dialect":"SQLite"}`, w.Body.String())
	})

	t.Run("explicit status", func(t *testing.T) {
		w := httptest.NewRecorder()
		require.NoError(t, WriteJSON(w, http.StatusServiceUnavailable, map[string]int{"tables": 0}))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("unencodable value", func(t *testing.T) {
		w := httptest.NewRecorder()
		assert.Error(t, WriteJSON(w, http.StatusOK, make(chan int)))
	})
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"question":"How many orders?"}`, false},
		{"unknown field", `{"question":"q","sql":"DROP TABLE orders"}`, true},
		{"malformed", `{"question":`, true},
		{"oversized", `{"question":"` + strings.Repeat("x", maxRequestBody) + `"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/questions", strings.NewReader(tt.body))
			var v AskQuestionRequest
			err := decodeJSON(req, httptest.NewRecorder(), &v)
			if tt.wantErr {
				assert.ErrorContains(t, err, "invalid request body")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "How many orders?", v.Question)
		})
	}
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", fmt.Errorf("table %q: %w", "invoices", apperrors.ErrNotFound), http.StatusNotFound, "not_found"},
		{"no schema", apperrors.ErrNoSchema, http.StatusServiceUnavailable, string(apperrors.KindNoSchema)},
		{"execution", fmt.Errorf("preview: %w", apperrors.ErrExecution), http.StatusBadGateway, string(apperrors.KindExecution)},
		{"anything else", errors.New("password=hunter2 rejected"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeServiceError(w, tt.err, zap.NewNop())

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decodeBody(t, w)
			assert.Equal(t, tt.wantCode, body["error"])
			assert.NotContains(t, body["message"], "hunter2")
		})
	}
}
