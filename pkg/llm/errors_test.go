package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/apperrors"
)

func TestErrorString(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		msg := (&Error{Type: ErrorTypeEndpoint, Message: "server error", StatusCode: 503}).Error()
		assert.Equal(t, "endpoint HTTP 503 server error", msg)
	})

	t.Run("endpoint reduced to host", func(t *testing.T) {
		msg := (&Error{
			Type:     ErrorTypeEndpoint,
			Message:  "connection failed",
			Model:    "llama-3.3-70b-versatile",
			Endpoint: "https://api.groq.com/openai/v1",
		}).Error()
		assert.Contains(t, msg, "endpoint=api.groq.com")
		assert.Contains(t, msg, "model=llama-3.3-70b-versatile")
		assert.NotContains(t, msg, "/openai/v1")
	})

	t.Run("cause appended", func(t *testing.T) {
		err := NewError(ErrorTypeUnknown, "llm error", false, errors.New("boom"))
		assert.Equal(t, "unknown llm error: boom", err.Error())
	})
}

func TestErrorMatchesModelUnavailable(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := fmt.Errorf("generate sql: %w", ClassifyError(cause))

	assert.ErrorIs(t, err, apperrors.ErrModelUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, apperrors.KindModelUnavailable, apperrors.KindOf(err))
	assert.Equal(t, ErrorTypeEndpoint, GetErrorType(err))
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantType  ErrorType
		wantMsg   string
		retryable bool
		status    int
	}{
		{"openai 401", errors.New("error, status code: 401, message: Invalid API Key"), ErrorTypeAuth, "authentication failed", false, 401},
		{"anthropic bad key", errors.New("anthropic api error type: authentication_error, message: invalid x-api-key"), ErrorTypeAuth, "authentication failed", false, 0},
		{"unknown model", errors.New("The model `llama-9` does not exist"), ErrorTypeModel, "model not found", false, 0},
		{"wrong path", errors.New("status 404 page not found"), ErrorTypeEndpoint, "endpoint not found", false, 404},
		{"429", errors.New("HTTP 429 Too Many Requests"), ErrorTypeRateLimited, "rate limited", true, 429},
		{"rate limit wording", errors.New("rate limit exceeded"), ErrorTypeRateLimited, "rate limited", true, 0},
		{"ollama down", errors.New("dial tcp 127.0.0.1:11434: connection refused"), ErrorTypeEndpoint, "connection failed", true, 0},
		{"deadline", context.DeadlineExceeded, ErrorTypeEndpoint, "request timeout", true, 0},
		{"caller cancelled", context.Canceled, ErrorTypeEndpoint, "request cancelled", false, 0},
		{"bad gateway", errors.New("status code: 502 bad gateway"), ErrorTypeEndpoint, "server error", true, 502},
		{"unrecognised", errors.New("something odd"), ErrorTypeUnknown, "llm error", false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyError(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.wantMsg, got.Message)
			assert.Equal(t, tt.retryable, got.Retryable)
			assert.Equal(t, tt.status, got.StatusCode)
		})
	}
}

func TestClassifyErrorTypedStatus(t *testing.T) {
	apiErr := &openai.APIError{HTTPStatusCode: 503, Message: "upstream unavailable"}

	got := ClassifyError(fmt.Errorf("create completion: %w", apiErr))
	assert.Equal(t, 503, got.StatusCode)
	assert.Equal(t, "server error", got.Message)
	assert.True(t, got.Retryable)
}

func TestClassifyErrorKeepsClassifiedError(t *testing.T) {
	original := NewErrorWithContext(ErrorTypeModel, "model not found", false, nil, "m", "http://x", 404)
	assert.Same(t, original, ClassifyError(fmt.Errorf("wrapped: %w", original)))
	assert.Nil(t, ClassifyError(nil))
}

func TestExtractStatusCode(t *testing.T) {
	cases := map[string]int{
		"HTTP 503 Service Unavailable":             503,
		"status 429 rate limited":                  429,
		"status: 500":                              500,
		"code 502 bad gateway":                     502,
		"error, status code: 401, message: bad key": 401,
		"Status: 404 Not Found":                    404,
		// bare numbers are not status codes
		"processed 503 records":       0,
		"port 5432 connection failed": 0,
		"error after 429 seconds":     0,
	}
	for msg, want := range cases {
		assert.Equal(t, want, extractStatusCode(msg), msg)
	}
}

func TestIsRetryableAndGetErrorType(t *testing.T) {
	err := fmt.Errorf("ask: %w", NewError(ErrorTypeRateLimited, "rate limited", true, nil))
	assert.True(t, IsRetryable(err))
	assert.Equal(t, ErrorTypeRateLimited, GetErrorType(err))

	plain := errors.New("plain")
	assert.False(t, IsRetryable(plain))
	assert.Equal(t, ErrorTypeUnknown, GetErrorType(plain))
}
