package llm

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/sashabaranov/go-openai"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/apperrors"
)

// ErrorType says which part of the model setup a failure points at.
type ErrorType string

const (
	ErrorTypeNone        ErrorType = ""
	ErrorTypeEndpoint    ErrorType = "endpoint"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeModel       ErrorType = "model"
	ErrorTypeRateLimited ErrorType = "rate_limited"
	ErrorTypeEmpty       ErrorType = "empty_response"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error is a classified model failure. It matches
// apperrors.ErrModelUnavailable under errors.Is.
type Error struct {
	Type       ErrorType
	Message    string
	Retryable  bool
	Cause      error
	StatusCode int // 0 when the provider gave none
	Model      string
	Endpoint   string
}

// Error renders type, status, model and endpoint host, then the message.
// Endpoint paths and query strings are left out.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Type))
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, " HTTP %d", e.StatusCode)
	}
	if e.Model != "" {
		b.WriteString(" model=" + e.Model)
	}
	if host := endpointHost(e.Endpoint); host != "" {
		b.WriteString(" endpoint=" + host)
	}
	b.WriteString(" " + e.Message)
	if e.Cause != nil {
		b.WriteString(": " + e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is lets callers classify model failures without importing this package.
func (e *Error) Is(target error) bool {
	return target == apperrors.ErrModelUnavailable
}

// IsRetryable is consulted by retry.IsRetryable.
func (e *Error) IsRetryable() bool { return e.Retryable }

// NewError creates an Error without request context.
func NewError(errType ErrorType, message string, retryable bool, cause error) *Error {
	return &Error{Type: errType, Message: message, Retryable: retryable, Cause: cause}
}

// NewErrorWithContext creates an Error that names the model and endpoint.
func NewErrorWithContext(errType ErrorType, message string, retryable bool, cause error, model, endpoint string, statusCode int) *Error {
	e := NewError(errType, message, retryable, cause)
	e.Model, e.Endpoint, e.StatusCode = model, endpoint, statusCode
	return e
}

// A status code only counts when introduced by HTTP, status or code, so
// row counts and port numbers in messages are not misread.
var statusCodePattern = regexp.MustCompile(`(?i)\b(?:http|status|code)[\s:=]+([1-5]\d{2})\b`)

func extractStatusCode(msg string) int {
	m := statusCodePattern.FindStringSubmatch(msg)
	if m == nil {
		return 0
	}
	code, _ := strconv.Atoi(m[1])
	return code
}

// statusCodeOf prefers the status carried by the provider SDK error types.
func statusCodeOf(err error) int {
	var (
		apiErr *openai.APIError
		reqErr *openai.RequestError
		antErr *anthropic.RequestError
	)
	switch {
	case errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0:
		return apiErr.HTTPStatusCode
	case errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0:
		return reqErr.HTTPStatusCode
	case errors.As(err, &antErr) && antErr.StatusCode > 0:
		return antErr.StatusCode
	}
	return extractStatusCode(err.Error())
}

// failure is what ClassifyError knows about a raw provider error.
type failure struct {
	err    error
	lower  string
	status int
}

func (f failure) mentions(words ...string) bool {
	for _, w := range words {
		if strings.Contains(f.lower, w) {
			return true
		}
	}
	return false
}

// classification rules, first match wins.
var classifications = []struct {
	match     func(f failure) bool
	errType   ErrorType
	message   string
	retryable bool
}{
	{
		// the caller gave up; repeating the call will not help
		func(f failure) bool { return errors.Is(f.err, context.Canceled) || f.mentions("context canceled") },
		ErrorTypeEndpoint, "request cancelled", false,
	},
	{
		func(f failure) bool {
			return f.status == 401 || f.status == 403 || f.mentions("unauthorized", "invalid api key", "invalid x-api-key")
		},
		ErrorTypeAuth, "authentication failed", false,
	},
	{
		func(f failure) bool {
			return f.mentions("model") && f.mentions("not found", "does not exist", "decommissioned")
		},
		ErrorTypeModel, "model not found", false,
	},
	{
		func(f failure) bool { return f.status == 404 },
		ErrorTypeEndpoint, "endpoint not found", false,
	},
	{
		func(f failure) bool { return f.status == 429 || f.mentions("rate limit", "too many requests") },
		ErrorTypeRateLimited, "rate limited", true,
	},
	{
		func(f failure) bool { return f.mentions("connection refused", "no such host") },
		ErrorTypeEndpoint, "connection failed", true,
	},
	{
		func(f failure) bool {
			return errors.Is(f.err, context.DeadlineExceeded) || f.mentions("timeout", "deadline exceeded")
		},
		ErrorTypeEndpoint, "request timeout", true,
	},
	{
		func(f failure) bool { return f.mentions("overloaded") },
		ErrorTypeEndpoint, "service overloaded", true,
	},
	{
		func(f failure) bool { return f.status >= 500 },
		ErrorTypeEndpoint, "server error", true,
	},
}

// ClassifyError wraps err in an Error. An Error already in the chain is
// returned as is.
func ClassifyError(err error) *Error {
	if err == nil {
		return nil
	}
	if llmErr := asError(err); llmErr != nil {
		return llmErr
	}

	f := failure{err: err, lower: strings.ToLower(err.Error()), status: statusCodeOf(err)}
	for _, c := range classifications {
		if c.match(f) {
			e := NewError(c.errType, c.message, c.retryable, err)
			e.StatusCode = f.status
			return e
		}
	}
	e := NewError(ErrorTypeUnknown, "llm error", false, err)
	e.StatusCode = f.status
	return e
}

// IsRetryable reports whether err carries a retryable Error.
func IsRetryable(err error) bool {
	llmErr := asError(err)
	return llmErr != nil && llmErr.Retryable
}

// GetErrorType returns the ErrorType of the Error in err's chain, or
// ErrorTypeUnknown.
func GetErrorType(err error) ErrorType {
	if llmErr := asError(err); llmErr != nil {
		return llmErr.Type
	}
	return ErrorTypeUnknown
}

func asError(err error) *Error {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr
	}
	return nil
}

func endpointHost(endpoint string) string {
	if endpoint == "" {
		return ""
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return ""
	}
	return u.Host
}
