package llm

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type contextKey string

const (
	requestIDKey contextKey = "llm_request_id"

	requestIDHeader = "X-Request-Id"
)

// WithRequestID tags outgoing model requests made with ctx with id, so
// provider-side logs can be matched to a question.
func WithRequestID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request ID set by WithRequestID.
func RequestIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(requestIDKey).(uuid.UUID)
	return id, ok
}

// contextAwareTransport copies the request ID from the request context into
// the X-Request-Id header.
type contextAwareTransport struct {
	base http.RoundTripper
}

func (t *contextAwareTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if id, ok := RequestIDFromContext(req.Context()); ok {
		req = req.Clone(req.Context())
		req.Header.Set(requestIDHeader, id.String())
	}
	return t.base.RoundTrip(req)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: &contextAwareTransport{base: http.DefaultTransport},
	}
}
