package llm

import (
	"context"

	"go.uber.org/zap"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/retry"
)

// RetryingClient repeats completions that fail with a retryable *Error,
// such as rate limiting or a 5xx from the provider.
type RetryingClient struct {
	next   LLMClient
	cfg    *retry.Config
	logger *zap.Logger
}

var _ LLMClient = (*RetryingClient)(nil)

// NewRetryingClient wraps next. A nil cfg uses retry.DefaultConfig.
func NewRetryingClient(next LLMClient, cfg *retry.Config, logger *zap.Logger) *RetryingClient {
	if cfg == nil {
		cfg = retry.DefaultConfig()
	}
	return &RetryingClient{
		next:   next,
		cfg:    cfg,
		logger: logger.Named("llm_retry"),
	}
}

func (c *RetryingClient) Complete(ctx context.Context, prompt string, opts CompletionOptions) (*GenerateResponseResult, error) {
	return retry.DoIfRetryable(ctx, c.cfg, func(attempt int) (*GenerateResponseResult, error) {
		if attempt > 0 {
			c.logger.Info("Retrying LLM request",
				zap.Int("attempt", attempt),
				zap.String("model", c.next.GetModel()))
		}
		return c.next.Complete(ctx, prompt, opts)
	})
}

func (c *RetryingClient) GetModel() string {
	return c.next.GetModel()
}

func (c *RetryingClient) GetEndpoint() string {
	return c.next.GetEndpoint()
}
