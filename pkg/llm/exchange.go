package llm

import (
	"time"

	"go.uber.org/zap"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/logging"
)

const maxLoggedThinking = 500

// exchange tracks one model round trip for logging and error context.
type exchange struct {
	logger   *zap.Logger
	model    string
	endpoint string
	started  time.Time
}

func startExchange(logger *zap.Logger, model, endpoint string, promptLen int, opts CompletionOptions) *exchange {
	logger.Debug("LLM request",
		zap.String("model", model),
		zap.Int("prompt_len", promptLen),
		zap.Float64("temperature", opts.Temperature),
		zap.Int("max_tokens", opts.MaxTokens))
	return &exchange{logger: logger, model: model, endpoint: endpoint, started: time.Now()}
}

// failed classifies a provider error and stamps it with model and endpoint.
func (x *exchange) failed(err error) *Error {
	x.logger.Error("LLM request failed",
		zap.Duration("elapsed", time.Since(x.started)),
		zap.Error(err))
	llmErr := ClassifyError(err)
	llmErr.Model, llmErr.Endpoint = x.model, x.endpoint
	return llmErr
}

func (x *exchange) empty(message string) *Error {
	return NewErrorWithContext(ErrorTypeEmpty, message, false, nil, x.model, x.endpoint, 0)
}

// finished builds the result from the raw text and token usage.
func (x *exchange) finished(text string, promptTokens, completionTokens int) *GenerateResponseResult {
	x.logger.Info("LLM request completed",
		zap.Int("prompt_tokens", promptTokens),
		zap.Int("completion_tokens", completionTokens),
		zap.Duration("elapsed", time.Since(x.started)))
	if thinking := ExtractThinking(text); thinking != "" {
		x.logger.Debug("LLM reasoning", zap.String("thinking", logging.TruncateString(thinking, maxLoggedThinking)))
	}
	return &GenerateResponseResult{
		Content:          StripThinking(text),
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
	}
}
