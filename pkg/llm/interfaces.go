// Package llm provides clients for the language model service.
package llm

import (
	"context"
)

// CompletionOptions are the per-call generation settings.
type CompletionOptions struct {
	Temperature   float64
	MaxTokens     int
	SystemMessage string // optional
}

// GenerateResponseResult is a completion plus token usage.
type GenerateResponseResult struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// LLMClient defines the interface for text completion.
// Use this interface for dependency injection to enable mocking in tests.
type LLMClient interface {
	// Complete sends one prompt and returns the model's completion.
	// Errors are *Error values and match apperrors.ErrModelUnavailable.
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (*GenerateResponseResult, error)

	// GetModel returns the configured model name.
	GetModel() string

	// GetEndpoint returns the configured endpoint.
	GetEndpoint() string
}

// Ensure clients implement LLMClient at compile time.
var (
	_ LLMClient = (*Client)(nil)
	_ LLMClient = (*AnthropicClient)(nil)
	_ LLMClient = (*MockLLMClient)(nil)
)
