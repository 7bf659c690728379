package llm

import (
	"cmp"
	"fmt"

	"go.uber.org/zap"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/config"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/retry"
)

// Supported providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// DefaultOpenAIEndpoint serves the "openai" provider when no base URL is set.
const DefaultOpenAIEndpoint = "https://api.groq.com/openai/v1"

// NewClientFromConfig creates the LLM client selected by cfg.Provider,
// wrapped in a RetryingClient when cfg.MaxRetries is positive.
// "openai" covers every OpenAI-compatible endpoint, Groq included.
func NewClientFromConfig(cfg config.LLMConfig, logger *zap.Logger) (LLMClient, error) {
	client, err := newProviderClient(cfg, logger)
	if err != nil {
		return nil, err
	}
	if cfg.MaxRetries <= 0 {
		return client, nil
	}

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxRetries = cfg.MaxRetries
	return NewRetryingClient(client, retryCfg, logger), nil
}

func newProviderClient(cfg config.LLMConfig, logger *zap.Logger) (LLMClient, error) {
	clientCfg := &Config{
		Endpoint: cfg.BaseURL,
		Model:    cfg.Model,
		APIKey:   cfg.APIKey,
		Timeout:  cfg.RequestTimeout,
	}

	switch cfg.Provider {
	case ProviderOpenAI, "":
		clientCfg.Endpoint = cmp.Or(clientCfg.Endpoint, DefaultOpenAIEndpoint)
		client, err := NewClient(clientCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("create openai client: %w", err)
		}
		return client, nil
	case ProviderAnthropic:
		client, err := NewAnthropicClient(clientCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("create anthropic client: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
