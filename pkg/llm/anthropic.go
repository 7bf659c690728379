package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"
)

// DefaultAnthropicEndpoint is the public Messages API base URL.
const DefaultAnthropicEndpoint = "https://api.anthropic.com/v1"

// The Messages API requires max_tokens on every request.
const defaultAnthropicMaxTokens = 1024

// AnthropicClient talks to the Anthropic Messages API.
type AnthropicClient struct {
	api      *anthropic.Client
	endpoint string
	model    string
	logger   *zap.Logger
}

// NewAnthropicClient builds a Messages API client. An empty cfg.Endpoint
// selects the public API.
func NewAnthropicClient(cfg *Config, logger *zap.Logger) (*AnthropicClient, error) {
	switch {
	case cfg.Model == "":
		return nil, errors.New("model is required")
	case cfg.APIKey == "":
		return nil, errors.New("api key is required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultAnthropicEndpoint
	}

	return &AnthropicClient{
		api: anthropic.NewClient(cfg.APIKey,
			anthropic.WithBaseURL(strings.TrimSuffix(endpoint, "/")),
			anthropic.WithHTTPClient(newHTTPClient(cfg.Timeout)),
		),
		endpoint: endpoint,
		model:    cfg.Model,
		logger:   logger.Named("llm"),
	}, nil
}

// Complete sends prompt as a single user message and joins the text blocks
// of the reply.
func (c *AnthropicClient) Complete(ctx context.Context, prompt string, opts CompletionOptions) (*GenerateResponseResult, error) {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultAnthropicMaxTokens
	}
	temperature := float32(opts.Temperature)

	x := startExchange(c.logger, c.model, c.endpoint, len(prompt), opts)

	resp, err := c.api.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(c.model),
		System:      opts.SystemMessage,
		MaxTokens:   opts.MaxTokens,
		Temperature: &temperature,
		Messages:    []anthropic.Message{anthropic.NewUserTextMessage(prompt)},
	})
	if err != nil {
		return nil, x.failed(err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText && block.Text != nil {
			text.WriteString(*block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, x.empty("no text in response")
	}

	return x.finished(text.String(), resp.Usage.InputTokens, resp.Usage.OutputTokens), nil
}

func (c *AnthropicClient) GetModel() string    { return c.model }
func (c *AnthropicClient) GetEndpoint() string { return c.endpoint }
