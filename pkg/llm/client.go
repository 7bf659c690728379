package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Client speaks the OpenAI chat completions protocol, which covers Groq,
// OpenAI, vLLM and Ollama.
type Client struct {
	api      *openai.Client
	endpoint string
	model    string
	logger   *zap.Logger
}

// Config describes one model endpoint.
type Config struct {
	Endpoint string // base URL such as https://api.groq.com/openai/v1
	Model    string
	APIKey   string // local servers usually accept an empty key
	Timeout  time.Duration
}

// NewClient validates cfg and builds an OpenAI-compatible client.
func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	switch {
	case cfg.Endpoint == "":
		return nil, errors.New("endpoint is required")
	case cfg.Model == "":
		return nil, errors.New("model is required")
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")
	oc.HTTPClient = newHTTPClient(cfg.Timeout)

	return &Client{
		api:      openai.NewClientWithConfig(oc),
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		logger:   logger.Named("llm"),
	}, nil
}

func chatMessages(prompt, system string) []openai.ChatCompletionMessage {
	user := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt}
	if system == "" {
		return []openai.ChatCompletionMessage{user}
	}
	return []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: system},
		user,
	}
}

// Complete sends prompt as one user turn, preceded by the optional system
// message.
func (c *Client) Complete(ctx context.Context, prompt string, opts CompletionOptions) (*GenerateResponseResult, error) {
	x := startExchange(c.logger, c.model, c.endpoint, len(prompt), opts)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    chatMessages(prompt, opts.SystemMessage),
		Temperature: float32(opts.Temperature),
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return nil, x.failed(err)
	}
	if len(resp.Choices) == 0 {
		return nil, x.empty("no choices in response")
	}

	return x.finished(resp.Choices[0].Message.Content, resp.Usage.PromptTokens, resp.Usage.CompletionTokens), nil
}

func (c *Client) GetModel() string    { return c.model }
func (c *Client) GetEndpoint() string { return c.endpoint }
