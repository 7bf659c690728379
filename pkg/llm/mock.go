package llm

import (
	"cmp"
	"context"
	"sync"
)

const (
	mockModel    = "mock-model"
	mockEndpoint = "http://mock-endpoint"
)

// MockLLMClient records prompts and answers through CompleteFunc. With no
// CompleteFunc every call returns an empty result.
type MockLLMClient struct {
	CompleteFunc func(ctx context.Context, prompt string, opts CompletionOptions) (*GenerateResponseResult, error)
	Model        string
	Endpoint     string

	mu      sync.Mutex
	Prompts []string // in call order
}

func NewMockLLMClient() *MockLLMClient {
	return &MockLLMClient{Model: mockModel, Endpoint: mockEndpoint}
}

// NewScriptedMockLLMClient answers the nth call with replies[n], and every
// call after the last reply with the last reply.
func NewScriptedMockLLMClient(replies ...string) *MockLLMClient {
	m := NewMockLLMClient()
	next := 0
	m.CompleteFunc = func(context.Context, string, CompletionOptions) (*GenerateResponseResult, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		if len(replies) == 0 {
			return &GenerateResponseResult{}, nil
		}
		reply := replies[min(next, len(replies)-1)]
		next++
		return &GenerateResponseResult{Content: reply}, nil
	}
	return m
}

func (m *MockLLMClient) Complete(ctx context.Context, prompt string, opts CompletionOptions) (*GenerateResponseResult, error) {
	m.mu.Lock()
	m.Prompts = append(m.Prompts, prompt)
	fn := m.CompleteFunc
	m.mu.Unlock()

	if fn == nil {
		return &GenerateResponseResult{}, nil
	}
	return fn(ctx, prompt, opts)
}

func (m *MockLLMClient) GetModel() string {
	return cmp.Or(m.Model, mockModel)
}

func (m *MockLLMClient) GetEndpoint() string {
	return cmp.Or(m.Endpoint, mockEndpoint)
}

// Calls is the number of Complete invocations so far.
func (m *MockLLMClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}
