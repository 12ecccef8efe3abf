package llm

import (
	"context"
	"fmt"
)

// MockProvider is a testing implementation of Provider.
type MockProvider struct {
	Response         string
	Err              error
	ChatFunc         func(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	ContextLimitSize int
	TokensPerMessage int
}

func (m *MockProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, req)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return &ChatResponse{
		Content: m.Response,
		Usage: Usage{
			PromptTokens:     10,
			CompletionTokens: 10,
			TotalTokens:      20,
		},
	}, nil
}

// ContextLimit implements ContextAware for tests that need to force
// the compaction threshold.
func (m *MockProvider) ContextLimit() int {
	if m.ContextLimitSize > 0 {
		return m.ContextLimitSize
	}
	return DefaultContextLimit
}

// EstimateTokens implements ContextAware. When TokensPerMessage is set,
// it returns exactly len(messages) * TokensPerMessage, matching the
// deterministic estimator tests script against.
func (m *MockProvider) EstimateTokens(messages []Message) int {
	if m.TokensPerMessage > 0 {
		return len(messages) * m.TokensPerMessage
	}
	return EstimateTokensDefault(messages)
}

// FailingMockProvider always fails.
type FailingMockProvider struct {
	Err error
}

func (f *FailingMockProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if f.Err == nil {
		return nil, fmt.Errorf("mock error")
	}
	return nil, f.Err
}
