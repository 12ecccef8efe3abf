package llm

import (
	"context"
	"errors"
	"sync"
)

// ScriptedMockProvider is a mock provider that returns a pre-defined sequence of responses.
// Useful for testing multi-turn interactions (e.g. ReAct loop).
type ScriptedMockProvider struct {
	mu        sync.Mutex
	Responses []string
	Steps     []ChatResponse
	Err       error
	// CallCount tracks how many times Chat has been called
	CallCount int

	// ContextLimitSize and TokensPerMessage, when set, make this
	// provider implement ContextAware deterministically.
	ContextLimitSize int
	TokensPerMessage int
}

// NewScriptedMockProvider creates a new ScriptedMockProvider.
// The model argument is currently ignored by the mock but included for compatibility.
func NewScriptedMockProvider(model string, responses ...string) *ScriptedMockProvider {
	return &ScriptedMockProvider{
		Responses: responses,
	}
}

// NewScriptedProviderWithSteps creates a ScriptedMockProvider that
// replays full ChatResponse values (including tool calls) in order.
func NewScriptedProviderWithSteps(steps ...ChatResponse) *ScriptedMockProvider {
	return &ScriptedMockProvider{Steps: steps}
}

// Chat pops the next scripted step or response, or returns the
// configured error.
func (s *ScriptedMockProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.CallCount++

	if s.Err != nil {
		return nil, s.Err
	}

	if len(s.Steps) > 0 {
		step := s.Steps[0]
		s.Steps = s.Steps[1:]
		return &step, nil
	}

	if len(s.Responses) == 0 {
		return nil, errors.New("scripted mock: no more responses available")
	}

	// Pop the first response
	content := s.Responses[0]
	s.Responses = s.Responses[1:]

	return &ChatResponse{
		Content: content,
		Usage: Usage{
			PromptTokens:     10,
			CompletionTokens: 10,
			TotalTokens:      20,
		},
	}, nil
}

// ContextLimit implements ContextAware.
func (s *ScriptedMockProvider) ContextLimit() int {
	if s.ContextLimitSize > 0 {
		return s.ContextLimitSize
	}
	return DefaultContextLimit
}

// EstimateTokens implements ContextAware.
func (s *ScriptedMockProvider) EstimateTokens(messages []Message) int {
	if s.TokensPerMessage > 0 {
		return len(messages) * s.TokensPerMessage
	}
	return EstimateTokensDefault(messages)
}

// AddResponse appends a response to the queue.
func (s *ScriptedMockProvider) AddResponse(response string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Responses = append(s.Responses, response)
}

// PeekNext returns the next queued string response, or empty string.
// Queued Steps, which Chat returns first, are not considered.
func (s *ScriptedMockProvider) PeekNext() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Responses) == 0 {
		return ""
	}
	return s.Responses[0]
}
