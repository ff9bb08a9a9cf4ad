package llm

import (
	"context"
	"time"
)

// MockProvider implements Provider for testing. It returns fixed content,
// or delegates to GenerateFunc when set so tests can vary the response
// per prompt.
type MockProvider struct {
	FixedContent string
	GenerateFunc func(systemPrompt, userPrompt string) (string, error)
	PingErr      error
	GenerateErr  error

	LastSystemPrompt string
	LastUserPrompt   string
	Calls            int
}

// NewMockProvider creates a mock provider with a canned response.
func NewMockProvider(content string) *MockProvider {
	return &MockProvider{FixedContent: content}
}

func (p *MockProvider) Name() string { return "Mock" }

func (p *MockProvider) Ping(_ context.Context) error {
	return p.PingErr
}

func (p *MockProvider) Generate(_ context.Context, systemPrompt, userPrompt string, _ Options) (*Response, error) {
	p.Calls++
	p.LastSystemPrompt = systemPrompt
	p.LastUserPrompt = userPrompt

	if p.GenerateErr != nil {
		return nil, p.GenerateErr
	}
	content := p.FixedContent
	if p.GenerateFunc != nil {
		var err error
		content, err = p.GenerateFunc(systemPrompt, userPrompt)
		if err != nil {
			return nil, err
		}
	}
	return &Response{
		Content:    content,
		Model:      "mock",
		TokensUsed: 100,
		Duration:   time.Millisecond,
	}, nil
}

func (p *MockProvider) GenerateWithImage(ctx context.Context, prompt string, _ []byte, _ string, opts Options) (*Response, error) {
	return p.Generate(ctx, "", prompt, opts)
}
