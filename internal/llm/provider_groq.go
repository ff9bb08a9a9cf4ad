package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

const groqBaseURL = "https://api.groq.com/openai/v1"

// GroqProvider implements Provider for Groq's OpenAI-compatible API
// (Llama models). Text-only: Groq was adopted before any image work, and
// image analysis stays on Gemini.
type GroqProvider struct {
	client openai.Client
	model  string
}

// NewGroqProvider creates a Groq provider.
func NewGroqProvider(apiKey, model string) *GroqProvider {
	if model == "" {
		model = "llama-3.3-70b-versatile"
	}
	return &GroqProvider{
		client: openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithBaseURL(groqBaseURL),
		),
		model: model,
	}
}

func (p *GroqProvider) Name() string { return "Groq" }

func (p *GroqProvider) Ping(ctx context.Context) error {
	_, err := p.Generate(ctx, "Responde con OK.", "ping", Options{MaxTokens: 10})
	return err
}

func (p *GroqProvider) Generate(ctx context.Context, systemPrompt, userPrompt string, opts Options) (*Response, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if systemPrompt != "" {
		messages = append(messages, openai.SystemMessage(systemPrompt))
	}
	messages = append(messages, openai.UserMessage(userPrompt))

	params := openai.ChatCompletionNewParams{
		Model:    p.model,
		Messages: messages,
	}
	if opts.Temperature > 0 {
		params.Temperature = openai.Float(opts.Temperature)
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(opts.MaxTokens))
	}

	start := time.Now()
	chat, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, &APIError{
				Provider:   "groq",
				StatusCode: apiErr.StatusCode,
				Code:       apiErr.Code,
				Message:    apiErr.Message,
			}
		}
		return nil, fmt.Errorf("llm/groq: request failed: %w", err)
	}

	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("llm/groq: no choices in response")
	}

	return &Response{
		Content:    chat.Choices[0].Message.Content,
		Model:      chat.Model,
		TokensUsed: int(chat.Usage.TotalTokens),
		Duration:   time.Since(start),
	}, nil
}

func (p *GroqProvider) GenerateWithImage(ctx context.Context, prompt string, image []byte, mimeType string, opts Options) (*Response, error) {
	return nil, fmt.Errorf("llm/groq: image input not supported by model %s", p.model)
}
