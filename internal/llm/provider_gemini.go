package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// GeminiProvider implements Provider for the Gemini generateContent API.
type GeminiProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewGeminiProvider creates a Gemini provider.
func NewGeminiProvider(apiKey, model string) *GeminiProvider {
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &GeminiProvider{
		apiKey:  apiKey,
		model:   model,
		baseURL: "https://generativelanguage.googleapis.com/v1beta",
		client:  &http.Client{Timeout: 2 * time.Minute},
	}
}

func (p *GeminiProvider) Name() string { return "Gemini" }

func (p *GeminiProvider) Ping(ctx context.Context) error {
	_, err := p.Generate(ctx, "", "Responde con OK.", Options{MaxTokens: 10})
	return err
}

func (p *GeminiProvider) Generate(ctx context.Context, systemPrompt, userPrompt string, opts Options) (*Response, error) {
	parts := []map[string]any{{"text": userPrompt}}
	return p.generate(ctx, systemPrompt, parts, opts)
}

func (p *GeminiProvider) GenerateWithImage(ctx context.Context, prompt string, image []byte, mimeType string, opts Options) (*Response, error) {
	parts := []map[string]any{
		{"text": prompt},
		{"inline_data": map[string]any{
			"mime_type": mimeType,
			"data":      base64.StdEncoding.EncodeToString(image),
		}},
	}
	return p.generate(ctx, "", parts, opts)
}

func (p *GeminiProvider) generate(ctx context.Context, systemPrompt string, parts []map[string]any, opts Options) (*Response, error) {
	body := map[string]any{
		"contents": []map[string]any{
			{"parts": parts},
		},
	}
	if systemPrompt != "" {
		body["system_instruction"] = map[string]any{
			"parts": []map[string]any{{"text": systemPrompt}},
		}
	}
	genConfig := map[string]any{}
	if opts.Temperature > 0 {
		genConfig["temperature"] = opts.Temperature
	}
	if opts.MaxTokens > 0 {
		genConfig["maxOutputTokens"] = opts.MaxTokens
	}
	if len(genConfig) > 0 {
		body["generationConfig"] = genConfig
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("llm/gemini: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, p.model, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("llm/gemini: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llm/gemini: request failed: %w", err)
	}
	defer resp.Body.Close()
	duration := time.Since(start)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("llm/gemini: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{
			Provider:   "gemini",
			StatusCode: resp.StatusCode,
		}
		var errResp struct {
			Error struct {
				Status  string `json:"status"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			apiErr.Code = errResp.Error.Status
			apiErr.Message = errResp.Error.Message
		} else {
			apiErr.Message = string(respBody)
		}
		return nil, apiErr
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
		UsageMetadata struct {
			TotalTokenCount int `json:"totalTokenCount"`
		} `json:"usageMetadata"`
		ModelVersion string `json:"modelVersion"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("llm/gemini: parse response: %w", err)
	}

	if len(result.Candidates) == 0 {
		return nil, fmt.Errorf("llm/gemini: no candidates in response")
	}

	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}

	return &Response{
		Content:    sb.String(),
		Model:      result.ModelVersion,
		TokensUsed: result.UsageMetadata.TotalTokenCount,
		Duration:   duration,
	}, nil
}
