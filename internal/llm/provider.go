package llm

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"gymai/internal/models"
)

// ErrNotConfigured is returned when no completion provider credential is
// available.
var ErrNotConfigured = fmt.Errorf("llm: completion provider not configured")

// Provider is the interface for completion backends. The response text has
// no structural guarantee: callers must run it through ExtractJSON and
// validate the result themselves.
type Provider interface {
	// Generate sends an optional system prompt and a user prompt to the
	// provider and returns the raw response text.
	Generate(ctx context.Context, systemPrompt, userPrompt string, opts Options) (*Response, error)

	// GenerateWithImage sends a prompt together with image bytes. Providers
	// without an image-capable endpoint return an error.
	GenerateWithImage(ctx context.Context, prompt string, image []byte, mimeType string, opts Options) (*Response, error)

	// Ping validates connectivity and credentials. Returns nil if the
	// provider is reachable and authenticated.
	Ping(ctx context.Context) error

	// Name returns the display name of this provider (e.g. "Groq", "Gemini").
	Name() string
}

// Options controls completion behavior.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// Response holds the provider's output.
type Response struct {
	Content    string
	Model      string
	TokensUsed int
	Duration   time.Duration
}

// NewProviderFromSettings creates a Provider from app_settings, with
// environment variable overrides. When no provider is named, the first
// credential found in the environment wins: Groq, then Gemini, matching
// the order the project adopted them.
func NewProviderFromSettings(db *sql.DB) (Provider, error) {
	provider := models.GetSetting(db, "llm.provider")
	if v := os.Getenv("GYMAI_LLM_PROVIDER"); v != "" {
		provider = v
	}

	model := models.GetSetting(db, "llm.model")

	switch provider {
	case "groq":
		key := groqKey(db)
		if key == "" {
			return nil, ErrNotConfigured
		}
		return NewGroqProvider(key, model), nil
	case "gemini":
		key := geminiKey(db)
		if key == "" {
			return nil, ErrNotConfigured
		}
		return NewGeminiProvider(key, model), nil
	case "":
		if key := groqKey(db); key != "" {
			return NewGroqProvider(key, model), nil
		}
		if key := geminiKey(db); key != "" {
			return NewGeminiProvider(key, model), nil
		}
		return nil, ErrNotConfigured
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", provider)
	}
}

func groqKey(db *sql.DB) string {
	if key := models.GetSetting(db, "llm.groq_api_key"); key != "" {
		return key
	}
	return os.Getenv("GROQ_API_KEY")
}

func geminiKey(db *sql.DB) string {
	if key := models.GetSetting(db, "llm.gemini_api_key"); key != "" {
		return key
	}
	return os.Getenv("GEMINI_API_KEY")
}

// TemperatureFromSettings reads the generation temperature setting.
func TemperatureFromSettings(db *sql.DB) float64 {
	v := models.GetSetting(db, "llm.temperature")
	var temp float64
	if _, err := fmt.Sscanf(v, "%f", &temp); err != nil {
		return 0.7 // fallback default
	}
	return temp
}
