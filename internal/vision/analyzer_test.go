package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"gymai/internal/llm"
)

// tinyPNG returns a valid 2x2 PNG, base64 encoded.
func tinyPNG(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestAnalyzeForm_Success(t *testing.T) {
	mock := llm.NewMockProvider("Tu postura en la sentadilla es correcta, mantén la espalda recta.")
	a := NewAnalyzer(mock)

	got := a.AnalyzeForm(context.Background(), tinyPNG(t), "Sentadillas")
	if !strings.Contains(got, "postura") {
		t.Errorf("got %q", got)
	}
	if !strings.Contains(mock.LastUserPrompt, "Sentadillas") {
		t.Errorf("exercise name missing from prompt: %q", mock.LastUserPrompt)
	}
}

func TestAnalyzeForm_DataURIPrefix(t *testing.T) {
	mock := llm.NewMockProvider("Análisis completo.")
	a := NewAnalyzer(mock)

	got := a.AnalyzeForm(context.Background(), "data:image/png;base64,"+tinyPNG(t), "")
	if got != "Análisis completo." {
		t.Errorf("got %q", got)
	}
}

func TestAnalyzeForm_Disabled(t *testing.T) {
	a := NewAnalyzer(nil)

	got := a.AnalyzeForm(context.Background(), tinyPNG(t), "")
	if !strings.Contains(got, "deshabilitada") {
		t.Errorf("got %q", got)
	}
}

func TestAnalyzeForm_InvalidBase64(t *testing.T) {
	a := NewAnalyzer(llm.NewMockProvider("irrelevante"))

	got := a.AnalyzeForm(context.Background(), "esto no es base64!!!", "")
	if !strings.Contains(got, "no es válido") {
		t.Errorf("got %q", got)
	}
}

func TestAnalyzeForm_NotAnImage(t *testing.T) {
	a := NewAnalyzer(llm.NewMockProvider("irrelevante"))

	// Valid base64, but the payload is not image data.
	payload := base64.StdEncoding.EncodeToString([]byte("solo texto plano"))
	got := a.AnalyzeForm(context.Background(), payload, "")
	if !strings.Contains(got, "no es válido") {
		t.Errorf("got %q", got)
	}
}

func TestAnalyzeForm_TooLarge(t *testing.T) {
	a := NewAnalyzer(llm.NewMockProvider("irrelevante"))

	big := base64.StdEncoding.EncodeToString(make([]byte, maxImageBytes+1))
	got := a.AnalyzeForm(context.Background(), big, "")
	if !strings.Contains(got, "demasiado grande") {
		t.Errorf("got %q", got)
	}
}

func TestAnalyzeForm_ProviderError(t *testing.T) {
	mock := &llm.MockProvider{GenerateErr: errors.New("model offline")}
	a := NewAnalyzer(mock)

	got := a.AnalyzeForm(context.Background(), tinyPNG(t), "")
	if got != "No se pudo analizar la imagen. Por favor, inténtalo de nuevo." {
		t.Errorf("got %q", got)
	}
}

func TestSuggestVariations(t *testing.T) {
	mock := llm.NewMockProvider("1. Sentadilla búlgara...\n2. Zancadas...")
	a := NewAnalyzer(mock)

	got := a.SuggestVariations(context.Background(), tinyPNG(t))
	if !strings.Contains(got, "Sentadilla búlgara") {
		t.Errorf("got %q", got)
	}
	if !strings.Contains(mock.LastUserPrompt, "variaciones") {
		t.Errorf("prompt = %q", mock.LastUserPrompt)
	}
}

func TestSuggestVariations_ProviderError(t *testing.T) {
	mock := &llm.MockProvider{GenerateErr: errors.New("model offline")}
	a := NewAnalyzer(mock)

	got := a.SuggestVariations(context.Background(), tinyPNG(t))
	if got != "No se pudieron generar variaciones. Por favor, inténtalo de nuevo." {
		t.Errorf("got %q", got)
	}
}
