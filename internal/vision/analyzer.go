// Package vision analyzes exercise photos: posture and technique
// feedback, and alternative-exercise suggestions. All user-facing output
// is Spanish; every failure mode returns a message rather than an error
// so chat turns carrying images never break the session.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"log"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"gymai/internal/llm"
)

const maxImageBytes = 4 << 20

const (
	msgDisabled     = "Lo siento, la funcionalidad de análisis de imágenes está deshabilitada (proveedor de IA no configurado)."
	msgTooBig       = "La imagen es demasiado grande. Máximo: 4MB."
	msgInvalidImage = "No se pudo procesar la imagen. El formato no es válido o está corrupta."
	msgAnalyzeFail  = "No se pudo analizar la imagen. Por favor, inténtalo de nuevo."
	msgVariantsFail = "No se pudieron generar variaciones. Por favor, inténtalo de nuevo."
)

// Analyzer sends validated images to an LLM provider for analysis.
type Analyzer struct {
	provider llm.Provider
}

// NewAnalyzer creates an analyzer. A nil provider disables analysis; the
// methods then return the disabled message.
func NewAnalyzer(provider llm.Provider) *Analyzer {
	return &Analyzer{provider: provider}
}

// AnalyzeForm evaluates posture and technique in an exercise photo.
// imageData is base64, with or without a data URI prefix. exerciseName
// narrows the analysis when the client knows what is being performed.
func (a *Analyzer) AnalyzeForm(ctx context.Context, imageData, exerciseName string) string {
	raw, mimeType, errMsg := a.decodeImage(imageData)
	if errMsg != "" {
		return errMsg
	}

	var prompt string
	if exerciseName != "" {
		prompt = fmt.Sprintf(`Analiza esta imagen donde la persona está realizando el ejercicio: %s.

Por favor, proporciona:
1. Una evaluación de su postura y técnica
2. Puntos específicos de mejora
3. Consejos para mejorar la forma del ejercicio
4. Posibles riesgos de lesión basados en la técnica mostrada

Responde en español de forma clara y concisa.`, exerciseName)
	} else {
		prompt = `Analiza esta imagen de una persona haciendo ejercicio.

Por favor:
1. Identifica qué ejercicio está realizando
2. Evalúa su postura y técnica
3. Proporciona consejos específicos para mejorar
4. Menciona los beneficios del ejercicio y músculos trabajados

Responde en español de forma clara y concisa.`
	}

	return a.analyze(ctx, prompt, raw, mimeType, msgAnalyzeFail)
}

// SuggestVariations proposes alternative exercises working the same
// muscle groups as the one shown.
func (a *Analyzer) SuggestVariations(ctx context.Context, imageData string) string {
	raw, mimeType, errMsg := a.decodeImage(imageData)
	if errMsg != "" {
		return errMsg
	}

	prompt := `Observa esta imagen de ejercicio y sugiere 4-5 variaciones alternativas que trabajen los mismos grupos musculares.

Para cada variación, incluye:
- Nombre del ejercicio
- Breve descripción de cómo realizarlo
- Equipo necesario (si aplica)
- Si es más fácil o más difícil que el ejercicio mostrado

Responde en español de forma clara y concisa.`

	return a.analyze(ctx, prompt, raw, mimeType, msgVariantsFail)
}

func (a *Analyzer) analyze(ctx context.Context, prompt string, raw []byte, mimeType, failMsg string) string {
	resp, err := a.provider.GenerateWithImage(ctx, prompt, raw, mimeType, llm.Options{MaxTokens: 2048})
	if err != nil {
		log.Printf("vision: analysis via %s failed: %v", a.provider.Name(), err)
		return failMsg
	}
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return failMsg
	}
	return text
}

// decodeImage validates base64 image payloads. On any problem the third
// return value carries the user-facing Spanish message and the caller
// returns it verbatim.
func (a *Analyzer) decodeImage(imageData string) ([]byte, string, string) {
	if a.provider == nil {
		return nil, "", msgDisabled
	}

	payload := imageData
	if strings.HasPrefix(payload, "data:image") {
		_, after, found := strings.Cut(payload, ",")
		if !found {
			return nil, "", msgInvalidImage
		}
		payload = after
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		log.Printf("vision: base64 decode failed: %v", err)
		return nil, "", msgInvalidImage
	}

	if len(raw) > maxImageBytes {
		return nil, "", msgTooBig
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		log.Printf("vision: image decode failed: %v", err)
		return nil, "", msgInvalidImage
	}

	return raw, "image/" + format, ""
}
