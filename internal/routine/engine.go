package routine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"gymai/internal/llm"
	"gymai/internal/models"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultMaxTokens = 8192
)

const systemPrompt = "Eres un entrenador personal profesional. Responde ÚNICAMENTE con JSON válido, sin texto adicional."

// Request carries the parameters for an initial routine.
type Request struct {
	Goals              string `json:"goals"`
	Days               int    `json:"days"`
	Equipment          string `json:"equipment"`
	ExperienceLevel    string `json:"experience_level"`
	AvailableEquipment string `json:"available_equipment"`
	TimePerSession     string `json:"time_per_session"`
	HealthConditions   string `json:"health_conditions"`
	UserID             int64  `json:"user_id"`
}

// Engine generates and modifies routines, preferring the configured LLM
// provider and degrading to the offline Fallback whenever the provider
// fails, times out, or returns output that cannot be parsed into a valid
// routine with the expected number of days. Once a routine exists, no
// chat operation ever fails because of the model.
type Engine struct {
	provider    llm.Provider
	fallback    *Fallback
	timeout     time.Duration
	temperature float64
}

// NewEngine creates an engine. A nil provider leaves the engine
// unconfigured: initial creation is refused, but modification and
// explanation still work via the fallback.
func NewEngine(provider llm.Provider, temperature float64) *Engine {
	return &Engine{
		provider:    provider,
		fallback:    NewFallback(),
		timeout:     defaultTimeout,
		temperature: temperature,
	}
}

// Configured reports whether an LLM provider is available.
func (e *Engine) Configured() bool {
	return e.provider != nil
}

// CreateInitialRoutine generates a new routine for the request. Unlike
// chat-turn operations this requires a configured provider, so a broken
// API key surfaces at creation time instead of silently serving catalog
// routines forever.
func (e *Engine) CreateInitialRoutine(ctx context.Context, req Request) (*models.Routine, error) {
	if e.provider == nil {
		return nil, llm.ErrNotConfigured
	}

	days := req.Days
	if days < 1 || days > 7 {
		days = 3
		req.Days = days
	}

	routine := e.generate(ctx, initialPrompt(req), days, func() *models.Routine {
		return e.fallback.CreateInitialRoutine(req)
	})
	routine.UserID = req.UserID
	if routine.UserID == 0 {
		routine.UserID = models.DefaultUserID
	}
	return routine, nil
}

// ModifyRoutine applies a natural-language change request to the current
// routine. It never fails: any provider or parse problem degrades to the
// keyword-based fallback edit. Identity and ownership of the stored
// routine are preserved regardless of what the model emits.
func (e *Engine) ModifyRoutine(ctx context.Context, current *models.Routine, userRequest string) *models.Routine {
	modified := e.generate(ctx, modificationPrompt(current, userRequest), len(current.Days), func() *models.Routine {
		return e.fallback.ModifyRoutine(current, userRequest)
	})
	modified.ID = current.ID
	modified.UserID = current.UserID
	return modified
}

// ExplainChanges produces a user-facing description of what changed
// between two routine versions. Provider first, diff-based fallback on
// any failure or empty response.
func (e *Engine) ExplainChanges(ctx context.Context, oldRoutine, newRoutine *models.Routine, userRequest string) string {
	if e.provider != nil {
		resp, err := e.complete(ctx, "", explanationPrompt(userRequest))
		if err != nil {
			log.Printf("routine: explanation from %s failed, using fallback: %v", e.provider.Name(), err)
		} else if text := strings.TrimSpace(resp.Content); text != "" {
			return text
		}
	}
	return e.fallback.ExplainChanges(oldRoutine, newRoutine)
}

// generate runs one provider round trip and funnels every failure mode
// into fallbackFn: request error, unextractable output, invalid document,
// or a routine with the wrong number of days.
func (e *Engine) generate(ctx context.Context, prompt string, wantDays int, fallbackFn func() *models.Routine) *models.Routine {
	if e.provider == nil {
		return fallbackFn()
	}

	resp, err := e.complete(ctx, systemPrompt, prompt)
	if err != nil {
		log.Printf("routine: generation via %s failed, using fallback: %v", e.provider.Name(), err)
		return fallbackFn()
	}

	data := llm.ExtractJSON(resp.Content)
	if data == nil {
		log.Printf("routine: no JSON found in %s response (%d bytes), using fallback", e.provider.Name(), len(resp.Content))
		return fallbackFn()
	}

	routine, err := parseRoutine(data)
	if err != nil {
		log.Printf("routine: invalid document from %s, using fallback: %v", e.provider.Name(), err)
		return fallbackFn()
	}

	if len(routine.Days) != wantDays {
		log.Printf("routine: %s returned %d days, want %d, using fallback", e.provider.Name(), len(routine.Days), wantDays)
		return fallbackFn()
	}

	return routine
}

func (e *Engine) complete(ctx context.Context, system, user string) (*llm.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.provider.Generate(ctx, system, user, llm.Options{
		Temperature: e.temperature,
		MaxTokens:   defaultMaxTokens,
	})
}

// --- Prompts ---

func initialPrompt(req Request) string {
	return fmt.Sprintf(`Actúa como un entrenador personal profesional y crea una rutina de entrenamiento detallada con estas características:

Objetivos: %s
Días de entrenamiento: %d días a la semana
Nivel de experiencia: %s
Equipo disponible: %s
Tiempo por sesión: %s
Condiciones de salud: %s

La rutina debe seguir ESTRICTAMENTE este formato JSON:

{
    "routine_name": "Nombre descriptivo de la rutina",
    "days": [
        {
            "day_name": "Lunes",
            "focus": "Parte del cuerpo que se trabaja ese día",
            "exercises": [
                {
                    "name": "Nombre del ejercicio",
                    "sets": 3,
                    "reps": "8-12",
                    "rest": "60-90 seg",
                    "equipment": "Equipamiento necesario"
                }
            ]
        }
    ]
}

IMPORTANTE:
1. Devuelve SOLO el JSON válido, sin texto explicativo.
2. Incluye exactamente %d días en la rutina.
3. Cada día debe tener entre 4 y 6 ejercicios.
4. Los nombres de los días deben ser en español (Lunes, Martes, etc.).`,
		req.Goals, req.Days,
		orDefault(req.ExperienceLevel, "No especificado"),
		orDefault(firstNonEmpty(req.AvailableEquipment, req.Equipment), "No especificado"),
		orDefault(req.TimePerSession, "No especificado"),
		orDefault(req.HealthConditions, "Ninguna"),
		req.Days)
}

func modificationPrompt(current *models.Routine, userRequest string) string {
	routineJSON, err := json.Marshal(current)
	if err != nil {
		routineJSON = []byte("{}")
	}
	return fmt.Sprintf(`Actúa como un entrenador personal. El usuario tiene la siguiente rutina de entrenamiento:

`+"```json\n%s\n```"+`

El usuario ha solicitado: "%s"

Modifica la rutina según esta solicitud y devuelve SOLO el JSON actualizado con el mismo formato.
No incluyas campos como "id", "user_id", "created_at" o "updated_at" en la respuesta.`,
		routineJSON, userRequest)
}

func explanationPrompt(userRequest string) string {
	return fmt.Sprintf(`Actúa como un entrenador personal profesional.

He realizado cambios a una rutina de entrenamiento basados en la siguiente solicitud del usuario:
"%s"

Por favor, genera una explicación clara y concisa de los cambios que se han hecho a la rutina.
Menciona qué ejercicios se han añadido, eliminado o modificado, y el razonamiento detrás de estos cambios.

La explicación debe ser profesional, motivadora y fácil de entender.

No incluyas código JSON ni formato técnico. Solo texto natural explicando los cambios.`, userRequest)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
