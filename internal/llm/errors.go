package llm

import "fmt"

// APIError is a non-2xx response from a completion provider's API.
type APIError struct {
	Provider   string
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("llm/%s: API error %d (%s): %s", e.Provider, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("llm/%s: API error %d: %s", e.Provider, e.StatusCode, e.Message)
}

// UserMessage returns a short, non-technical description suitable for
// showing to end users. Operators get the full detail from Error().
func (e *APIError) UserMessage() string {
	switch {
	case e.StatusCode == 401 || e.StatusCode == 403:
		return "El servicio de IA rechazó las credenciales configuradas."
	case e.StatusCode == 429:
		return "El servicio de IA está saturado en este momento. Inténtalo de nuevo en unos minutos."
	case e.StatusCode >= 500:
		return "El servicio de IA no está disponible en este momento."
	default:
		return "No se pudo completar la solicitud al servicio de IA."
	}
}
