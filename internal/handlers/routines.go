// Package handlers contains the HTTP API. Handlers are small structs
// holding their dependencies, registered on the stdlib mux with method
// patterns.
package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"gymai/internal/chat"
	"gymai/internal/llm"
	"gymai/internal/models"
	"gymai/internal/notify"
	"gymai/internal/routine"
)

// Routines serves the routine CRUD and chat-fallback endpoints.
type Routines struct {
	DB     *sql.DB
	Engine *routine.Engine
	Orch   *chat.Orchestrator
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("handlers: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// Create handles POST /api/create_routine. Creation requires a working
// LLM provider; a missing key surfaces here as 503 rather than silently
// handing out catalog routines.
func (h *Routines) Create(w http.ResponseWriter, r *http.Request) {
	var req routine.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Cuerpo de la solicitud no válido")
		return
	}

	if !h.Engine.Configured() {
		writeError(w, http.StatusServiceUnavailable, "El servicio de IA no está disponible.")
		return
	}

	if req.UserID == 0 {
		req.UserID = models.DefaultUserID
	}
	if req.Days < 1 || req.Days > 7 {
		req.Days = 3
	}

	generated, err := h.Engine.CreateInitialRoutine(r.Context(), req)
	if err != nil {
		if errors.Is(err, llm.ErrNotConfigured) {
			writeError(w, http.StatusServiceUnavailable, "El servicio de IA no está disponible.")
			return
		}
		log.Printf("handlers: create routine: %v", err)
		writeError(w, http.StatusInternalServerError, "No se pudo generar la rutina")
		return
	}

	created, err := models.CreateRoutine(h.DB, generated)
	if err != nil {
		log.Printf("handlers: save routine: %v", err)
		writeError(w, http.StatusInternalServerError, "No se pudo guardar la rutina")
		return
	}

	// Seed the chat so the conversation view isn't empty. Not critical:
	// the routine is already saved.
	userMsg := fmt.Sprintf("Quiero una rutina para %s con una intensidad de %d días a la semana.", req.Goals, req.Days)
	if _, err := models.CreateChatMessage(h.DB, created.ID, models.SenderUser, userMsg); err != nil {
		log.Printf("handlers: seed user message: %v", err)
	}
	if _, err := models.CreateChatMessage(h.DB, created.ID, models.SenderAssistant,
		"¡He creado una rutina personalizada para ti! Puedes verla en el panel principal."); err != nil {
		log.Printf("handlers: seed assistant message: %v", err)
	}

	notify.Send(h.DB, "Nueva rutina", fmt.Sprintf("Rutina creada: %s", created.RoutineName))

	writeJSON(w, http.StatusCreated, map[string]any{
		"routine_id": created.ID,
		"routine":    created,
	})
}

// Modify handles POST /api/modify_routine/{routineID}, the HTTP fallback
// for clients without a WebSocket connection. It runs the same turn
// pipeline, so connected clients still get the broadcast.
func (h *Routines) Modify(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("routineID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "ID de rutina no válido")
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		writeError(w, http.StatusBadRequest, "No se proporcionó mensaje")
		return
	}

	result, err := h.Orch.ProcessTurn(r.Context(), id, req.Message)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Rutina no encontrada")
			return
		}
		log.Printf("handlers: modify routine %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "No se pudo procesar el mensaje")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"explanation": result.Explanation,
		"routine":     result.Routine,
	})
}

// Show handles GET /api/routines/{routineID}.
func (h *Routines) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("routineID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "ID de rutina no válido")
		return
	}

	rt, err := models.GetRoutineByID(h.DB, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Rutina no encontrada")
			return
		}
		log.Printf("handlers: get routine %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Error interno")
		return
	}

	writeJSON(w, http.StatusOK, rt)
}

// List handles GET /api/routines. ?user_id filters; default user 1.
func (h *Routines) List(w http.ResponseWriter, r *http.Request) {
	userID := int64(models.DefaultUserID)
	if v := r.URL.Query().Get("user_id"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "user_id no válido")
			return
		}
		userID = parsed
	}

	routines, err := models.ListRoutinesByUser(h.DB, userID)
	if err != nil {
		log.Printf("handlers: list routines for user %d: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "Error interno")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"routines": routines})
}

// Delete handles DELETE /api/routines/{routineID}. Chat history goes with
// the routine via the FK cascade.
func (h *Routines) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("routineID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "ID de rutina no válido")
		return
	}

	if err := models.DeleteRoutine(h.DB, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Rutina no encontrada")
			return
		}
		log.Printf("handlers: delete routine %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Error interno")
		return
	}

	notify.Send(h.DB, "Rutina eliminada", fmt.Sprintf("Rutina %d eliminada", id))

	writeJSON(w, http.StatusOK, map[string]string{"message": "Rutina eliminada correctamente"})
}

// ChatHistory handles GET /api/routines/{routineID}/chat.
func (h *Routines) ChatHistory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("routineID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "ID de rutina no válido")
		return
	}

	if _, err := models.GetRoutineByID(h.DB, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Rutina no encontrada")
			return
		}
		log.Printf("handlers: get routine %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Error interno")
		return
	}

	messages, err := models.ListChatMessages(h.DB, id)
	if err != nil {
		log.Printf("handlers: chat history for routine %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Error interno")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

// Health handles GET /health.
func (h *Routines) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.Ping(); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"ai_configured": h.Engine.Configured(),
	})
}
