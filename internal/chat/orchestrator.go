// Package chat coordinates a full conversational turn: load the routine,
// persist the user message, run the model, persist the result, and fan
// the update out to every connected client.
package chat

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"gymai/internal/models"
	"gymai/internal/routine"
	"gymai/internal/vision"
)

// Broadcaster pushes a message to every client watching a routine. The
// ws.Hub satisfies it; tests substitute a recorder.
type Broadcaster interface {
	Broadcast(routineID int64, message any)
}

// TurnResult is what a completed chat turn produced. It doubles as the
// HTTP fallback response body.
type TurnResult struct {
	Routine     *models.Routine `json:"routine"`
	Explanation string          `json:"explanation"`
}

// Orchestrator runs chat turns. Turns for the same routine are serialized
// with a per-routine mutex so concurrent messages cannot interleave their
// read-modify-write cycles; different routines proceed in parallel.
type Orchestrator struct {
	db          *sql.DB
	engine      *routine.Engine
	analyzer    *vision.Analyzer
	broadcaster Broadcaster

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewOrchestrator wires a chat orchestrator.
func NewOrchestrator(db *sql.DB, engine *routine.Engine, analyzer *vision.Analyzer, b Broadcaster) *Orchestrator {
	return &Orchestrator{
		db:          db,
		engine:      engine,
		analyzer:    analyzer,
		broadcaster: b,
		locks:       make(map[int64]*sync.Mutex),
	}
}

func (o *Orchestrator) lockRoutine(routineID int64) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	l, ok := o.locks[routineID]
	if !ok {
		l = &sync.Mutex{}
		o.locks[routineID] = l
	}
	return l
}

// ProcessTurn runs one text chat turn against a routine. The broadcast
// fires only after both the updated routine and the assistant message are
// stored, so clients never see an update that failed to persist.
func (o *Orchestrator) ProcessTurn(ctx context.Context, routineID int64, message string) (*TurnResult, error) {
	l := o.lockRoutine(routineID)
	l.Lock()
	defer l.Unlock()

	current, err := models.GetRoutineByID(o.db, routineID)
	if err != nil {
		return nil, err
	}

	if _, err := models.CreateChatMessage(o.db, routineID, models.SenderUser, message); err != nil {
		return nil, fmt.Errorf("chat: save user message: %w", err)
	}

	modified := o.engine.ModifyRoutine(ctx, current, message)
	explanation := o.engine.ExplainChanges(ctx, current, modified, message)

	if err := models.UpdateRoutine(o.db, modified); err != nil {
		return nil, fmt.Errorf("chat: save routine: %w", err)
	}
	if _, err := models.CreateChatMessage(o.db, routineID, models.SenderAssistant, explanation); err != nil {
		return nil, fmt.Errorf("chat: save assistant message: %w", err)
	}

	o.broadcaster.Broadcast(routineID, map[string]any{
		"type":        "routine_update",
		"routine":     modified,
		"explanation": explanation,
	})

	return &TurnResult{Routine: modified, Explanation: explanation}, nil
}

// ProcessImageTurn analyzes an exercise image in the context of a
// routine's chat. action "suggest_variations" asks for alternative
// exercises; anything else gets form feedback. The routine itself is not
// modified.
func (o *Orchestrator) ProcessImageTurn(ctx context.Context, routineID int64, imageData, exerciseName, action string) (string, error) {
	l := o.lockRoutine(routineID)
	l.Lock()
	defer l.Unlock()

	if _, err := models.GetRoutineByID(o.db, routineID); err != nil {
		return "", err
	}

	var analysis string
	if action == "suggest_variations" {
		analysis = o.analyzer.SuggestVariations(ctx, imageData)
	} else {
		analysis = o.analyzer.AnalyzeForm(ctx, imageData, exerciseName)
	}

	if _, err := models.CreateChatMessage(o.db, routineID, models.SenderAssistant, analysis); err != nil {
		return "", fmt.Errorf("chat: save analysis: %w", err)
	}

	o.broadcaster.Broadcast(routineID, map[string]any{
		"type":     "image_analysis",
		"analysis": analysis,
	})

	return analysis, nil
}
