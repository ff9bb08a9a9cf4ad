package routine

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"gymai/internal/llm"
	"gymai/internal/models"
)

func routineJSON(t *testing.T, r *models.Routine) string {
	t.Helper()
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestEngineCreateInitialRoutine_NotConfigured(t *testing.T) {
	e := NewEngine(nil, 0.7)

	if e.Configured() {
		t.Error("Configured() = true with nil provider")
	}
	_, err := e.CreateInitialRoutine(context.Background(), Request{Goals: "masa", Days: 3})
	if !errors.Is(err, llm.ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}

func TestEngineCreateInitialRoutine_FromProvider(t *testing.T) {
	generated := &models.Routine{
		RoutineName: "Rutina del modelo",
		Days: []models.Day{
			{DayName: "Lunes", Exercises: []models.Exercise{{Name: "Press de banca", Sets: 4, Reps: "6-8", Rest: "90 seg", Equipment: "barra"}}},
			{DayName: "Miércoles", Exercises: []models.Exercise{{Name: "Sentadillas", Sets: 4, Reps: "6-8", Rest: "90 seg", Equipment: "barra"}}},
		},
	}
	mock := llm.NewMockProvider("```json\n" + routineJSON(t, generated) + "\n```")
	e := NewEngine(mock, 0.7)

	r, err := e.CreateInitialRoutine(context.Background(), Request{Goals: "masa", Days: 2, UserID: 7})
	if err != nil {
		t.Fatalf("CreateInitialRoutine: %v", err)
	}
	if r.RoutineName != "Rutina del modelo" {
		t.Errorf("name = %q, fallback used unexpectedly", r.RoutineName)
	}
	if r.UserID != 7 {
		t.Errorf("UserID = %d, want 7", r.UserID)
	}
	if mock.Calls != 1 {
		t.Errorf("provider calls = %d, want 1", mock.Calls)
	}
	if !strings.Contains(mock.LastUserPrompt, "Incluye exactamente 2 días") {
		t.Errorf("prompt missing day instruction: %q", mock.LastUserPrompt)
	}
}

func TestEngineCreateInitialRoutine_ProviderErrorFallsBack(t *testing.T) {
	mock := llm.NewMockProvider("")
	mock.GenerateErr = &llm.APIError{Provider: "groq", StatusCode: 500, Message: "boom"}
	e := NewEngine(mock, 0.7)

	r, err := e.CreateInitialRoutine(context.Background(), Request{Goals: "fuerza", Days: 3})
	if err != nil {
		t.Fatalf("expected fallback, got error: %v", err)
	}
	if len(r.Days) != 3 {
		t.Errorf("fallback days = %d, want 3", len(r.Days))
	}
}

func TestEngineCreateInitialRoutine_GarbageFallsBack(t *testing.T) {
	mock := llm.NewMockProvider("Lo siento, no puedo generar una rutina en este momento.")
	e := NewEngine(mock, 0.7)

	r, err := e.CreateInitialRoutine(context.Background(), Request{Goals: "masa", Days: 4})
	if err != nil {
		t.Fatalf("expected fallback, got error: %v", err)
	}
	if len(r.Days) != 4 {
		t.Errorf("fallback days = %d, want 4", len(r.Days))
	}
}

func TestEngineCreateInitialRoutine_WrongDayCountFallsBack(t *testing.T) {
	// Model was asked for 3 days and returned 2: reject and regenerate.
	short := &models.Routine{
		RoutineName: "Rutina corta",
		Days: []models.Day{
			{DayName: "Lunes", Exercises: []models.Exercise{{Name: "Flexiones"}}},
			{DayName: "Jueves", Exercises: []models.Exercise{{Name: "Sentadillas"}}},
		},
	}
	mock := llm.NewMockProvider(routineJSON(t, short))
	e := NewEngine(mock, 0.7)

	r, err := e.CreateInitialRoutine(context.Background(), Request{Goals: "masa", Days: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Days) != 3 {
		t.Errorf("days = %d, want 3 from fallback", len(r.Days))
	}
	if r.RoutineName == "Rutina corta" {
		t.Error("short routine was accepted")
	}
}

func TestEngineModifyRoutine_PreservesIdentity(t *testing.T) {
	current := &models.Routine{
		ID:          5,
		UserID:      7,
		RoutineName: "Rutina original",
		Days: []models.Day{
			{DayName: "Lunes", Exercises: []models.Exercise{{Name: "Press de banca", Sets: 4, Reps: "6-8", Rest: "90 seg"}}},
		},
	}

	// Adversarial output claims a different id and owner.
	hijacked := current.Clone()
	hijacked.ID = 999
	hijacked.UserID = 42
	hijacked.RoutineName = "Rutina modificada"
	mock := llm.NewMockProvider(routineJSON(t, hijacked))
	e := NewEngine(mock, 0.7)

	modified := e.ModifyRoutine(context.Background(), current, "cambia el nombre")

	if modified.ID != 5 {
		t.Errorf("ID = %d, want 5", modified.ID)
	}
	if modified.UserID != 7 {
		t.Errorf("UserID = %d, want 7", modified.UserID)
	}
	if modified.RoutineName != "Rutina modificada" {
		t.Errorf("name = %q, modification lost", modified.RoutineName)
	}
}

func TestEngineModifyRoutine_NeverFails(t *testing.T) {
	current := &models.Routine{
		ID:          3,
		UserID:      1,
		RoutineName: "Rutina estable",
		Days: []models.Day{
			{DayName: "Lunes", Exercises: []models.Exercise{{Name: "Plancha", Sets: 3, Reps: "30 seg", Rest: "60 seg"}}},
		},
	}

	mocks := []*llm.MockProvider{
		{GenerateErr: errors.New("network down")},
		{FixedContent: "no hay json aquí"},
		{FixedContent: `{"routine_name": "", "days": []}`},
	}
	for i, mock := range mocks {
		e := NewEngine(mock, 0.7)
		modified := e.ModifyRoutine(context.Background(), current, "añade ejercicios")
		if modified == nil {
			t.Fatalf("case %d: nil routine", i)
		}
		if modified.ID != 3 || modified.UserID != 1 {
			t.Errorf("case %d: identity not preserved: id=%d user=%d", i, modified.ID, modified.UserID)
		}
		if len(modified.Days) != 1 {
			t.Errorf("case %d: day count changed to %d", i, len(modified.Days))
		}
	}
}

func TestEngineModifyRoutine_NilProviderUsesFallback(t *testing.T) {
	current := &models.Routine{
		ID:          2,
		UserID:      1,
		RoutineName: "Rutina sin proveedor",
		Days: []models.Day{
			{DayName: "Lunes", Exercises: []models.Exercise{{Name: "Press de banca", Sets: 4, Reps: "6-8", Rest: "90 seg", Equipment: "barra y banco"}}},
		},
	}

	e := NewEngine(nil, 0.7)
	modified := e.ModifyRoutine(context.Background(), current, "añade más ejercicios de pecho el lunes")

	if len(modified.Days[0].Exercises) <= 1 {
		t.Error("fallback modification did not apply")
	}
}

func TestEngineExplainChanges(t *testing.T) {
	oldR := &models.Routine{RoutineName: "R", Days: []models.Day{{DayName: "Lunes"}}}
	newR := oldR.Clone()

	mock := llm.NewMockProvider("He añadido dos ejercicios de pecho para dar más volumen a tu lunes.")
	e := NewEngine(mock, 0.7)
	got := e.ExplainChanges(context.Background(), oldR, newR, "más pecho")
	if !strings.Contains(got, "He añadido dos ejercicios") {
		t.Errorf("got %q", got)
	}

	// Provider failure degrades to the diff-based explanation.
	failing := &llm.MockProvider{GenerateErr: errors.New("timeout")}
	e = NewEngine(failing, 0.7)
	got = e.ExplainChanges(context.Background(), oldR, newR, "más pecho")
	if !strings.Contains(got, "No se detectaron cambios") {
		t.Errorf("fallback explanation = %q", got)
	}

	// Empty provider output also degrades.
	empty := llm.NewMockProvider("   ")
	e = NewEngine(empty, 0.7)
	got = e.ExplainChanges(context.Background(), oldR, newR, "más pecho")
	if !strings.Contains(got, "No se detectaron cambios") {
		t.Errorf("empty-output explanation = %q", got)
	}
}
