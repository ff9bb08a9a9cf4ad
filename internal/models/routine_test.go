package models

import (
	"database/sql"
	"errors"
	"testing"

	"gymai/internal/database"
)

func testDB(t testing.TB) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("run migrations: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleRoutine() *Routine {
	return &Routine{
		RoutineName: "Rutina de Fuerza - 2 días",
		Days: []Day{
			{
				DayName: "Lunes",
				Focus:   "Pecho y Tríceps",
				Exercises: []Exercise{
					{Name: "Press de banca", Sets: 5, Reps: "3-5", Rest: "180-240 seg", Equipment: "barra y banco"},
					{Name: "Fondos en paralelas", Sets: 3, Reps: "8-10", Rest: "90 seg", Equipment: "paralelas"},
				},
			},
			{
				DayName: "Jueves",
				Focus:   "Espalda y Bíceps",
				Exercises: []Exercise{
					{Name: "Dominadas", Sets: 5, Reps: "3-5", Rest: "180-240 seg", Equipment: "barra de dominadas"},
				},
			},
		},
	}
}

func TestCreateAndGetRoutine(t *testing.T) {
	db := testDB(t)

	created, err := CreateRoutine(db, sampleRoutine())
	if err != nil {
		t.Fatalf("CreateRoutine: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if created.UserID != DefaultUserID {
		t.Errorf("UserID = %d, want default %d", created.UserID, DefaultUserID)
	}
	if created.CreatedAt == nil || created.UpdatedAt == nil {
		t.Error("expected timestamps to be set")
	}

	got, err := GetRoutineByID(db, created.ID)
	if err != nil {
		t.Fatalf("GetRoutineByID: %v", err)
	}
	if got.RoutineName != "Rutina de Fuerza - 2 días" {
		t.Errorf("RoutineName = %q", got.RoutineName)
	}
	if len(got.Days) != 2 {
		t.Fatalf("len(Days) = %d, want 2", len(got.Days))
	}
	if got.Days[0].Exercises[0].Name != "Press de banca" {
		t.Errorf("first exercise = %q", got.Days[0].Exercises[0].Name)
	}
}

func TestGetRoutineByID_NotFound(t *testing.T) {
	db := testDB(t)

	_, err := GetRoutineByID(db, 999)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateRoutine(t *testing.T) {
	db := testDB(t)

	created, err := CreateRoutine(db, sampleRoutine())
	if err != nil {
		t.Fatalf("CreateRoutine: %v", err)
	}

	created.RoutineName = "Rutina de Definición - 2 días"
	created.Days[0].Exercises = append(created.Days[0].Exercises, Exercise{
		Name: "Flexiones", Sets: 3, Reps: "12-15", Rest: "45-60 seg", Equipment: "peso corporal",
	})
	if err := UpdateRoutine(db, created); err != nil {
		t.Fatalf("UpdateRoutine: %v", err)
	}

	got, err := GetRoutineByID(db, created.ID)
	if err != nil {
		t.Fatalf("GetRoutineByID: %v", err)
	}
	if got.RoutineName != "Rutina de Definición - 2 días" {
		t.Errorf("RoutineName = %q", got.RoutineName)
	}
	if len(got.Days[0].Exercises) != 3 {
		t.Errorf("len(exercises) = %d, want 3", len(got.Days[0].Exercises))
	}
}

func TestUpdateRoutine_NotFound(t *testing.T) {
	db := testDB(t)

	r := sampleRoutine()
	r.ID = 42
	if err := UpdateRoutine(db, r); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListRoutinesByUser(t *testing.T) {
	db := testDB(t)

	first, err := CreateRoutine(db, sampleRoutine())
	if err != nil {
		t.Fatal(err)
	}
	second := sampleRoutine()
	second.RoutineName = "Rutina de Masa - 2 días"
	if _, err := CreateRoutine(db, second); err != nil {
		t.Fatal(err)
	}
	other := sampleRoutine()
	other.UserID = 2
	if _, err := CreateRoutine(db, other); err != nil {
		t.Fatal(err)
	}

	routines, err := ListRoutinesByUser(db, DefaultUserID)
	if err != nil {
		t.Fatalf("ListRoutinesByUser: %v", err)
	}
	if len(routines) != 2 {
		t.Fatalf("len = %d, want 2", len(routines))
	}
	for _, s := range routines {
		if s.ID == first.ID && s.RoutineName != first.RoutineName {
			t.Errorf("summary name = %q, want %q", s.RoutineName, first.RoutineName)
		}
	}
}

func TestDeleteRoutine_CascadesChat(t *testing.T) {
	db := testDB(t)

	created, err := CreateRoutine(db, sampleRoutine())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := CreateChatMessage(db, created.ID, SenderUser, "hola"); err != nil {
		t.Fatal(err)
	}

	if err := DeleteRoutine(db, created.ID); err != nil {
		t.Fatalf("DeleteRoutine: %v", err)
	}
	if _, err := GetRoutineByID(db, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("routine still present: %v", err)
	}

	messages, err := ListChatMessages(db, created.ID)
	if err != nil {
		t.Fatalf("ListChatMessages: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("expected cascade delete, found %d message(s)", len(messages))
	}
}

func TestDeleteRoutine_NotFound(t *testing.T) {
	db := testDB(t)

	if err := DeleteRoutine(db, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRoutineClone_IsDeep(t *testing.T) {
	original := sampleRoutine()
	clone := original.Clone()

	clone.Days[0].Exercises[0].Name = "Press con mancuernas"
	clone.Days[0].Exercises = append(clone.Days[0].Exercises, Exercise{Name: "Aperturas con mancuernas"})

	if original.Days[0].Exercises[0].Name != "Press de banca" {
		t.Error("clone mutation leaked into original exercise")
	}
	if len(original.Days[0].Exercises) != 2 {
		t.Error("clone append leaked into original slice")
	}
}
