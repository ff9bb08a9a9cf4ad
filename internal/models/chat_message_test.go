package models

import (
	"fmt"
	"testing"
	"time"
)

func TestChatMessageHistory(t *testing.T) {
	db := testDB(t)

	created, err := CreateRoutine(db, sampleRoutine())
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		sender := SenderUser
		if i%2 == 1 {
			sender = SenderAssistant
		}
		if _, err := CreateChatMessage(db, created.ID, sender, fmt.Sprintf("mensaje %d", i)); err != nil {
			t.Fatalf("CreateChatMessage: %v", err)
		}
	}

	messages, err := ListChatMessages(db, created.ID)
	if err != nil {
		t.Fatalf("ListChatMessages: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("len = %d, want 3", len(messages))
	}
	for i, m := range messages {
		if m.Content != fmt.Sprintf("mensaje %d", i) {
			t.Errorf("message %d content = %q, out of order", i, m.Content)
		}
		if m.RoutineID != created.ID {
			t.Errorf("message %d routine id = %d", i, m.RoutineID)
		}
	}
	if messages[0].Sender != SenderUser || messages[1].Sender != SenderAssistant {
		t.Error("senders not preserved")
	}
}

func TestCreateChatMessage_UnknownRoutine(t *testing.T) {
	db := testDB(t)

	// FK enforcement rejects messages for routines that don't exist.
	if _, err := CreateChatMessage(db, 999, SenderUser, "hola"); err == nil {
		t.Fatal("expected foreign key violation")
	}
}

func TestPruneChatMessages(t *testing.T) {
	db := testDB(t)

	created, err := CreateRoutine(db, sampleRoutine())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := CreateChatMessage(db, created.ID, SenderUser, "viejo"); err != nil {
		t.Fatal(err)
	}

	// Cutoff far in the past removes nothing.
	pruned, err := PruneChatMessages(db, time.Now().AddDate(-1, 0, 0))
	if err != nil {
		t.Fatalf("PruneChatMessages: %v", err)
	}
	if pruned != 0 {
		t.Errorf("pruned = %d, want 0", pruned)
	}

	// Cutoff far in the future removes everything.
	pruned, err = PruneChatMessages(db, time.Now().AddDate(1, 0, 0))
	if err != nil {
		t.Fatalf("PruneChatMessages: %v", err)
	}
	if pruned != 1 {
		t.Errorf("pruned = %d, want 1", pruned)
	}
}
