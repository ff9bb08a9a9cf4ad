package models

import (
	"database/sql"
	"fmt"
	"time"
)

// Chat message senders.
const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

// ChatMessage is one message in a routine's chat history. Messages are
// append-only and ordered by timestamp for display.
type ChatMessage struct {
	ID        int64     `json:"id"`
	RoutineID int64     `json:"routine_id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// CreateChatMessage appends a message to a routine's chat history.
func CreateChatMessage(db *sql.DB, routineID int64, sender, content string) (int64, error) {
	result, err := db.Exec(
		`INSERT INTO chat_messages (routine_id, sender, content) VALUES (?, ?, ?)`,
		routineID, sender, content,
	)
	if err != nil {
		return 0, fmt.Errorf("models: create chat message for routine %d: %w", routineID, err)
	}
	id, _ := result.LastInsertId()
	return id, nil
}

// ListChatMessages returns the full chat history for a routine in
// chronological order.
func ListChatMessages(db *sql.DB, routineID int64) ([]*ChatMessage, error) {
	rows, err := db.Query(
		`SELECT id, routine_id, sender, content, timestamp
		 FROM chat_messages WHERE routine_id = ? ORDER BY timestamp, id`,
		routineID,
	)
	if err != nil {
		return nil, fmt.Errorf("models: list chat messages for routine %d: %w", routineID, err)
	}
	defer rows.Close()

	var messages []*ChatMessage
	for rows.Next() {
		m := &ChatMessage{}
		if err := rows.Scan(&m.ID, &m.RoutineID, &m.Sender, &m.Content, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("models: scan chat message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// PruneChatMessages deletes messages older than the cutoff across all
// routines. Returns the number of rows removed.
func PruneChatMessages(db *sql.DB, before time.Time) (int64, error) {
	result, err := db.Exec(`DELETE FROM chat_messages WHERE timestamp < ?`, before)
	if err != nil {
		return 0, fmt.Errorf("models: prune chat messages: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}
