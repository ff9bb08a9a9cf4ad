package models

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("models: not found")

// DefaultUserID is the single-tenant owner assigned to routines when no
// user id is supplied.
const DefaultUserID int64 = 1

// Exercise is a single exercise within a training day. It has no identity
// beyond its position in the day and is replaced wholesale on edit.
type Exercise struct {
	Name      string `json:"name"`
	Sets      int    `json:"sets"`
	Reps      string `json:"reps"` // may be a range like "8-12"
	Rest      string `json:"rest"` // free-form duration, e.g. "60-90 seg"
	Equipment string `json:"equipment"`
}

// Day is one training day: a focus label and its exercises in display order.
type Day struct {
	DayName   string     `json:"day_name"`
	Focus     string     `json:"focus"`
	Exercises []Exercise `json:"exercises"`
}

// Routine is a complete multi-day workout plan, the system's primary
// persisted entity. It is stored as a single JSON document and overwritten
// in place on every modification.
type Routine struct {
	ID          int64      `json:"id,omitempty"`
	UserID      int64      `json:"user_id"`
	RoutineName string     `json:"routine_name"`
	Days        []Day      `json:"days"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// Clone returns a deep copy of the routine. Used by the offline generator,
// which edits days in place.
func (r *Routine) Clone() *Routine {
	c := *r
	c.Days = make([]Day, len(r.Days))
	for i, d := range r.Days {
		nd := d
		nd.Exercises = append([]Exercise(nil), d.Exercises...)
		c.Days[i] = nd
	}
	return &c
}

// CreateRoutine inserts a new routine document and returns it with its
// assigned id and timestamps.
func CreateRoutine(db *sql.DB, r *Routine) (*Routine, error) {
	if r.UserID == 0 {
		r.UserID = DefaultUserID
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("models: marshal routine: %w", err)
	}

	result, err := db.Exec(
		`INSERT INTO routines (user_id, routine_name, routine_data) VALUES (?, ?, ?)`,
		r.UserID, r.RoutineName, string(data),
	)
	if err != nil {
		return nil, fmt.Errorf("models: create routine %q: %w", r.RoutineName, err)
	}

	id, _ := result.LastInsertId()
	return GetRoutineByID(db, id)
}

// GetRoutineByID retrieves a routine by primary key. The id, user_id, and
// timestamps come from the row columns, not from the stored document.
func GetRoutineByID(db *sql.DB, id int64) (*Routine, error) {
	var (
		data      string
		userID    int64
		createdAt time.Time
		updatedAt time.Time
	)
	err := db.QueryRow(
		`SELECT routine_data, user_id, created_at, updated_at FROM routines WHERE id = ?`, id,
	).Scan(&data, &userID, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("models: get routine %d: %w", id, err)
	}

	r := &Routine{}
	if err := json.Unmarshal([]byte(data), r); err != nil {
		return nil, fmt.Errorf("models: unmarshal routine %d: %w", id, err)
	}
	r.ID = id
	r.UserID = userID
	r.CreatedAt = &createdAt
	r.UpdatedAt = &updatedAt
	return r, nil
}

// UpdateRoutine overwrites the stored document for an existing routine
// (same id, last write wins).
func UpdateRoutine(db *sql.DB, r *Routine) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("models: marshal routine %d: %w", r.ID, err)
	}

	result, err := db.Exec(
		`UPDATE routines SET routine_name = ?, routine_data = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		r.RoutineName, string(data), r.ID,
	)
	if err != nil {
		return fmt.Errorf("models: update routine %d: %w", r.ID, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// RoutineSummary is a listing row: enough to render a routine picker
// without unmarshaling the full document.
type RoutineSummary struct {
	ID          int64     `json:"id"`
	RoutineName string    `json:"routine_name"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListRoutinesByUser returns all routines for a user, most recently
// updated first.
func ListRoutinesByUser(db *sql.DB, userID int64) ([]RoutineSummary, error) {
	rows, err := db.Query(
		`SELECT id, routine_name, updated_at FROM routines WHERE user_id = ? ORDER BY updated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("models: list routines for user %d: %w", userID, err)
	}
	defer rows.Close()

	var routines []RoutineSummary
	for rows.Next() {
		var s RoutineSummary
		if err := rows.Scan(&s.ID, &s.RoutineName, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("models: scan routine summary: %w", err)
		}
		routines = append(routines, s)
	}
	return routines, rows.Err()
}

// DeleteRoutine removes a routine. Its chat messages go with it (CASCADE).
func DeleteRoutine(db *sql.DB, id int64) error {
	result, err := db.Exec(`DELETE FROM routines WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("models: delete routine %d: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
