package models

import (
	"database/sql"
	"fmt"
	"log"
	"strconv"
)

// GetSetting reads a value from app_settings. Returns "" when the key is
// absent or the read fails; callers treat empty as "not configured".
func GetSetting(db *sql.DB, key string) string {
	var value string
	err := db.QueryRow(`SELECT value FROM app_settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("models: get setting %q: %v", key, err)
		}
		return ""
	}
	return value
}

// GetSettingInt reads an integer setting, falling back to def when the
// setting is absent or not numeric.
func GetSettingInt(db *sql.DB, key string, def int) int {
	v := GetSetting(db, key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// SetSetting writes a value to app_settings, inserting or replacing.
func SetSetting(db *sql.DB, key, value string) error {
	_, err := db.Exec(
		`INSERT INTO app_settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("models: set setting %q: %w", key, err)
	}
	return nil
}
