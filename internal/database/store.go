package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// StateStore handles database operations for persisted panel state.
// Values are JSON blobs stored under fixed string keys (wizard record,
// session credential, last paired phone).
type StateStore struct {
	db *sql.DB
}

// NewStateStore initializes a new state store with SQLite database
func NewStateStore(path string) (*StateStore, error) {
	// Create directory for database if it doesn't exist
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %v", err)
		}
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %v", err)
	}

	// Create tables if they don't exist
	if err = createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %v", err)
	}

	return &StateStore{db: db}, nil
}

// createTables creates all necessary database tables
func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS panel_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	return err
}

// Put stores a value under the given key, replacing any previous value
func (store *StateStore) Put(key string, value []byte) error {
	_, err := store.db.Exec(`
		INSERT INTO panel_state (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, string(value))
	if err != nil {
		return fmt.Errorf("failed to store %s: %v", key, err)
	}
	return nil
}

// Get returns the value stored under key, or ok=false if absent
func (store *StateStore) Get(key string) (value []byte, ok bool, err error) {
	var raw string
	err = store.db.QueryRow(`SELECT value FROM panel_state WHERE key = ?`, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %v", key, err)
	}
	return []byte(raw), true, nil
}

// Delete removes the value stored under key, if any
func (store *StateStore) Delete(key string) error {
	_, err := store.db.Exec(`DELETE FROM panel_state WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %v", key, err)
	}
	return nil
}

// Close the database connection
func (store *StateStore) Close() error {
	return store.db.Close()
}

// GetDB returns the underlying database connection for direct access
func (store *StateStore) GetDB() *sql.DB {
	return store.db
}
