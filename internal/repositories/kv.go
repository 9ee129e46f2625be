package repositories

import (
	"database/sql"
	"fmt"

	"github.com/kmdeck/sceneset/internal/shared"
)

// KVRepository is a durable key-value store over the kv_store table.
//
// Implements the auth package's Store interface for state that must survive
// process restarts (token set, user profile).
type KVRepository struct {
	db *sql.DB
}

// NewKVRepository creates a new [KVRepository] with the given database connection.
func NewKVRepository(db *sql.DB) *KVRepository {
	return &KVRepository{db: db}
}

// Load returns the value stored under key, or [shared.ErrKeyNotFound].
func (r *KVRepository) Load(key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRow("SELECT value FROM kv_store WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrKeyNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query kv_store: %w", err)
	}

	return value, nil
}

// Save overwrites the value stored under key.
func (r *KVRepository) Save(key string, value []byte) error {
	query := `
		INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`

	if _, err := r.db.Exec(query, key, value); err != nil {
		return fmt.Errorf("failed to save key %s: %w", key, err)
	}

	return nil
}

// Clear removes the value stored under key. Clearing an absent key is not an error.
func (r *KVRepository) Clear(key string) error {
	if _, err := r.db.Exec("DELETE FROM kv_store WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to clear key %s: %w", key, err)
	}
	return nil
}
