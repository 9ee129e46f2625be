package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/kmdeck/sceneset/internal/shared"
)

// Store is a scoped key-value store for auth state.
//
// The durable scope (sqlite-backed) holds the token set and user profile
// across runs; the session scope (MemoryStore) holds the PKCE verifier for
// the lifetime of one process.
type Store interface {
	// Load returns the value stored under key, or an error wrapping
	// [shared.ErrKeyNotFound] when the key is absent.
	Load(key string) ([]byte, error)
	// Save overwrites the value stored under key.
	Save(key string, value []byte) error
	// Clear removes key; clearing an absent key is not an error.
	Clear(key string) error
}

// MemoryStore is an in-process Store for session-scoped state.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

func (s *MemoryStore) Load(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrKeyNotFound, key)
	}

	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (s *MemoryStore) Save(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	s.values[key] = stored
	return nil
}

func (s *MemoryStore) Clear(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}

// loadRecord deserializes the JSON value stored under key into dst.
//
// Returns false with a nil error when the key is absent, and false with an
// error wrapping [shared.ErrCorruptState] when a value exists but cannot be
// decoded. Callers collapse both to "absent" at the public boundary, but the
// distinction is kept here so corruption can be logged.
func loadRecord(store Store, key string, dst any) (bool, error) {
	value, err := store.Load(key)
	if err != nil {
		if errors.Is(err, shared.ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}

	if err := json.Unmarshal(value, dst); err != nil {
		return false, fmt.Errorf("%w: %s: %v", shared.ErrCorruptState, key, err)
	}

	return true, nil
}

// saveRecord serializes value as JSON under key.
func saveRecord(store Store, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return store.Save(key, data)
}
