package keychain

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned when a key has no stored value
var ErrNotFound = errors.New("keychain: not found")

// Store persists string values by key
type Store interface {
	LoadString(ctx context.Context, key string) (string, error)
	SaveString(ctx context.Context, key, value string) error
}

// MemoryStore is an in-process Store
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// LoadString returns the value for key
func (m *MemoryStore) LoadString(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// SaveString stores value under key
func (m *MemoryStore) SaveString(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}
