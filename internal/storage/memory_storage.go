package storage

import (
	"context"
	"slices"
	"sync"
)

// MemoryStorage keeps tables in process memory. Values are copied on the way in
// and out so callers can never mutate stored state.
type MemoryStorage struct {
	mu     sync.RWMutex
	tables map[string]map[string][]byte
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{tables: make(map[string]map[string][]byte)}
}

// Put stores a copy of value under key in table.
func (m *MemoryStorage) Put(ctx context.Context, table, key string, value []byte) error {
	if err := validateName(table, key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entries, ok := m.tables[table]
	if !ok {
		entries = make(map[string][]byte)
		m.tables[table] = entries
	}
	entries[key] = slices.Clone(value)
	return nil
}

// Get returns a copy of the value stored under key.
func (m *MemoryStorage) Get(ctx context.Context, table, key string) ([]byte, error) {
	if err := validateName(table, key); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.tables[table][key]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(value), nil
}

// Delete removes key from table.
func (m *MemoryStorage) Delete(ctx context.Context, table, key string) error {
	if err := validateName(table, key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.tables[table], key)
	return nil
}

// Enumerate returns the sorted keys of table.
func (m *MemoryStorage) Enumerate(ctx context.Context, table string) ([]string, error) {
	if table == "" {
		return nil, ErrInvalidName
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.tables[table]))
	for key := range m.tables[table] {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys, nil
}
