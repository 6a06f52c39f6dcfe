package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/memas-labs/memas-core/internal/core/domain"
)

// MockNameIndex is a mock implementation of NameIndex for testing.
// It simulates the atomic conditional semantics with in-memory state and
// supports custom behavior injection.
type MockNameIndex struct {
	mu      sync.Mutex
	entries map[string]uuid.UUID

	// Custom behavior hooks (optional)
	PutIfAbsentFn      func(pathname string, id uuid.UUID) (bool, error)
	LookupFn           func(pathname string) (uuid.UUID, error)
	CompareAndDeleteFn func(pathname string, id uuid.UUID) (bool, error)
	PingFn             func() error
}

// NewMockNameIndex creates a new MockNameIndex
func NewMockNameIndex() *MockNameIndex {
	return &MockNameIndex{
		entries: make(map[string]uuid.UUID),
	}
}

func (m *MockNameIndex) PutIfAbsent(ctx context.Context, pathname string, id uuid.UUID) (bool, error) {
	if m.PutIfAbsentFn != nil {
		return m.PutIfAbsentFn(pathname, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.entries[pathname]; exists {
		return false, nil
	}
	m.entries[pathname] = id
	return true, nil
}

func (m *MockNameIndex) Lookup(ctx context.Context, pathname string) (uuid.UUID, error) {
	if m.LookupFn != nil {
		return m.LookupFn(pathname)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	id, exists := m.entries[pathname]
	if !exists {
		return uuid.Nil, &domain.NamespaceNotFoundError{Pathname: pathname}
	}
	return id, nil
}

func (m *MockNameIndex) CompareAndDelete(ctx context.Context, pathname string, id uuid.UUID) (bool, error) {
	if m.CompareAndDeleteFn != nil {
		return m.CompareAndDeleteFn(pathname, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	current, exists := m.entries[pathname]
	if !exists || current != id {
		return false, nil
	}
	delete(m.entries, pathname)
	return true, nil
}

func (m *MockNameIndex) Ping(ctx context.Context) error {
	if m.PingFn != nil {
		return m.PingFn()
	}
	return nil
}

// Helper methods for testing

// Reset clears all entries (useful between tests).
func (m *MockNameIndex) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]uuid.UUID)
}

// Has checks whether a pathname is currently registered (for test assertions).
func (m *MockNameIndex) Has(pathname string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, exists := m.entries[pathname]
	return exists
}

// SetEntry forces an entry into the index (for test setup).
func (m *MockNameIndex) SetEntry(pathname string, id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[pathname] = id
}
