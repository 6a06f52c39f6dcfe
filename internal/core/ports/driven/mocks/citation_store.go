package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/memas-labs/memas-core/internal/core/domain"
)

// MockCitationStore is a mock implementation of CitationStore for testing
type MockCitationStore struct {
	mu        sync.RWMutex
	citations map[string]domain.Citation // key: corpusID:documentID
	segments  map[string]int
	byCorpus  map[uuid.UUID][]string
}

// NewMockCitationStore creates a new MockCitationStore
func NewMockCitationStore() *MockCitationStore {
	return &MockCitationStore{
		citations: make(map[string]domain.Citation),
		segments:  make(map[string]int),
		byCorpus:  make(map[uuid.UUID][]string),
	}
}

func (m *MockCitationStore) Put(ctx context.Context, corpusID, documentID uuid.UUID, segmentCount int, citation domain.Citation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := rowKey(corpusID, documentID)
	m.citations[key] = citation
	m.segments[key] = segmentCount
	m.byCorpus[corpusID] = append(m.byCorpus[corpusID], key)
	return nil
}

func (m *MockCitationStore) Get(ctx context.Context, corpusID, documentID uuid.UUID) (*domain.Citation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	citation, ok := m.citations[rowKey(corpusID, documentID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &citation, nil
}

func (m *MockCitationStore) GetSegmentCount(ctx context.Context, corpusID, documentID uuid.UUID) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count, ok := m.segments[rowKey(corpusID, documentID)]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return count, nil
}

func (m *MockCitationStore) DeleteCorpus(ctx context.Context, corpusID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range m.byCorpus[corpusID] {
		delete(m.citations, key)
		delete(m.segments, key)
	}
	delete(m.byCorpus, corpusID)
	return nil
}

// Helper methods for testing

func (m *MockCitationStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.citations = make(map[string]domain.Citation)
	m.segments = make(map[string]int)
	m.byCorpus = make(map[uuid.UUID][]string)
}

func (m *MockCitationStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.citations)
}
