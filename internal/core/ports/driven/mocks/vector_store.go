package mocks

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/memas-labs/memas-core/internal/core/domain"
)

// MockVectorStore is a mock implementation of VectorStore for testing.
// The default Search treats word overlap with the clue as similarity; use
// SearchFn when a test needs exact distances and spans.
type MockVectorStore struct {
	mu       sync.RWMutex
	docs     map[string]domain.DocumentEntity // key: corpusID:documentID
	byCorpus map[uuid.UUID][]string

	// Custom behavior hooks (optional)
	SaveFn   func(entity domain.DocumentEntity) error
	SearchFn func(corpusIDs []uuid.UUID, clue string) ([]domain.VectorHit, error)
}

// NewMockVectorStore creates a new MockVectorStore
func NewMockVectorStore() *MockVectorStore {
	return &MockVectorStore{
		docs:     make(map[string]domain.DocumentEntity),
		byCorpus: make(map[uuid.UUID][]string),
	}
}

func (m *MockVectorStore) Save(ctx context.Context, entity domain.DocumentEntity) error {
	if m.SaveFn != nil {
		return m.SaveFn(entity)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	key := entity.CorpusID.String() + ":" + entity.DocumentID.String()
	if _, exists := m.docs[key]; !exists {
		m.byCorpus[entity.CorpusID] = append(m.byCorpus[entity.CorpusID], key)
	}
	m.docs[key] = entity
	return nil
}

func (m *MockVectorStore) Search(ctx context.Context, corpusIDs []uuid.UUID, clue string) ([]domain.VectorHit, error) {
	if m.SearchFn != nil {
		return m.SearchFn(corpusIDs, clue)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	words := strings.Fields(strings.ToLower(clue))
	var hits []domain.VectorHit
	for _, corpusID := range corpusIDs {
		for _, key := range m.byCorpus[corpusID] {
			doc := m.docs[key]
			text := strings.ToLower(doc.Text)
			overlap := 0
			for _, word := range words {
				if strings.Contains(text, word) {
					overlap++
				}
			}
			if overlap == 0 {
				continue
			}
			hits = append(hits, domain.VectorHit{
				Distance: 2.0 / float64(1+overlap),
				Entity:   doc,
				Start:    0,
				End:      len(doc.Text),
			})
		}
	}
	return hits, nil
}

func (m *MockVectorStore) DeleteCorpus(ctx context.Context, corpusID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range m.byCorpus[corpusID] {
		delete(m.docs, key)
	}
	delete(m.byCorpus, corpusID)
	return nil
}

// Helper methods for testing

func (m *MockVectorStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = make(map[string]domain.DocumentEntity)
	m.byCorpus = make(map[uuid.UUID][]string)
}

// CountForCorpus returns the number of stored documents for one corpus.
func (m *MockVectorStore) CountForCorpus(corpusID uuid.UUID) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byCorpus[corpusID])
}
