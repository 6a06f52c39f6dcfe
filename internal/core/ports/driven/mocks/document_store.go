package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/memas-labs/memas-core/internal/core/domain"
)

// MockDocumentStore is a mock implementation of DocumentStore for testing.
// The default Search scores chunks by counting clue words contained in the
// chunk text, which is deterministic and good enough for ranking tests.
type MockDocumentStore struct {
	mu       sync.RWMutex
	chunks   map[string]domain.ChunkEntity
	byCorpus map[uuid.UUID][]string

	// Custom behavior hooks (optional)
	SaveChunksFn func(chunks []domain.ChunkEntity) error
	SearchFn     func(corpusIDs []uuid.UUID, clue string) ([]domain.DocumentHit, error)
}

// NewMockDocumentStore creates a new MockDocumentStore
func NewMockDocumentStore() *MockDocumentStore {
	return &MockDocumentStore{
		chunks:   make(map[string]domain.ChunkEntity),
		byCorpus: make(map[uuid.UUID][]string),
	}
}

func (m *MockDocumentStore) SaveChunks(ctx context.Context, chunks []domain.ChunkEntity) error {
	if m.SaveChunksFn != nil {
		return m.SaveChunksFn(chunks)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, chunk := range chunks {
		if _, exists := m.chunks[chunk.Key]; !exists {
			m.byCorpus[chunk.Entity.CorpusID] = append(m.byCorpus[chunk.Entity.CorpusID], chunk.Key)
		}
		m.chunks[chunk.Key] = chunk
	}
	return nil
}

func (m *MockDocumentStore) Search(ctx context.Context, corpusIDs []uuid.UUID, clue string) ([]domain.DocumentHit, error) {
	if m.SearchFn != nil {
		return m.SearchFn(corpusIDs, clue)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	words := strings.Fields(strings.ToLower(clue))
	var hits []domain.DocumentHit
	for _, corpusID := range corpusIDs {
		for _, key := range m.byCorpus[corpusID] {
			chunk := m.chunks[key]
			text := strings.ToLower(chunk.Entity.Text)
			score := 0.0
			for _, word := range words {
				if strings.Contains(text, word) {
					score++
				}
			}
			if score > 0 {
				hits = append(hits, domain.DocumentHit{Score: score, Entity: chunk.Entity})
			}
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	return hits, nil
}

func (m *MockDocumentStore) DeleteCorpus(ctx context.Context, corpusID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range m.byCorpus[corpusID] {
		delete(m.chunks, key)
	}
	delete(m.byCorpus, corpusID)
	return nil
}

func (m *MockDocumentStore) HealthCheck(ctx context.Context) error {
	return nil
}

// Helper methods for testing

func (m *MockDocumentStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks = make(map[string]domain.ChunkEntity)
	m.byCorpus = make(map[uuid.UUID][]string)
}

func (m *MockDocumentStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks)
}

// CountForCorpus returns the number of stored chunks for one corpus.
func (m *MockDocumentStore) CountForCorpus(corpusID uuid.UUID) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byCorpus[corpusID])
}
