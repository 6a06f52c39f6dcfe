package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/memas-labs/memas-core/internal/core/domain"
)

// MockRegistryStore is a mock implementation of RegistryStore for testing
type MockRegistryStore struct {
	mu         sync.RWMutex
	namespaces map[string]*domain.NamespaceRecord // key: parentID:namespaceID
	corpora    map[string]*domain.CorpusRecord    // key: parentID:corpusID
	byParent   map[uuid.UUID][]uuid.UUID          // namespaceID -> child corpus ids

	// Custom behavior hooks (optional)
	MarkCorpusDeletingFn func(parentID, corpusID uuid.UUID) (bool, error)
	PingFn               func() error
}

// NewMockRegistryStore creates a new MockRegistryStore
func NewMockRegistryStore() *MockRegistryStore {
	return &MockRegistryStore{
		namespaces: make(map[string]*domain.NamespaceRecord),
		corpora:    make(map[string]*domain.CorpusRecord),
		byParent:   make(map[uuid.UUID][]uuid.UUID),
	}
}

func rowKey(parentID, id uuid.UUID) string {
	return parentID.String() + ":" + id.String()
}

func (m *MockRegistryStore) InsertNamespace(ctx context.Context, rec domain.NamespaceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.namespaces[rowKey(rec.ParentID, rec.NamespaceID)] = &rec
	return nil
}

func (m *MockRegistryStore) InsertCorpus(ctx context.Context, rec domain.CorpusRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.corpora[rowKey(rec.ParentID, rec.CorpusID)] = &rec
	m.byParent[rec.ParentID] = append(m.byParent[rec.ParentID], rec.CorpusID)
	return nil
}

func (m *MockRegistryStore) GetNamespace(ctx context.Context, parentID, namespaceID uuid.UUID) (*domain.NamespaceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.namespaces[rowKey(parentID, namespaceID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *MockRegistryStore) GetCorpus(ctx context.Context, parentID, corpusID uuid.UUID) (*domain.CorpusRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.corpora[rowKey(parentID, corpusID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *MockRegistryStore) ListCorporaByParent(ctx context.Context, namespaceID uuid.UUID) ([]*domain.CorpusRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.CorpusRecord
	for _, corpusID := range m.byParent[namespaceID] {
		if rec, ok := m.corpora[rowKey(namespaceID, corpusID)]; ok && rec.Status == domain.CorpusStatusActive {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockRegistryStore) MarkCorpusDeleting(ctx context.Context, parentID, corpusID uuid.UUID) (bool, error) {
	if m.MarkCorpusDeletingFn != nil {
		return m.MarkCorpusDeletingFn(parentID, corpusID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.corpora[rowKey(parentID, corpusID)]
	if !ok {
		return false, nil
	}
	rec.Status = domain.CorpusStatusDeleting
	return true, nil
}

func (m *MockRegistryStore) DeleteCorpus(ctx context.Context, parentID, corpusID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.corpora, rowKey(parentID, corpusID))
	children := m.byParent[parentID]
	for i, id := range children {
		if id == corpusID {
			m.byParent[parentID] = append(children[:i], children[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MockRegistryStore) UpdateQueryDefaults(ctx context.Context, parentID, namespaceID uuid.UUID, refs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.namespaces[rowKey(parentID, namespaceID)]
	if !ok {
		return domain.ErrNotFound
	}
	rec.QueryDefaults = append([]string(nil), refs...)
	return nil
}

func (m *MockRegistryStore) Ping(ctx context.Context) error {
	if m.PingFn != nil {
		return m.PingFn()
	}
	return nil
}

// Helper methods for testing

func (m *MockRegistryStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.namespaces = make(map[string]*domain.NamespaceRecord)
	m.corpora = make(map[string]*domain.CorpusRecord)
	m.byParent = make(map[uuid.UUID][]uuid.UUID)
}

// CorpusStatus returns the stored status of a corpus row (for test assertions).
func (m *MockRegistryStore) CorpusStatus(parentID, corpusID uuid.UUID) (domain.CorpusStatus, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.corpora[rowKey(parentID, corpusID)]
	if !ok {
		return "", false
	}
	return rec.Status, true
}

// RemoveCorpusRow drops a corpus row without bookkeeping (for test setup of
// inconsistent states).
func (m *MockRegistryStore) RemoveCorpusRow(parentID, corpusID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.corpora, rowKey(parentID, corpusID))
}
