package driven

import (
	"context"

	"github.com/google/uuid"
	"github.com/memas-labs/memas-core/internal/core/domain"
)

// RegistryStore persists namespace and corpus metadata rows plus the
// child-to-parent back-references. It does NOT own pathname exclusivity;
// that is the NameIndex's job. Multi-row writes that must not be observed
// half-applied (info row + back-reference) are issued as one transaction.
type RegistryStore interface {
	// InsertNamespace writes the namespace info row and its parent
	// back-reference atomically.
	InsertNamespace(ctx context.Context, rec domain.NamespaceRecord) error

	// InsertCorpus writes the corpus info row and its parent back-reference
	// atomically.
	InsertCorpus(ctx context.Context, rec domain.CorpusRecord) error

	// GetNamespace loads a namespace row by (parent id, namespace id).
	// Returns domain.ErrNotFound if absent.
	GetNamespace(ctx context.Context, parentID, namespaceID uuid.UUID) (*domain.NamespaceRecord, error)

	// GetCorpus loads a corpus row by (parent id, corpus id).
	// Returns domain.ErrNotFound if absent.
	GetCorpus(ctx context.Context, parentID, corpusID uuid.UUID) (*domain.CorpusRecord, error)

	// ListCorporaByParent returns the active corpora whose direct parent is
	// the given namespace. Corpora marked deleting are hidden.
	ListCorporaByParent(ctx context.Context, namespaceID uuid.UUID) ([]*domain.CorpusRecord, error)

	// MarkCorpusDeleting conditionally sets status=deleting, requiring the
	// row to still exist. Returns false (and no error) if the row is gone.
	MarkCorpusDeleting(ctx context.Context, parentID, corpusID uuid.UUID) (bool, error)

	// DeleteCorpus unconditionally removes the corpus row and its parent
	// back-reference atomically.
	DeleteCorpus(ctx context.Context, parentID, corpusID uuid.UUID) error

	// UpdateQueryDefaults rewrites a namespace's default-query corpus set.
	// Used by the self-healing prune of stale references.
	UpdateQueryDefaults(ctx context.Context, parentID, namespaceID uuid.UUID, refs []string) error

	// Ping checks if the store backend is healthy.
	Ping(ctx context.Context) error
}
