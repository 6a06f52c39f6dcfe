package driving

import (
	"context"

	"github.com/google/uuid"
	"github.com/memas-labs/memas-core/internal/core/domain"
)

// RegistryService handles namespace and corpus naming, creation, resolution
// and staged deletion.
type RegistryService interface {
	// CreateNamespace creates a namespace for the given pathname.
	// The parent namespace must already exist.
	CreateNamespace(ctx context.Context, pathname string) (uuid.UUID, error)

	// CreateConversationCorpus creates a read-write conversation corpus.
	CreateConversationCorpus(ctx context.Context, pathname string) (uuid.UUID, error)

	// CreateKnowledgeCorpus creates a read-only knowledge corpus.
	CreateKnowledgeCorpus(ctx context.Context, pathname string) (uuid.UUID, error)

	// GetCorpusInfo resolves a corpus pathname through the name index and
	// loads its info. Fails with domain.ErrInternalInconsistency if the
	// reconstructed pathname disagrees with the request.
	GetCorpusInfo(ctx context.Context, pathname string) (*domain.CorpusInfo, error)

	// GetCorpusInfoByID loads corpus info directly by ids, bypassing the
	// name index. Used during deletion recovery when the name entry may
	// already be gone.
	GetCorpusInfoByID(ctx context.Context, namespaceID, corpusID uuid.UUID) (*domain.CorpusInfo, error)

	// GetQueryCorpora returns the corpus set a namespace queries by default:
	// its registered default-query set (pruned of dangling references)
	// unioned with its direct child corpora.
	GetQueryCorpora(ctx context.Context, namespacePathname string) ([]*domain.CorpusInfo, error)

	// InitiateDeleteCorpus runs the synchronous phase of a staged delete:
	// free the pathname, then mark the corpus row deleting.
	InitiateDeleteCorpus(ctx context.Context, parentID, corpusID uuid.UUID, pathname string) error

	// FinishDeleteCorpus removes the remaining corpus metadata. Must only be
	// called after all document content has been purged from the document
	// and vector stores.
	FinishDeleteCorpus(ctx context.Context, namespaceID, corpusID uuid.UUID) error
}
