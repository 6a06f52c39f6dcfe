package driven

import (
	"context"

	"github.com/google/uuid"
	"github.com/memas-labs/memas-core/internal/core/domain"
)

// CitationStore persists per-document provenance keyed by
// (corpus id, document id). One citation per document, immutable.
type CitationStore interface {
	// Put records the citation and segment count for a freshly ingested
	// document.
	Put(ctx context.Context, corpusID, documentID uuid.UUID, segmentCount int, citation domain.Citation) error

	// Get retrieves the citation of a document.
	// Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, corpusID, documentID uuid.UUID) (*domain.Citation, error)

	// GetSegmentCount retrieves the number of chunks a document was split
	// into at ingestion time.
	GetSegmentCount(ctx context.Context, corpusID, documentID uuid.UUID) (int, error)

	// DeleteCorpus removes all citations belonging to a corpus.
	DeleteCorpus(ctx context.Context, corpusID uuid.UUID) error
}
