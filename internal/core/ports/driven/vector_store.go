package driven

import (
	"context"

	"github.com/google/uuid"
	"github.com/memas-labs/memas-core/internal/core/domain"
)

// VectorStore is the similarity index over per-sentence embeddings.
// Save takes whole documents; the store re-segments and embeds internally.
type VectorStore interface {
	// Save segments, embeds and indexes a whole document.
	Save(ctx context.Context, entity domain.DocumentEntity) error

	// Search runs one nearest-neighbor query across all of the given
	// corpora. Hits come back with ascending-better L2 distances and the
	// [start, end) character span of the hit inside its original document.
	Search(ctx context.Context, corpusIDs []uuid.UUID, clue string) ([]domain.VectorHit, error)

	// DeleteCorpus removes every vector row belonging to a corpus.
	DeleteCorpus(ctx context.Context, corpusID uuid.UUID) error
}
