package driven

import (
	"context"

	"github.com/google/uuid"
	"github.com/memas-labs/memas-core/internal/core/domain"
)

// DocumentStore is the lexical full-text index over document chunks.
type DocumentStore interface {
	// SaveChunks indexes all chunks of a document in one batched call.
	SaveChunks(ctx context.Context, chunks []domain.ChunkEntity) error

	// Search runs one full-text query across all of the given corpora.
	// Hits come back with descending-better scores.
	Search(ctx context.Context, corpusIDs []uuid.UUID, clue string) ([]domain.DocumentHit, error)

	// DeleteCorpus removes every chunk belonging to a corpus.
	DeleteCorpus(ctx context.Context, corpusID uuid.UUID) error

	// HealthCheck verifies the index is available.
	HealthCheck(ctx context.Context) error
}
