package driving

import (
	"context"

	"github.com/memas-labs/memas-core/internal/core/domain"
)

// MemoryService is the data-plane surface: store documents into corpora and
// recall them by free-text clue.
type MemoryService interface {
	// Memorize stores and indexes a document in the corpus named by
	// corpusPathname. Returns false when any of the backing writes failed;
	// partial writes are not rolled back.
	Memorize(ctx context.Context, corpusPathname, document string, citation domain.Citation) (bool, error)

	// Recall searches every corpus the namespace queries by default and
	// returns at most limit fused results.
	Recall(ctx context.Context, namespacePathname, clue string, limit int) ([]domain.ScoredHit, error)

	// DeleteCorpus runs the synchronous phase of a staged corpus delete and
	// schedules the deferred content purge.
	DeleteCorpus(ctx context.Context, corpusPathname string) error
}
