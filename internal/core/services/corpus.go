package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/memas-labs/memas-core/internal/core/domain"
	"github.com/memas-labs/memas-core/internal/core/ports/driven"
	"github.com/memas-labs/memas-core/internal/textsplit"
	"golang.org/x/sync/errgroup"
)

// MaxSegmentChars bounds the length of one lexical-index chunk.
const MaxSegmentChars = 1536

// corpusContent owns a corpus's document content across the three backing
// stores: citations, lexical chunks and sentence vectors. It knows nothing
// about names or the registry.
type corpusContent struct {
	citations driven.CitationStore
	docs      driven.DocumentStore
	vectors   driven.VectorStore
	logger    *slog.Logger
}

func newCorpusContent(citations driven.CitationStore, docs driven.DocumentStore, vectors driven.VectorStore, logger *slog.Logger) *corpusContent {
	if logger == nil {
		logger = slog.Default()
	}
	return &corpusContent{
		citations: citations,
		docs:      docs,
		vectors:   vectors,
		logger:    logger,
	}
}

// ContentPurger is the subset of corpus content handling the deletion
// worker needs.
type ContentPurger interface {
	DeleteAllContent(ctx context.Context, corpusID uuid.UUID) error
}

// NewContentPurger builds a purger over the three content stores.
func NewContentPurger(citations driven.CitationStore, docs driven.DocumentStore, vectors driven.VectorStore, logger *slog.Logger) ContentPurger {
	return newCorpusContent(citations, docs, vectors, logger)
}

// StoreAndIndex writes one document into all three stores concurrently.
// The three writes are independent; a partial failure leaves the others in
// place and is reported, not rolled back.
func (c *corpusContent) StoreAndIndex(ctx context.Context, corpusID uuid.UUID, document string, citation domain.Citation) (bool, error) {
	documentID := uuid.New()

	segments := textsplit.SegmentDocument(document, MaxSegmentChars)
	chunks := make([]domain.ChunkEntity, 0, len(segments))
	for i, segment := range segments {
		chunks = append(chunks, domain.ChunkEntity{
			Key: domain.ChunkKey(documentID, i),
			Entity: domain.DocumentEntity{
				CorpusID:   corpusID,
				DocumentID: documentID,
				Name:       citation.DocumentName,
				Text:       segment,
			},
		})
	}

	entity := domain.DocumentEntity{
		CorpusID:   corpusID,
		DocumentID: documentID,
		Name:       citation.DocumentName,
		Text:       document,
	}

	var g errgroup.Group
	g.Go(func() error {
		if err := c.citations.Put(ctx, corpusID, documentID, len(segments), citation); err != nil {
			c.logger.Error("citation write failed", "corpus_id", corpusID, "document_id", documentID, "error", err)
			return fmt.Errorf("store citation: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := c.docs.SaveChunks(ctx, chunks); err != nil {
			c.logger.Error("chunk index failed", "corpus_id", corpusID, "document_id", documentID, "error", err)
			return fmt.Errorf("index chunks: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := c.vectors.Save(ctx, entity); err != nil {
			c.logger.Error("vector index failed", "corpus_id", corpusID, "document_id", documentID, "error", err)
			return fmt.Errorf("index vectors: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return false, err
	}

	c.logger.Debug("document stored",
		"corpus_id", corpusID, "document_id", documentID, "segments", len(segments))
	return true, nil
}

// DeleteAllContent purges every trace of the corpus's documents from the
// three stores. Idempotent; rerunning against already-purged stores is a
// no-op.
func (c *corpusContent) DeleteAllContent(ctx context.Context, corpusID uuid.UUID) error {
	if err := c.citations.DeleteCorpus(ctx, corpusID); err != nil {
		return fmt.Errorf("purge citations: %w", err)
	}
	if err := c.docs.DeleteCorpus(ctx, corpusID); err != nil {
		return fmt.Errorf("purge chunks: %w", err)
	}
	if err := c.vectors.DeleteCorpus(ctx, corpusID); err != nil {
		return fmt.Errorf("purge vectors: %w", err)
	}
	c.logger.Info("corpus content purged", "corpus_id", corpusID)
	return nil
}
