package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/memas-labs/memas-core/internal/core/domain"
	"github.com/memas-labs/memas-core/internal/core/ports/driven"
	"github.com/memas-labs/memas-core/internal/core/ports/driving"
)

// Ensure memoryService implements MemoryService
var _ driving.MemoryService = (*memoryService)(nil)

// memoryService is the data-plane facade gluing together the registry, the
// per-corpus content stores and the multi-corpus searcher.
type memoryService struct {
	registry driving.RegistryService
	content  *corpusContent
	search   *searcher
	queue    driven.TaskQueue
	logger   *slog.Logger
}

// MemoryConfig tunes data-plane behavior.
type MemoryConfig struct {
	// GlobalSortRecall merges recall results across corpus types on raw
	// fused scores instead of rank interleaving. Off by default.
	GlobalSortRecall bool
}

// NewMemoryService creates a new MemoryService
func NewMemoryService(
	registry driving.RegistryService,
	citations driven.CitationStore,
	docs driven.DocumentStore,
	vectors driven.VectorStore,
	queue driven.TaskQueue,
	cfg MemoryConfig,
	logger *slog.Logger,
) driving.MemoryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &memoryService{
		registry: registry,
		content:  newCorpusContent(citations, docs, vectors, logger),
		search:   newSearcher(citations, docs, vectors, cfg.GlobalSortRecall, logger),
		queue:    queue,
		logger:   logger,
	}
}

// Memorize stores and indexes one document into the named corpus.
func (s *memoryService) Memorize(ctx context.Context, corpusPathname, document string, citation domain.Citation) (bool, error) {
	info, err := s.registry.GetCorpusInfo(ctx, corpusPathname)
	if err != nil {
		return false, err
	}

	ok, err := s.content.StoreAndIndex(ctx, info.CorpusID, document, citation)
	if err != nil {
		return false, fmt.Errorf("memorize into %q: %w", corpusPathname, err)
	}
	return ok, nil
}

// Recall searches every corpus the namespace queries by default.
func (s *memoryService) Recall(ctx context.Context, namespacePathname, clue string, limit int) ([]domain.ScoredHit, error) {
	corpora, err := s.registry.GetQueryCorpora(ctx, namespacePathname)
	if err != nil {
		return nil, err
	}

	hits, err := s.search.MultiCorpusSearch(ctx, corpora, clue, limit)
	if err != nil {
		return nil, fmt.Errorf("recall in %q: %w", namespacePathname, err)
	}
	s.logger.Debug("recall complete",
		"namespace_pathname", namespacePathname, "corpora", len(corpora), "hits", len(hits))
	return hits, nil
}

// DeleteCorpus frees the corpus pathname immediately and schedules the
// content purge. The caller observes the name gone as soon as this returns;
// the content disappears when the worker gets to it.
func (s *memoryService) DeleteCorpus(ctx context.Context, corpusPathname string) error {
	info, err := s.registry.GetCorpusInfo(ctx, corpusPathname)
	if err != nil {
		return err
	}

	if err := s.registry.InitiateDeleteCorpus(ctx, info.NamespaceID, info.CorpusID, corpusPathname); err != nil {
		return err
	}

	task := domain.NewDeleteCorpusTask(info.NamespaceID, info.CorpusID, corpusPathname)
	if err := s.queue.Enqueue(ctx, task); err != nil {
		// The name is already gone; the purge will be retried by the
		// worker's recovery path once the task lands.
		return fmt.Errorf("schedule corpus purge for %q: %w", corpusPathname, err)
	}

	s.logger.Info("corpus delete initiated",
		"corpus_pathname", corpusPathname, "corpus_id", info.CorpusID, "task_id", task.ID)
	return nil
}
