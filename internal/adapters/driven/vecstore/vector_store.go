package vecstore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/hupe1980/vecgo"
	"github.com/hupe1980/vecgo/metadata"
	"github.com/memas-labs/memas-core/internal/core/domain"
	"github.com/memas-labs/memas-core/internal/core/ports/driven"
	"github.com/memas-labs/memas-core/internal/textsplit"
)

// Verify interface compliance
var _ driven.VectorStore = (*VectorStore)(nil)

// sentenceRow is the payload stored alongside each sentence vector.
type sentenceRow struct {
	Key        string
	CorpusID   uuid.UUID
	DocumentID uuid.UUID
	Name       string
	Text       string
	Start      int
	End        int
}

// Config holds vector store configuration
type Config struct {
	// SearchK caps nearest neighbors returned per query
	SearchK int

	// MaxSentenceChars bounds one indexed sentence; longer sentences are
	// split at word boundaries
	MaxSentenceChars int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		SearchK:          10,
		MaxSentenceChars: 512,
	}
}

// VectorStore implements driven.VectorStore on an embedded vecgo Flat index.
// Documents are split into sentences, embedded, and stored with a per-corpus
// metadata tag so one index serves every corpus. Embeddings are unit
// normalized on the way in, which keeps squared-L2 distances inside [0, 4]
// and lets Search report plain L2 inside [0, 2].
type VectorStore struct {
	mu       sync.RWMutex
	db       *vecgo.Vecgo[sentenceRow]
	embedder driven.EmbeddingService
	byCorpus map[uuid.UUID][]uint64
	cfg      Config
}

// NewVectorStore creates a vector store sized to the embedder's dimensions.
func NewVectorStore(embedder driven.EmbeddingService, cfg Config) (*VectorStore, error) {
	if embedder == nil {
		return nil, errors.New("embedding service is required")
	}

	db, err := vecgo.Flat[sentenceRow](embedder.Dimensions()).
		SquaredL2().
		Build()
	if err != nil {
		return nil, fmt.Errorf("build vector index: %w", err)
	}

	return &VectorStore{
		db:       db,
		embedder: embedder,
		byCorpus: make(map[uuid.UUID][]uint64),
		cfg:      cfg,
	}, nil
}

// Save splits the document into sentences, embeds them and indexes every
// sentence with its character span inside the original document.
func (s *VectorStore) Save(ctx context.Context, entity domain.DocumentEntity) error {
	sentences := textsplit.SplitSentences(entity.Text, s.cfg.MaxSentenceChars)
	if len(sentences) == 0 {
		return nil
	}

	embeddings, err := s.embedder.Embed(ctx, sentences)
	if err != nil {
		return fmt.Errorf("embed sentences: %w", err)
	}
	if len(embeddings) != len(sentences) {
		return fmt.Errorf("embedder returned %d vectors for %d sentences", len(embeddings), len(sentences))
	}

	items := make([]vecgo.VectorWithData[sentenceRow], 0, len(sentences))
	cursor := 0
	for i, sentence := range sentences {
		// Sentences are whitespace trimmed, so locate each one from the
		// current cursor to recover its exact span.
		offset := strings.Index(entity.Text[cursor:], sentence)
		if offset < 0 {
			return fmt.Errorf("sentence %d not found in document %s", i, entity.DocumentID)
		}
		start := cursor + offset
		end := start + len(sentence)
		cursor = end

		items = append(items, vecgo.VectorWithData[sentenceRow]{
			Vector: normalize(embeddings[i]),
			Data: sentenceRow{
				Key:        domain.SentenceKey(entity.DocumentID, sentence),
				CorpusID:   entity.CorpusID,
				DocumentID: entity.DocumentID,
				Name:       entity.Name,
				Text:       sentence,
				Start:      start,
				End:        end,
			},
			Metadata: metadata.Metadata{
				"corpus_id": metadata.String(entity.CorpusID.String()),
			},
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	result := s.db.BatchInsert(ctx, items)
	for _, err := range result.Errors {
		if err != nil {
			return fmt.Errorf("index sentence vectors: %w", err)
		}
	}
	s.byCorpus[entity.CorpusID] = append(s.byCorpus[entity.CorpusID], result.IDs...)
	return nil
}

// Search embeds the clue and runs one nearest-neighbor query filtered to the
// given corpora.
func (s *VectorStore) Search(ctx context.Context, corpusIDs []uuid.UUID, clue string) ([]domain.VectorHit, error) {
	if len(corpusIDs) == 0 {
		return nil, nil
	}

	query, err := s.embedder.EmbedQuery(ctx, clue)
	if err != nil {
		return nil, fmt.Errorf("embed clue: %w", err)
	}

	values := make([]metadata.Value, len(corpusIDs))
	for i, id := range corpusIDs {
		values[i] = metadata.String(id.String())
	}
	filters := metadata.NewFilterSet(metadata.Filter{
		Key:      "corpus_id",
		Operator: metadata.OpIn,
		Value:    metadata.Array(values),
	})

	s.mu.RLock()
	results, err := s.db.Search(normalize(query)).
		KNN(s.cfg.SearchK).
		WithMetadata(filters).
		Execute(ctx)
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	hits := make([]domain.VectorHit, 0, len(results))
	for _, r := range results {
		row := r.Data
		hits = append(hits, domain.VectorHit{
			// The index stores squared L2 over unit vectors.
			Distance: math.Sqrt(float64(r.Distance)),
			Entity: domain.DocumentEntity{
				CorpusID:   row.CorpusID,
				DocumentID: row.DocumentID,
				Name:       row.Name,
				Text:       row.Text,
			},
			Start: row.Start,
			End:   row.End,
		})
	}
	return hits, nil
}

// DeleteCorpus removes every sentence vector belonging to a corpus.
func (s *VectorStore) DeleteCorpus(ctx context.Context, corpusID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.byCorpus[corpusID] {
		if err := s.db.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete vector %d: %w", id, err)
		}
	}
	delete(s.byCorpus, corpusID)
	return nil
}

// Close releases the underlying index.
func (s *VectorStore) Close() error {
	return s.db.Close()
}

// normalize scales a vector to unit length. Zero vectors pass through.
func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
