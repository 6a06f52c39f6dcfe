package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/memas-labs/memas-core/internal/core/domain"
	"github.com/memas-labs/memas-core/internal/core/ports/driven"
	"golang.org/x/sync/errgroup"
)

// searcher fuses lexical and vector results across corpora. Corpora of the
// same type are queried together (one lexical query, one vector query per
// type group); groups are merged by rank interleaving unless globalSort is
// set, which merges on raw fused scores instead.
type searcher struct {
	citations  driven.CitationStore
	docs       driven.DocumentStore
	vectors    driven.VectorStore
	globalSort bool
	logger     *slog.Logger
}

func newSearcher(citations driven.CitationStore, docs driven.DocumentStore, vectors driven.VectorStore, globalSort bool, logger *slog.Logger) *searcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &searcher{
		citations:  citations,
		docs:       docs,
		vectors:    vectors,
		globalSort: globalSort,
		logger:     logger,
	}
}

// MultiCorpusSearch searches all given corpora for the clue and returns at
// most limit fused hits.
func (s *searcher) MultiCorpusSearch(ctx context.Context, corpora []*domain.CorpusInfo, clue string, limit int) ([]domain.ScoredHit, error) {
	if len(corpora) == 0 || limit <= 0 {
		return nil, nil
	}

	groups := make(map[domain.CorpusType][]uuid.UUID)
	for _, info := range corpora {
		groups[info.Type] = append(groups[info.Type], info.CorpusID)
	}

	// Deterministic group order regardless of map iteration.
	types := make([]domain.CorpusType, 0, len(groups))
	for t := range groups {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	ranked := make([][]domain.ScoredHit, 0, len(types))
	for _, t := range types {
		hits, err := s.searchGroup(ctx, groups[t], clue)
		if err != nil {
			return nil, fmt.Errorf("search %s corpora: %w", t, err)
		}
		ranked = append(ranked, hits)
	}

	if s.globalSort {
		var merged []domain.ScoredHit
		for _, hits := range ranked {
			merged = append(merged, hits...)
		}
		sort.SliceStable(merged, func(i, j int) bool { return merged[i].Score > merged[j].Score })
		if len(merged) > limit {
			merged = merged[:limit]
		}
		return merged, nil
	}

	return interleaveByRank(ranked, limit), nil
}

// searchGroup runs one lexical and one vector query across all corpora of
// one type and fuses the results.
func (s *searcher) searchGroup(ctx context.Context, corpusIDs []uuid.UUID, clue string) ([]domain.ScoredHit, error) {
	var docHits []domain.DocumentHit
	var vecHits []domain.VectorHit

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hits, err := s.docs.Search(gctx, corpusIDs, clue)
		if err != nil {
			return fmt.Errorf("lexical search: %w", err)
		}
		docHits = hits
		return nil
	})
	g.Go(func() error {
		hits, err := s.vectors.Search(gctx, corpusIDs, clue)
		if err != nil {
			return fmt.Errorf("vector search: %w", err)
		}
		vecHits = hits
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	docResults := make([]domain.ScoredHit, 0, len(docHits))
	for _, hit := range docHits {
		citation, err := s.citations.Get(ctx, hit.Entity.CorpusID, hit.Entity.DocumentID)
		if err != nil {
			return nil, fmt.Errorf("citation for document %s: %w", hit.Entity.DocumentID, err)
		}
		docResults = append(docResults, domain.ScoredHit{
			Score:    hit.Score,
			Text:     hit.Entity.Text,
			Citation: *citation,
		})
	}

	vecResults := make([]domain.ScoredHit, 0, len(vecHits))
	for _, hit := range vecHits {
		// A hit's span must cover exactly the text it carries; anything
		// else means the index and the stored document disagree.
		if hit.End-hit.Start != len(hit.Entity.Text) {
			s.logger.Error("vector span does not match stored text",
				"document_id", hit.Entity.DocumentID,
				"span", hit.End-hit.Start, "text_len", len(hit.Entity.Text))
			return nil, fmt.Errorf("%w: span %d != text length %d",
				domain.ErrContentSpanMismatch, hit.End-hit.Start, len(hit.Entity.Text))
		}
		citation, err := s.citations.Get(ctx, hit.Entity.CorpusID, hit.Entity.DocumentID)
		if err != nil {
			return nil, fmt.Errorf("citation for document %s: %w", hit.Entity.DocumentID, err)
		}
		// Score holds the raw distance until fusion transforms it.
		vecResults = append(vecResults, domain.ScoredHit{
			Score:    hit.Distance,
			Text:     hit.Entity.Text,
			Citation: *citation,
		})
	}

	// One-sided results skip fusion entirely.
	if len(vecResults) == 0 {
		sort.SliceStable(docResults, func(i, j int) bool { return docResults[i].Score > docResults[j].Score })
		return docResults, nil
	}
	if len(docResults) == 0 {
		for i := range vecResults {
			vecResults[i].Score = 2 - vecResults[i].Score
		}
		sort.SliceStable(vecResults, func(i, j int) bool { return vecResults[i].Score > vecResults[j].Score })
		return vecResults, nil
	}

	return normalizeAndCombine(docResults, vecResults), nil
}

// normalizeAndCombine fuses lexical and vector hits into one descending
// ranking. Lexical scores are min-max normalized into [0, 1]; vector
// distances over unit vectors (range [0, 2]) are flipped to 2-distance so
// bigger is better. A vector whose sentence appears inside a lexical hit is
// folded into that hit as a score reward scaled by relative document length,
// instead of showing up as a second result.
func normalizeAndCombine(docResults, vecResults []domain.ScoredHit) []domain.ScoredHit {
	docMin, docMax := docResults[0].Score, docResults[0].Score
	for _, hit := range docResults[1:] {
		if hit.Score < docMin {
			docMin = hit.Score
		}
		if hit.Score > docMax {
			docMax = hit.Score
		}
	}

	fused := make([]domain.ScoredHit, len(docResults))
	copy(fused, docResults)
	if docMax != docMin {
		for i := range fused {
			fused[i].Score = (fused[i].Score - docMin) / (docMax - docMin)
		}
	} else {
		// Equal lexical scores carry no ordering information; treat every
		// hit as a top hit.
		for i := range fused {
			fused[i].Score = 1.0
		}
	}

	vecs := make([]domain.ScoredHit, len(vecResults))
	copy(vecs, vecResults)
	for i := range vecs {
		vecs[i].Score = 2 - vecs[i].Score
	}

	avgDocLen := 1.0
	if len(fused) != 0 {
		total := 0
		for _, hit := range fused {
			total += len(hit.Text)
		}
		avgDocLen = float64(total) / float64(len(fused))
	}

	duplicate := make([]bool, len(vecs))
	for i := range fused {
		for j, vec := range vecs {
			if vec.Text != "" && strings.Contains(fused[i].Text, vec.Text) {
				duplicate[j] = true
				fused[i].Score += (float64(len(fused[i].Text)) / avgDocLen) * vec.Score
			}
		}
	}

	for j, vec := range vecs {
		if !duplicate[j] {
			fused = append(fused, vec)
		}
	}

	sort.SliceStable(fused, func(i, j int) bool { return fused[i].Score > fused[j].Score })
	return fused
}

// interleaveByRank merges per-group rankings round-robin by rank position,
// stopping as soon as limit hits are collected.
func interleaveByRank(groups [][]domain.ScoredHit, limit int) []domain.ScoredHit {
	var out []domain.ScoredHit
	for rank := 0; ; rank++ {
		exhausted := true
		for _, group := range groups {
			if rank >= len(group) {
				continue
			}
			exhausted = false
			out = append(out, group[rank])
			if len(out) == limit {
				return out
			}
		}
		if exhausted {
			return out
		}
	}
}
