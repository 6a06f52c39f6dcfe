package services

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/memas-labs/memas-core/internal/core/domain"
	"github.com/memas-labs/memas-core/internal/core/ports/driven/mocks"
)

func TestNormalizeAndCombine(t *testing.T) {
	docs := []domain.ScoredHit{
		{Score: 10, Text: "alpha beta gamma"},
		{Score: 5, Text: "delta epsilon"},
	}
	vecs := []domain.ScoredHit{
		{Score: 0.5, Text: "beta"}, // contained in first doc
		{Score: 1.0, Text: "zeta"}, // unique
	}

	fused := normalizeAndCombine(docs, vecs)
	if len(fused) != 3 {
		t.Fatalf("got %d fused hits, want 3", len(fused))
	}

	// First doc normalizes to 1.0 and earns the containment reward
	// (16/14.5) * 1.5; the unique vector lands at 2 - 1.0 = 1.0; the
	// second doc normalizes to 0.
	wantTop := 1.0 + (16.0/14.5)*1.5
	if fused[0].Text != "alpha beta gamma" || math.Abs(fused[0].Score-wantTop) > 1e-9 {
		t.Errorf("fused[0] = (%q, %f), want (%q, %f)", fused[0].Text, fused[0].Score, "alpha beta gamma", wantTop)
	}
	if fused[1].Text != "zeta" || fused[1].Score != 1.0 {
		t.Errorf("fused[1] = (%q, %f), want (zeta, 1.0)", fused[1].Text, fused[1].Score)
	}
	if fused[2].Text != "delta epsilon" || fused[2].Score != 0.0 {
		t.Errorf("fused[2] = (%q, %f), want (delta epsilon, 0.0)", fused[2].Text, fused[2].Score)
	}
}

func TestNormalizeAndCombineConstantDocScores(t *testing.T) {
	docs := []domain.ScoredHit{
		{Score: 7, Text: "first"},
		{Score: 7, Text: "second"},
	}
	vecs := []domain.ScoredHit{
		{Score: 1.9, Text: "unrelated"},
	}

	fused := normalizeAndCombine(docs, vecs)
	if len(fused) != 3 {
		t.Fatalf("got %d fused hits, want 3", len(fused))
	}
	// Equal lexical scores all normalize to 1.0 instead of dividing by zero.
	for _, hit := range fused[:2] {
		if hit.Score != 1.0 {
			t.Errorf("doc hit %q score = %f, want 1.0", hit.Text, hit.Score)
		}
	}
	if math.Abs(fused[2].Score-0.1) > 1e-9 {
		t.Errorf("vector hit score = %f, want 0.1", fused[2].Score)
	}
}

func TestInterleaveByRank(t *testing.T) {
	a := []domain.ScoredHit{{Text: "a1"}, {Text: "a2"}, {Text: "a3"}}
	b := []domain.ScoredHit{{Text: "b1"}}

	got := interleaveByRank([][]domain.ScoredHit{a, b}, 10)
	want := []string{"a1", "b1", "a2", "a3"}
	if len(got) != len(want) {
		t.Fatalf("got %d hits, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Text != want[i] {
			t.Errorf("hit[%d] = %q, want %q", i, got[i].Text, want[i])
		}
	}
}

func TestInterleaveByRankLimitMidRound(t *testing.T) {
	a := []domain.ScoredHit{{Text: "a1"}, {Text: "a2"}}
	b := []domain.ScoredHit{{Text: "b1"}, {Text: "b2"}}

	got := interleaveByRank([][]domain.ScoredHit{a, b}, 3)
	want := []string{"a1", "b1", "a2"}
	if len(got) != 3 {
		t.Fatalf("got %d hits, want 3", len(got))
	}
	for i := range want {
		if got[i].Text != want[i] {
			t.Errorf("hit[%d] = %q, want %q", i, got[i].Text, want[i])
		}
	}
}

func TestInterleaveByRankSkipsEmptyGroups(t *testing.T) {
	a := []domain.ScoredHit{{Text: "a1"}}
	got := interleaveByRank([][]domain.ScoredHit{nil, a, {}}, 5)
	if len(got) != 1 || got[0].Text != "a1" {
		t.Errorf("got %v, want just a1", got)
	}
}

func newTestSearcher(globalSort bool) (*searcher, *mocks.MockCitationStore, *mocks.MockDocumentStore, *mocks.MockVectorStore) {
	citations := mocks.NewMockCitationStore()
	docs := mocks.NewMockDocumentStore()
	vectors := mocks.NewMockVectorStore()
	return newSearcher(citations, docs, vectors, globalSort, nil), citations, docs, vectors
}

func TestSearchGroupVectorOnly(t *testing.T) {
	ctx := context.Background()
	s, citations, docs, vectors := newTestSearcher(false)

	corpusID := uuid.New()
	docID := uuid.New()
	if err := citations.Put(ctx, corpusID, docID, 1, domain.Citation{SourceName: "src"}); err != nil {
		t.Fatal(err)
	}

	docs.SearchFn = func([]uuid.UUID, string) ([]domain.DocumentHit, error) { return nil, nil }
	vectors.SearchFn = func([]uuid.UUID, string) ([]domain.VectorHit, error) {
		return []domain.VectorHit{
			{Distance: 1.2, Entity: domain.DocumentEntity{CorpusID: corpusID, DocumentID: docID, Text: "far"}, Start: 0, End: 3},
			{Distance: 0.3, Entity: domain.DocumentEntity{CorpusID: corpusID, DocumentID: docID, Text: "near"}, Start: 10, End: 14},
		}, nil
	}

	hits, err := s.searchGroup(ctx, []uuid.UUID{corpusID}, "clue")
	if err != nil {
		t.Fatalf("searchGroup failed: %v", err)
	}
	if len(hits) != 2 || hits[0].Text != "near" || hits[1].Text != "far" {
		t.Errorf("vector-only ordering wrong: %v", hits)
	}
	if hits[0].Citation.SourceName != "src" {
		t.Errorf("citation not attached: %+v", hits[0].Citation)
	}
}

func TestSearchGroupSpanMismatch(t *testing.T) {
	ctx := context.Background()
	s, citations, docs, vectors := newTestSearcher(false)

	corpusID := uuid.New()
	docID := uuid.New()
	if err := citations.Put(ctx, corpusID, docID, 1, domain.Citation{}); err != nil {
		t.Fatal(err)
	}

	docs.SearchFn = func([]uuid.UUID, string) ([]domain.DocumentHit, error) { return nil, nil }
	vectors.SearchFn = func([]uuid.UUID, string) ([]domain.VectorHit, error) {
		return []domain.VectorHit{
			{Distance: 0.1, Entity: domain.DocumentEntity{CorpusID: corpusID, DocumentID: docID, Text: "abc"}, Start: 0, End: 7},
		}, nil
	}

	_, err := s.searchGroup(ctx, []uuid.UUID{corpusID}, "clue")
	if !errors.Is(err, domain.ErrContentSpanMismatch) {
		t.Errorf("got %v, want ErrContentSpanMismatch", err)
	}
}

func TestMultiCorpusSearchInterleavesTypeGroups(t *testing.T) {
	ctx := context.Background()
	s, citations, docs, vectors := newTestSearcher(false)

	convID := uuid.New()
	kbID := uuid.New()
	convDoc := uuid.New()
	kbDoc := uuid.New()
	if err := citations.Put(ctx, convID, convDoc, 1, domain.Citation{SourceName: "conv"}); err != nil {
		t.Fatal(err)
	}
	if err := citations.Put(ctx, kbID, kbDoc, 1, domain.Citation{SourceName: "kb"}); err != nil {
		t.Fatal(err)
	}

	// Each group sees only its own corpus ids; score differences across
	// groups must not matter for interleaving.
	docs.SearchFn = func(ids []uuid.UUID, clue string) ([]domain.DocumentHit, error) {
		switch ids[0] {
		case convID:
			return []domain.DocumentHit{
				{Score: 1, Entity: domain.DocumentEntity{CorpusID: convID, DocumentID: convDoc, Text: "conv hit 1"}},
				{Score: 0.5, Entity: domain.DocumentEntity{CorpusID: convID, DocumentID: convDoc, Text: "conv hit 2"}},
			}, nil
		case kbID:
			return []domain.DocumentHit{
				{Score: 100, Entity: domain.DocumentEntity{CorpusID: kbID, DocumentID: kbDoc, Text: "kb hit 1"}},
			}, nil
		}
		return nil, nil
	}
	vectors.SearchFn = func([]uuid.UUID, string) ([]domain.VectorHit, error) { return nil, nil }

	corpora := []*domain.CorpusInfo{
		{Pathname: "a:conv", CorpusID: convID, Type: domain.CorpusTypeConversation},
		{Pathname: "a:kb", CorpusID: kbID, Type: domain.CorpusTypeKnowledge},
	}

	hits, err := s.MultiCorpusSearch(ctx, corpora, "clue", 10)
	if err != nil {
		t.Fatalf("MultiCorpusSearch failed: %v", err)
	}
	want := []string{"conv hit 1", "kb hit 1", "conv hit 2"}
	if len(hits) != len(want) {
		t.Fatalf("got %d hits, want %d", len(hits), len(want))
	}
	for i := range want {
		if hits[i].Text != want[i] {
			t.Errorf("hit[%d] = %q, want %q", i, hits[i].Text, want[i])
		}
	}
}

func TestMultiCorpusSearchGlobalSort(t *testing.T) {
	ctx := context.Background()
	s, citations, docs, vectors := newTestSearcher(true)

	convID := uuid.New()
	kbID := uuid.New()
	convDoc := uuid.New()
	kbDoc := uuid.New()
	if err := citations.Put(ctx, convID, convDoc, 1, domain.Citation{}); err != nil {
		t.Fatal(err)
	}
	if err := citations.Put(ctx, kbID, kbDoc, 1, domain.Citation{}); err != nil {
		t.Fatal(err)
	}

	docs.SearchFn = func(ids []uuid.UUID, clue string) ([]domain.DocumentHit, error) {
		switch ids[0] {
		case convID:
			return []domain.DocumentHit{
				{Score: 1, Entity: domain.DocumentEntity{CorpusID: convID, DocumentID: convDoc, Text: "conv low"}},
				{Score: 3, Entity: domain.DocumentEntity{CorpusID: convID, DocumentID: convDoc, Text: "conv high"}},
			}, nil
		case kbID:
			return []domain.DocumentHit{
				{Score: 2, Entity: domain.DocumentEntity{CorpusID: kbID, DocumentID: kbDoc, Text: "kb mid"}},
			}, nil
		}
		return nil, nil
	}
	vectors.SearchFn = func([]uuid.UUID, string) ([]domain.VectorHit, error) { return nil, nil }

	corpora := []*domain.CorpusInfo{
		{Pathname: "a:conv", CorpusID: convID, Type: domain.CorpusTypeConversation},
		{Pathname: "a:kb", CorpusID: kbID, Type: domain.CorpusTypeKnowledge},
	}

	hits, err := s.MultiCorpusSearch(ctx, corpora, "clue", 2)
	if err != nil {
		t.Fatalf("MultiCorpusSearch failed: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	// Doc-only groups keep raw lexical scores, so the global merge is by
	// those raw scores.
	if hits[0].Text != "conv high" || hits[1].Text != "kb mid" {
		t.Errorf("global sort order wrong: %q, %q", hits[0].Text, hits[1].Text)
	}
}

func TestMultiCorpusSearchEmptyInputs(t *testing.T) {
	ctx := context.Background()
	s, _, _, _ := newTestSearcher(false)

	hits, err := s.MultiCorpusSearch(ctx, nil, "clue", 10)
	if err != nil || len(hits) != 0 {
		t.Errorf("empty corpora: got (%v, %v), want no hits", hits, err)
	}

	hits, err = s.MultiCorpusSearch(ctx, []*domain.CorpusInfo{{CorpusID: uuid.New()}}, "clue", 0)
	if err != nil || len(hits) != 0 {
		t.Errorf("zero limit: got (%v, %v), want no hits", hits, err)
	}
}
