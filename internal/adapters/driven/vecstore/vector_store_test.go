package vecstore

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/memas-labs/memas-core/internal/core/domain"
	"github.com/memas-labs/memas-core/internal/core/ports/driven/mocks"
)

func newTestStore(t *testing.T) *VectorStore {
	t.Helper()

	store, err := NewVectorStore(mocks.NewMockEmbeddingService(), DefaultConfig())
	if err != nil {
		t.Fatalf("NewVectorStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndSearch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	corpusID := uuid.New()
	docID := uuid.New()
	text := "The sun is bright today. Rain fell all of yesterday."

	err := store.Save(ctx, domain.DocumentEntity{
		CorpusID:   corpusID,
		DocumentID: docID,
		Name:       "weather",
		Text:       text,
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// The mock embedder is deterministic per input, so querying with an
	// indexed sentence must return it at distance zero.
	hits, err := store.Search(ctx, []uuid.UUID{corpusID}, "The sun is bright today.")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("Search() returned %d hits, want 2", len(hits))
	}

	top := hits[0]
	if top.Entity.Text != "The sun is bright today." {
		t.Errorf("top hit text = %q", top.Entity.Text)
	}
	if top.Distance > 0.0001 {
		t.Errorf("top hit distance = %f, want ~0", top.Distance)
	}
	if top.Entity.CorpusID != corpusID || top.Entity.DocumentID != docID {
		t.Errorf("top hit ids = %s/%s", top.Entity.CorpusID, top.Entity.DocumentID)
	}
	if top.Entity.Name != "weather" {
		t.Errorf("top hit name = %q", top.Entity.Name)
	}
	if hits[1].Distance <= top.Distance {
		t.Errorf("hits not ordered by ascending distance: %f then %f", top.Distance, hits[1].Distance)
	}
}

func TestSaveRecoversSentenceSpans(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	corpusID := uuid.New()
	text := "First sentence here. Second one follows.  Third trails off"

	err := store.Save(ctx, domain.DocumentEntity{
		CorpusID:   corpusID,
		DocumentID: uuid.New(),
		Name:       "spans",
		Text:       text,
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	hits, err := store.Search(ctx, []uuid.UUID{corpusID}, "Second one follows.")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("Search() returned no hits")
	}

	top := hits[0]
	if got := text[top.Start:top.End]; got != top.Entity.Text {
		t.Errorf("span [%d, %d) = %q, want %q", top.Start, top.End, got, top.Entity.Text)
	}
	if top.End-top.Start != len(top.Entity.Text) {
		t.Errorf("span length = %d, text length = %d", top.End-top.Start, len(top.Entity.Text))
	}
}

func TestSearchFiltersByCorpus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	corpusA := uuid.New()
	corpusB := uuid.New()

	for corpus, text := range map[uuid.UUID]string{
		corpusA: "Alpha corpus content.",
		corpusB: "Beta corpus content.",
	} {
		err := store.Save(ctx, domain.DocumentEntity{
			CorpusID:   corpus,
			DocumentID: uuid.New(),
			Name:       "doc",
			Text:       text,
		})
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	hits, err := store.Search(ctx, []uuid.UUID{corpusB}, "Alpha corpus content.")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	for _, hit := range hits {
		if hit.Entity.CorpusID != corpusB {
			t.Errorf("hit from corpus %s leaked past the filter", hit.Entity.CorpusID)
		}
	}
}

func TestSearchNoCorpora(t *testing.T) {
	store := newTestStore(t)

	hits, err := store.Search(context.Background(), nil, "anything")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if hits != nil {
		t.Errorf("Search() = %v, want nil", hits)
	}
}

func TestDeleteCorpus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	corpusA := uuid.New()
	corpusB := uuid.New()

	for corpus, text := range map[uuid.UUID]string{
		corpusA: "Ephemeral notes live here.",
		corpusB: "Durable knowledge lives here.",
	} {
		err := store.Save(ctx, domain.DocumentEntity{
			CorpusID:   corpus,
			DocumentID: uuid.New(),
			Name:       "doc",
			Text:       text,
		})
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	if err := store.DeleteCorpus(ctx, corpusA); err != nil {
		t.Fatalf("DeleteCorpus() error = %v", err)
	}

	hits, err := store.Search(ctx, []uuid.UUID{corpusA}, "Ephemeral notes live here.")
	if err != nil {
		t.Fatalf("Search() after delete error = %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("Search() after delete returned %d hits, want 0", len(hits))
	}

	hits, err = store.Search(ctx, []uuid.UUID{corpusB}, "Durable knowledge lives here.")
	if err != nil {
		t.Fatalf("Search() other corpus error = %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("other corpus returned %d hits, want 1", len(hits))
	}

	// Deleting again is a no-op.
	if err := store.DeleteCorpus(ctx, corpusA); err != nil {
		t.Errorf("second DeleteCorpus() error = %v", err)
	}
}
