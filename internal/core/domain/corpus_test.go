package domain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestCorpusRefRoundTrip(t *testing.T) {
	ref := CorpusRef{NamespaceID: uuid.New(), CorpusID: uuid.New()}
	parsed, err := ParseCorpusRef(ref.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed != ref {
		t.Errorf("round trip mismatch: %v != %v", parsed, ref)
	}
}

func TestParseCorpusRefMalformed(t *testing.T) {
	for _, s := range []string{"", "abc", "xx:yy", HexID(uuid.New())} {
		if _, err := ParseCorpusRef(s); err == nil {
			t.Errorf("expected error for %q", s)
		}
	}
}

func TestChunkKeyFormat(t *testing.T) {
	docID := uuid.New()
	key := ChunkKey(docID, 1)
	if len(key) != 40 {
		t.Fatalf("expected 40-char key, got %d", len(key))
	}
	if key[:32] != HexID(docID) {
		t.Errorf("key should be prefixed by document id")
	}
	if key[32:] != "00000001" {
		t.Errorf("expected sequence suffix 00000001, got %s", key[32:])
	}
}

func TestSentenceIDDeterministic(t *testing.T) {
	docID := uuid.New()
	a := SentenceID(docID, "The sun is high.")
	b := SentenceID(docID, "The sun is high.")
	if a != b {
		t.Error("sentence id must be deterministic")
	}
	if a == SentenceID(docID, "Another sentence.") {
		t.Error("different sentences must map to different ids")
	}
	if a == SentenceID(uuid.New(), "The sun is high.") {
		t.Error("same sentence in different documents must map to different ids")
	}
}

func TestErrorUnwrapping(t *testing.T) {
	var err error = &NameExistsError{Pathname: "acme:kb1"}
	if !errors.Is(err, ErrNameExists) {
		t.Error("NameExistsError should unwrap to ErrNameExists")
	}

	err = &NamespaceNotFoundError{Pathname: "acme"}
	if !errors.Is(err, ErrNamespaceNotFound) {
		t.Error("NamespaceNotFoundError should unwrap to ErrNamespaceNotFound")
	}

	err = &IllegalNameError{Pathname: "a..b"}
	if !errors.Is(err, ErrIllegalName) {
		t.Error("IllegalNameError should unwrap to ErrIllegalName")
	}
}
