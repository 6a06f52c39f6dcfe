package textsplit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stripSpace removes all whitespace so reconstruction checks can ignore the
// intentional trimming done at split boundaries.
func stripSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func TestSegmentDocumentShortPassThrough(t *testing.T) {
	doc := "The sun is high. California sunshine is great."
	chunks := SegmentDocument(doc, 1536)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != doc {
		t.Errorf("short document should pass through unchanged")
	}
}

func TestSegmentDocumentParagraphs(t *testing.T) {
	doc := "First paragraph here.\n\nSecond paragraph here.\n\tThird one."
	chunks := SegmentDocument(doc, 1536)
	require.Len(t, chunks, 3)
	assert.Equal(t, "Second paragraph here.", chunks[1])
}

func TestSegmentDocumentBoundedLength(t *testing.T) {
	doc := strings.Repeat("A fairly normal sentence that keeps going. ", 100)
	maxChars := 120
	chunks := SegmentDocument(doc, maxChars)
	for i, c := range chunks {
		if len(c) > maxChars {
			t.Errorf("chunk %d exceeds max length: %d > %d", i, len(c), maxChars)
		}
	}
}

func TestSegmentDocumentRoundTrip(t *testing.T) {
	docs := []string{
		"The sun is high. California sunshine is great.",
		strings.Repeat("No terminal punctuation at all just words going on and on ", 20),
		"Para one line.\nPara two with more content. And another sentence!\r\nPara three?",
		strings.Repeat("x", 5000), // pathological: no boundaries anywhere
	}
	for _, doc := range docs {
		chunks := SegmentDocument(doc, 100)
		if stripSpace(strings.Join(chunks, "")) != stripSpace(doc) {
			t.Errorf("segmentation dropped characters for %q...", doc[:40])
		}
	}
}

func TestSegmentDocumentHardCut(t *testing.T) {
	doc := strings.Repeat("x", 250)
	chunks := SegmentDocument(doc, 100)
	if len(chunks) < 3 {
		t.Fatalf("expected hard cuts, got %d chunks", len(chunks))
	}
	for _, c := range chunks[:len(chunks)-1] {
		if len(c) != 100 {
			t.Errorf("hard cut chunk should be exactly max length, got %d", len(c))
		}
	}
}

func TestSplitSentences(t *testing.T) {
	doc := "The sun is high. California sunshine is great. Is it though?"
	got := SplitSentences(doc, 1024)
	want := []string{"The sun is high.", "California sunshine is great.", "Is it though?"}
	require.Equal(t, want, got)
}

func TestSplitSentencesNoTerminator(t *testing.T) {
	got := SplitSentences("no punctuation here", 1024)
	if len(got) != 1 || got[0] != "no punctuation here" {
		t.Errorf("got %q", got)
	}
}

func TestSplitSentencesOversized(t *testing.T) {
	doc := strings.Repeat("word ", 100) + "end."
	got := SplitSentences(doc, 80)
	for i, s := range got {
		if len(s) > 80 {
			t.Errorf("sentence %d exceeds max: %d", i, len(s))
		}
	}
	if stripSpace(strings.Join(got, "")) != stripSpace(doc) {
		t.Error("oversized split dropped characters")
	}
}

func TestSplitSentencesRoundTrip(t *testing.T) {
	docs := []string{
		"One. Two! Three? Four...",
		"Trailing words with no stop",
		strings.Repeat("y", 3000),
	}
	for _, doc := range docs {
		got := SplitSentences(doc, 100)
		if stripSpace(strings.Join(got, "")) != stripSpace(doc) {
			t.Errorf("sentence split dropped characters for %q...", doc[:10])
		}
	}
}
