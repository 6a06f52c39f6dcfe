// Package textsplit breaks documents into bounded-length pieces for
// indexing. Boundaries are chosen in preference order: paragraph breaks,
// sentence-ending punctuation, whitespace, then a hard character cut as the
// last resort. Splitting never drops non-whitespace characters.
package textsplit

import (
	"regexp"
	"strings"
)

const (
	// chunkWordWindow is how far back from a chunk boundary we look for a
	// word break before hard-cutting.
	chunkWordWindow = 15

	// sentenceWordWindow is the same for oversized sentences.
	sentenceWordWindow = 25
)

var (
	paragraphBreak = regexp.MustCompile(`[\t\n\r]+\s*`)
	sentenceMark   = regexp.MustCompile(`[.?!]+\s*`)
	sentenceToken  = regexp.MustCompile(`[^.?!]*[.?!]+\s*|[^.?!]+$`)
)

// SegmentDocument breaks a document into chunks of at most maxChars
// characters each. Well formed documents split at paragraph breaks first;
// oversized paragraphs split at sentence marks, then word boundaries, then
// wherever maxChars lands.
func SegmentDocument(document string, maxChars int) []string {
	var chunks []string

	for _, paragraph := range paragraphBreak.Split(document, -1) {
		if paragraph == "" {
			continue
		}

		start := 0
		for start < len(paragraph)-maxChars {
			window := paragraph[start : start+maxChars]

			var cut int
			if marks := sentenceMark.FindAllStringIndex(window, -1); len(marks) > 0 {
				cut = marks[len(marks)-1][1]
			} else {
				cut = wordCut(paragraph, start, maxChars, chunkWordWindow) - start
			}

			chunks = append(chunks, paragraph[start:start+cut])
			start += cut
		}
		chunks = append(chunks, paragraph[start:])
	}

	return chunks
}

// wordCut finds an absolute cut position at a word boundary near
// start+maxChars, falling back to a hard cut.
func wordCut(s string, start, maxChars, window int) int {
	from := start + maxChars - window
	if from < start {
		from = start
	}
	to := start + maxChars
	if to > len(s) {
		to = len(s)
	}

	if idx := strings.Index(s[from:to], " "); idx >= 0 {
		return from + idx + 1
	}
	return start + maxChars
}

// SplitSentences divides a document into sentences no longer than maxLen
// characters each. Sentences are delimited by runs of terminal punctuation;
// oversized sentences split at word boundaries inside a search window, and
// only truly malformed input gets cut mid-word.
func SplitSentences(document string, maxLen int) []string {
	var sentences []string

	for _, token := range sentenceToken.FindAllString(document, -1) {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if len(token) <= maxLen {
			sentences = append(sentences, token)
			continue
		}
		sentences = append(sentences, splitOversized(token, maxLen)...)
	}

	return sentences
}

func splitOversized(segment string, maxLen int) []string {
	var parts []string

	for len(segment) > maxLen {
		cut := maxLen
		from := cut - sentenceWordWindow
		if from < 0 {
			from = 0
		}
		if idx := strings.LastIndex(segment[from:cut], " "); idx >= 0 {
			cut = from + idx + 1
		}
		parts = append(parts, strings.TrimRight(segment[:cut], " "))
		segment = segment[cut:]
	}
	if segment != "" {
		parts = append(parts, segment)
	}

	return parts
}
