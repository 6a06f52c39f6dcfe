package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CorpusType classifies a corpus. Open for extension.
type CorpusType string

const (
	CorpusTypeKnowledge    CorpusType = "knowledge"
	CorpusTypeConversation CorpusType = "conversation"
)

// Permission bits for a corpus.
const (
	PermissionRead  = 1
	PermissionWrite = 2

	// PermissionReadWrite is the fixed bitmask for conversation corpora;
	// knowledge corpora get PermissionRead only.
	PermissionReadWrite = PermissionRead | PermissionWrite
)

// CorpusStatus is the lifecycle status of a corpus.
type CorpusStatus string

const (
	CorpusStatusActive   CorpusStatus = "active"
	CorpusStatusDeleting CorpusStatus = "deleting"
)

// CorpusInfo identifies a corpus and where it lives in the namespace tree.
type CorpusInfo struct {
	Pathname    string     `json:"corpus_pathname"`
	NamespaceID uuid.UUID  `json:"namespace_id"`
	CorpusID    uuid.UUID  `json:"corpus_id"`
	Type        CorpusType `json:"corpus_type"`
}

// CorpusRef is the stored reference format used inside a namespace's
// default-query set: "{namespace_id_hex}:{corpus_id_hex}".
type CorpusRef struct {
	NamespaceID uuid.UUID
	CorpusID    uuid.UUID
}

// String renders the composite reference in its stored form.
func (r CorpusRef) String() string {
	return fmt.Sprintf("%s:%s", hexID(r.NamespaceID), hexID(r.CorpusID))
}

// ParseCorpusRef parses the stored "{namespace_hex}:{corpus_hex}" form.
func ParseCorpusRef(s string) (CorpusRef, error) {
	var ref CorpusRef
	if len(s) != 65 || s[32] != ':' {
		return ref, fmt.Errorf("malformed corpus ref %q", s)
	}
	nsID, err := uuid.Parse(s[:32])
	if err != nil {
		return ref, fmt.Errorf("malformed corpus ref %q: %w", s, err)
	}
	corpusID, err := uuid.Parse(s[33:])
	if err != nil {
		return ref, fmt.Errorf("malformed corpus ref %q: %w", s, err)
	}
	return CorpusRef{NamespaceID: nsID, CorpusID: corpusID}, nil
}

func hexID(id uuid.UUID) string {
	buf := make([]byte, 0, 32)
	for _, b := range id {
		buf = append(buf, hexDigits[b>>4], hexDigits[b&0x0f])
	}
	return string(buf)
}

const hexDigits = "0123456789abcdef"

// HexID returns the 32-character lowercase hex form of an id, the format
// used inside composite storage keys.
func HexID(id uuid.UUID) string { return hexID(id) }

// Citation is the immutable provenance record of a document.
type Citation struct {
	SourceURI    string `json:"source_uri"`
	SourceName   string `json:"source_name"`
	DocumentName string `json:"document_name"`
	Description  string `json:"description"`
}

// DocumentEntity is a stored piece of text addressed by (corpus, document).
// Depending on the store it may be a whole document, a chunk, or a sentence.
type DocumentEntity struct {
	CorpusID   uuid.UUID `json:"corpus_id"`
	DocumentID uuid.UUID `json:"document_id"`
	Name       string    `json:"name"`
	Text       string    `json:"text"`
}

// ChunkEntity is a bounded-length slice of a document destined for the
// lexical index, addressed by its composite key.
type ChunkEntity struct {
	// Key is "{document_id_hex}{sequence:08x}".
	Key    string
	Entity DocumentEntity
}

// ChunkKey builds the composite lexical-store key for a document chunk.
func ChunkKey(documentID uuid.UUID, sequence int) string {
	return fmt.Sprintf("%s%08x", hexID(documentID), sequence)
}

// SentenceID deterministically derives the id of a sentence within a
// document, so vector rows can later be addressed without remembering
// store-assigned ids.
func SentenceID(documentID uuid.UUID, sentence string) uuid.UUID {
	return uuid.NewSHA1(documentID, []byte(sentence))
}

// SentenceKey builds the composite vector-store key for a sentence.
func SentenceKey(documentID uuid.UUID, sentence string) string {
	return hexID(documentID) + hexID(SentenceID(documentID, sentence))
}

// DocumentHit is a scored lexical-store result. Higher score is better.
type DocumentHit struct {
	Score  float64
	Entity DocumentEntity
}

// VectorHit is a scored vector-store result. Distance is an L2 distance over
// unit vectors (lower is better, bounded [0,2]); Start/End is the character
// span of Entity.Text inside the original document.
type VectorHit struct {
	Distance float64
	Entity   DocumentEntity
	Start    int
	End      int
}

// ScoredHit is a fused search result handed back to callers.
type ScoredHit struct {
	Score    float64  `json:"score"`
	Text     string   `json:"document"`
	Citation Citation `json:"citation"`
}

// NamespaceRecord is the stored form of a namespace.
type NamespaceRecord struct {
	ParentID       uuid.UUID
	NamespaceID    uuid.UUID
	ParentPathname string
	Name           string
	QueryDefaults  []string // CorpusRef stored forms
	CreatedAt      time.Time
	Status         CorpusStatus
}

// Pathname reconstructs the namespace's full pathname.
func (r NamespaceRecord) Pathname() string {
	if r.ParentPathname == RootName {
		return r.Name
	}
	return r.ParentPathname + NamespaceSeparator + r.Name
}

// CorpusRecord is the stored form of a corpus.
type CorpusRecord struct {
	ParentID       uuid.UUID
	CorpusID       uuid.UUID
	ParentPathname string
	Name           string
	Type           CorpusType
	Permissions    int
	CreatedAt      time.Time
	Status         CorpusStatus
}

// Pathname reconstructs the corpus's full pathname.
func (r CorpusRecord) Pathname() string {
	return JoinCorpusPathname(r.ParentPathname, r.Name)
}

// Info converts the stored row into the externally visible CorpusInfo.
func (r CorpusRecord) Info() *CorpusInfo {
	return &CorpusInfo{
		Pathname:    r.Pathname(),
		NamespaceID: r.ParentID,
		CorpusID:    r.CorpusID,
		Type:        r.Type,
	}
}
