package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/memas-labs/memas-core/internal/core/domain"
	"github.com/memas-labs/memas-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.CitationStore = (*CitationStore)(nil)

// CitationStore implements driven.CitationStore using PostgreSQL
type CitationStore struct {
	db *DB
}

// NewCitationStore creates a new CitationStore
func NewCitationStore(db *DB) *CitationStore {
	return &CitationStore{db: db}
}

// Put records the citation and segment count for a freshly ingested document.
// Citations are immutable; re-running an ingest does not overwrite.
func (s *CitationStore) Put(ctx context.Context, corpusID, documentID uuid.UUID, segmentCount int, citation domain.Citation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO citations (corpus_id, document_id, segment_count, source_uri, source_name, document_name, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (corpus_id, document_id) DO NOTHING
	`,
		corpusID,
		documentID,
		segmentCount,
		citation.SourceURI,
		citation.SourceName,
		citation.DocumentName,
		citation.Description,
	)
	return err
}

// Get retrieves the citation of a document.
func (s *CitationStore) Get(ctx context.Context, corpusID, documentID uuid.UUID) (*domain.Citation, error) {
	query := `
		SELECT source_uri, source_name, document_name, description
		FROM citations
		WHERE corpus_id = $1 AND document_id = $2
	`

	var citation domain.Citation
	err := s.db.QueryRowContext(ctx, query, corpusID, documentID).Scan(
		&citation.SourceURI,
		&citation.SourceName,
		&citation.DocumentName,
		&citation.Description,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &citation, nil
}

// GetSegmentCount retrieves the number of chunks a document was split into.
func (s *CitationStore) GetSegmentCount(ctx context.Context, corpusID, documentID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT segment_count FROM citations
		WHERE corpus_id = $1 AND document_id = $2
	`, corpusID, documentID).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteCorpus removes all citations belonging to a corpus.
func (s *CitationStore) DeleteCorpus(ctx context.Context, corpusID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM citations WHERE corpus_id = $1`, corpusID)
	return err
}
