package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/memas-labs/memas-core/internal/core/domain"
	"github.com/memas-labs/memas-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.RegistryStore = (*RegistryStore)(nil)

// RegistryStore implements driven.RegistryStore using PostgreSQL.
// Info rows and their parent back-references always move in one transaction
// so a crash can never leave one without the other.
type RegistryStore struct {
	db *DB
}

// NewRegistryStore creates a new RegistryStore
func NewRegistryStore(db *DB) *RegistryStore {
	return &RegistryStore{db: db}
}

// InsertNamespace writes the namespace info row and its parent back-reference.
func (s *RegistryStore) InsertNamespace(ctx context.Context, rec domain.NamespaceRecord) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO namespaces (parent_id, namespace_id, parent_pathname, name, query_default_corpora, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`,
			rec.ParentID,
			rec.NamespaceID,
			rec.ParentPathname,
			rec.Name,
			pq.Array(rec.QueryDefaults),
			string(rec.Status),
			rec.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert namespace row: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO parent_refs (child_id, parent_id, child_kind)
			VALUES ($1, $2, 'namespace')
		`, rec.NamespaceID, rec.ParentID)
		if err != nil {
			return fmt.Errorf("insert namespace parent ref: %w", err)
		}
		return nil
	})
}

// InsertCorpus writes the corpus info row and its parent back-reference.
func (s *RegistryStore) InsertCorpus(ctx context.Context, rec domain.CorpusRecord) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO corpora (parent_id, corpus_id, parent_pathname, name, corpus_type, permissions, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`,
			rec.ParentID,
			rec.CorpusID,
			rec.ParentPathname,
			rec.Name,
			string(rec.Type),
			rec.Permissions,
			string(rec.Status),
			rec.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert corpus row: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO parent_refs (child_id, parent_id, child_kind)
			VALUES ($1, $2, 'corpus')
		`, rec.CorpusID, rec.ParentID)
		if err != nil {
			return fmt.Errorf("insert corpus parent ref: %w", err)
		}
		return nil
	})
}

// GetNamespace loads a namespace row by (parent id, namespace id).
func (s *RegistryStore) GetNamespace(ctx context.Context, parentID, namespaceID uuid.UUID) (*domain.NamespaceRecord, error) {
	query := `
		SELECT parent_id, namespace_id, parent_pathname, name, query_default_corpora, status, created_at
		FROM namespaces
		WHERE parent_id = $1 AND namespace_id = $2
	`

	var rec domain.NamespaceRecord
	var status string
	err := s.db.QueryRowContext(ctx, query, parentID, namespaceID).Scan(
		&rec.ParentID,
		&rec.NamespaceID,
		&rec.ParentPathname,
		&rec.Name,
		pq.Array(&rec.QueryDefaults),
		&status,
		&rec.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rec.Status = domain.CorpusStatus(status)
	return &rec, nil
}

// GetCorpus loads a corpus row by (parent id, corpus id).
func (s *RegistryStore) GetCorpus(ctx context.Context, parentID, corpusID uuid.UUID) (*domain.CorpusRecord, error) {
	query := `
		SELECT parent_id, corpus_id, parent_pathname, name, corpus_type, permissions, status, created_at
		FROM corpora
		WHERE parent_id = $1 AND corpus_id = $2
	`

	var rec domain.CorpusRecord
	var corpusType, status string
	err := s.db.QueryRowContext(ctx, query, parentID, corpusID).Scan(
		&rec.ParentID,
		&rec.CorpusID,
		&rec.ParentPathname,
		&rec.Name,
		&corpusType,
		&rec.Permissions,
		&status,
		&rec.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rec.Type = domain.CorpusType(corpusType)
	rec.Status = domain.CorpusStatus(status)
	return &rec, nil
}

// ListCorporaByParent returns the active corpora under a namespace.
func (s *RegistryStore) ListCorporaByParent(ctx context.Context, namespaceID uuid.UUID) ([]*domain.CorpusRecord, error) {
	query := `
		SELECT parent_id, corpus_id, parent_pathname, name, corpus_type, permissions, status, created_at
		FROM corpora
		WHERE parent_id = $1 AND status = $2
		ORDER BY name
	`

	rows, err := s.db.QueryContext(ctx, query, namespaceID, string(domain.CorpusStatusActive))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.CorpusRecord
	for rows.Next() {
		var rec domain.CorpusRecord
		var corpusType, status string
		if err := rows.Scan(
			&rec.ParentID,
			&rec.CorpusID,
			&rec.ParentPathname,
			&rec.Name,
			&corpusType,
			&rec.Permissions,
			&status,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		rec.Type = domain.CorpusType(corpusType)
		rec.Status = domain.CorpusStatus(status)
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// MarkCorpusDeleting conditionally hides the corpus. The row count tells the
// caller whether the row was still there.
func (s *RegistryStore) MarkCorpusDeleting(ctx context.Context, parentID, corpusID uuid.UUID) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE corpora SET status = $3
		WHERE parent_id = $1 AND corpus_id = $2
	`, parentID, corpusID, string(domain.CorpusStatusDeleting))
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// DeleteCorpus removes the corpus row and its parent back-reference.
func (s *RegistryStore) DeleteCorpus(ctx context.Context, parentID, corpusID uuid.UUID) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM corpora WHERE parent_id = $1 AND corpus_id = $2
		`, parentID, corpusID); err != nil {
			return fmt.Errorf("delete corpus row: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM parent_refs WHERE child_id = $1
		`, corpusID); err != nil {
			return fmt.Errorf("delete corpus parent ref: %w", err)
		}
		return nil
	})
}

// UpdateQueryDefaults rewrites a namespace's default-query corpus set.
func (s *RegistryStore) UpdateQueryDefaults(ctx context.Context, parentID, namespaceID uuid.UUID, refs []string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE namespaces SET query_default_corpora = $3
		WHERE parent_id = $1 AND namespace_id = $2
	`, parentID, namespaceID, pq.Array(refs))
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Ping checks if the store backend is healthy.
func (s *RegistryStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
