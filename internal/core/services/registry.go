package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/memas-labs/memas-core/internal/core/domain"
	"github.com/memas-labs/memas-core/internal/core/ports/driven"
	"github.com/memas-labs/memas-core/internal/core/ports/driving"
)

// Ensure registryService implements RegistryService
var _ driving.RegistryService = (*registryService)(nil)

// registryService implements namespace/corpus naming on top of the name
// index (pathname exclusivity) and the registry store (info rows).
type registryService struct {
	names  driven.NameIndex
	store  driven.RegistryStore
	logger *slog.Logger
}

// NewRegistryService creates a new RegistryService
func NewRegistryService(names driven.NameIndex, store driven.RegistryStore, logger *slog.Logger) driving.RegistryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &registryService{
		names:  names,
		store:  store,
		logger: logger,
	}
}

// resolveID resolves a pathname through the name index. The root namespace
// only exists logically and short-circuits to its reserved id.
func (s *registryService) resolveID(ctx context.Context, pathname string) (uuid.UUID, error) {
	if pathname == domain.RootName {
		return domain.RootID, nil
	}
	return s.names.Lookup(ctx, pathname)
}

// CreateNamespace creates a namespace for the given pathname.
func (s *registryService) CreateNamespace(ctx context.Context, pathname string) (uuid.UUID, error) {
	s.logger.Debug("creating namespace", "namespace_pathname", pathname)

	if pathname == domain.RootName {
		return uuid.Nil, &domain.NameExistsError{Pathname: pathname}
	}

	parentPathname, name, err := domain.SplitNamespacePathname(pathname)
	if err != nil {
		return uuid.Nil, err
	}
	parentID, err := s.resolveID(ctx, parentPathname)
	if err != nil {
		return uuid.Nil, err
	}

	namespaceID := uuid.New()

	inserted, err := s.names.PutIfAbsent(ctx, pathname, namespaceID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("reserve namespace name: %w", err)
	}
	if !inserted {
		s.logger.Info("namespace already exists", "namespace_pathname", pathname)
		return uuid.Nil, &domain.NameExistsError{Pathname: pathname}
	}

	// The name entry and the info rows live in different stores, so this
	// second write is not atomic with the reservation above. A crash here
	// leaves a reserved name without rows; surfaced, not masked.
	rec := domain.NamespaceRecord{
		ParentID:       parentID,
		NamespaceID:    namespaceID,
		ParentPathname: parentPathname,
		Name:           name,
		CreatedAt:      time.Now().UTC(),
		Status:         domain.CorpusStatusActive,
	}
	if err := s.store.InsertNamespace(ctx, rec); err != nil {
		return uuid.Nil, fmt.Errorf("write namespace info for %q: %w", pathname, err)
	}

	return namespaceID, nil
}

// createCorpus is the shared creation path for all corpus types.
func (s *registryService) createCorpus(ctx context.Context, pathname string, corpusType domain.CorpusType, permissions int) (uuid.UUID, error) {
	s.logger.Debug("creating corpus", "corpus_pathname", pathname, "corpus_type", corpusType)

	parentPathname, name, err := domain.SplitCorpusPathname(pathname)
	if err != nil {
		return uuid.Nil, err
	}
	parentID, err := s.resolveID(ctx, parentPathname)
	if err != nil {
		return uuid.Nil, err
	}

	corpusID := uuid.New()

	inserted, err := s.names.PutIfAbsent(ctx, pathname, corpusID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("reserve corpus name: %w", err)
	}
	if !inserted {
		s.logger.Info("corpus already exists", "corpus_pathname", pathname)
		return uuid.Nil, &domain.NameExistsError{Pathname: pathname}
	}

	rec := domain.CorpusRecord{
		ParentID:       parentID,
		CorpusID:       corpusID,
		ParentPathname: parentPathname,
		Name:           name,
		Type:           corpusType,
		Permissions:    permissions,
		CreatedAt:      time.Now().UTC(),
		Status:         domain.CorpusStatusActive,
	}
	if err := s.store.InsertCorpus(ctx, rec); err != nil {
		return uuid.Nil, fmt.Errorf("write corpus info for %q: %w", pathname, err)
	}

	return corpusID, nil
}

// CreateConversationCorpus creates a read-write conversation corpus.
func (s *registryService) CreateConversationCorpus(ctx context.Context, pathname string) (uuid.UUID, error) {
	return s.createCorpus(ctx, pathname, domain.CorpusTypeConversation, domain.PermissionReadWrite)
}

// CreateKnowledgeCorpus creates a read-only knowledge corpus.
func (s *registryService) CreateKnowledgeCorpus(ctx context.Context, pathname string) (uuid.UUID, error) {
	return s.createCorpus(ctx, pathname, domain.CorpusTypeKnowledge, domain.PermissionRead)
}

// corpusIDsByName resolves a corpus pathname to (parent id, corpus id).
func (s *registryService) corpusIDsByName(ctx context.Context, pathname string) (uuid.UUID, uuid.UUID, error) {
	parentPathname, _, err := domain.SplitCorpusPathname(pathname)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	corpusID, err := s.resolveID(ctx, pathname)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	parentID, err := s.resolveID(ctx, parentPathname)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return parentID, corpusID, nil
}

// namespaceIDsByName resolves a namespace pathname to (parent id, namespace id).
func (s *registryService) namespaceIDsByName(ctx context.Context, pathname string) (uuid.UUID, uuid.UUID, error) {
	parentPathname, _, err := domain.SplitNamespacePathname(pathname)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	namespaceID, err := s.resolveID(ctx, pathname)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	parentID, err := s.resolveID(ctx, parentPathname)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return parentID, namespaceID, nil
}

// GetCorpusInfo resolves a corpus pathname and loads its info.
func (s *registryService) GetCorpusInfo(ctx context.Context, pathname string) (*domain.CorpusInfo, error) {
	parentID, corpusID, err := s.corpusIDsByName(ctx, pathname)
	if err != nil {
		return nil, err
	}

	info, err := s.GetCorpusInfoByID(ctx, parentID, corpusID)
	if err != nil {
		return nil, err
	}

	// The name index and the corpus row must agree on the pathname.
	// A mismatch means the registry invariant is broken; never return
	// someone else's data.
	if info.Pathname != pathname {
		s.logger.Error("corpus info pathname mismatch",
			"requested", pathname,
			"reconstructed", info.Pathname,
			"corpus_id", corpusID,
		)
		return nil, fmt.Errorf("%w: corpus info %q != requested %q",
			domain.ErrInternalInconsistency, info.Pathname, pathname)
	}
	return info, nil
}

// GetCorpusInfoByID loads corpus info directly by ids, bypassing the name
// index.
func (s *registryService) GetCorpusInfoByID(ctx context.Context, namespaceID, corpusID uuid.UUID) (*domain.CorpusInfo, error) {
	rec, err := s.store.GetCorpus(ctx, namespaceID, corpusID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// The caller got these ids from somewhere, so a missing row
			// means an interrupted creation or deletion.
			return nil, fmt.Errorf("%w: corpus %s creation or deletion incomplete",
				domain.ErrInternalInconsistency, corpusID)
		}
		return nil, err
	}
	return rec.Info(), nil
}

// GetQueryCorpora returns the corpus set a namespace queries by default.
func (s *registryService) GetQueryCorpora(ctx context.Context, namespacePathname string) ([]*domain.CorpusInfo, error) {
	parentID, namespaceID, err := s.namespaceIDsByName(ctx, namespacePathname)
	if err != nil {
		return nil, err
	}

	ns, err := s.store.GetNamespace(ctx, parentID, namespaceID)
	if err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]bool)
	var corpora []*domain.CorpusInfo

	// Registered default-query set first. References that no longer resolve
	// were deleted; prune them and persist the pruned set (the one designed
	// self-healing case).
	var stale []string
	kept := make([]string, 0, len(ns.QueryDefaults))
	for _, raw := range ns.QueryDefaults {
		ref, err := domain.ParseCorpusRef(raw)
		if err != nil {
			s.logger.Error("malformed query-default corpus ref", "ref", raw, "namespace_pathname", namespacePathname)
			stale = append(stale, raw)
			continue
		}
		info, err := s.GetCorpusInfoByID(ctx, ref.NamespaceID, ref.CorpusID)
		if err != nil {
			if errors.Is(err, domain.ErrInternalInconsistency) {
				stale = append(stale, raw)
				continue
			}
			return nil, err
		}
		kept = append(kept, raw)
		if !seen[info.CorpusID] {
			seen[info.CorpusID] = true
			corpora = append(corpora, info)
		}
	}
	if len(stale) > 0 {
		s.logger.Info("pruning stale query-default corpora",
			"namespace_pathname", namespacePathname, "pruned", len(stale))
		if err := s.store.UpdateQueryDefaults(ctx, parentID, namespaceID, kept); err != nil {
			return nil, fmt.Errorf("rewrite query defaults for %q: %w", namespacePathname, err)
		}
	}

	// Direct child corpora are always queried.
	children, err := s.store.ListCorporaByParent(ctx, namespaceID)
	if err != nil {
		return nil, err
	}
	for _, rec := range children {
		if !seen[rec.CorpusID] {
			seen[rec.CorpusID] = true
			corpora = append(corpora, rec.Info())
		}
	}

	return corpora, nil
}

// InitiateDeleteCorpus runs the synchronous phase of a staged delete.
// Re-entrant from any intermediate state: the two conditional-write outcomes
// alone distinguish "already initiated" from "truly new", no extra reads.
func (s *registryService) InitiateDeleteCorpus(ctx context.Context, parentID, corpusID uuid.UUID, pathname string) error {
	s.logger.Debug("initiating delete corpus", "corpus_pathname", pathname, "corpus_id", corpusID)

	// Step 1: free the pathname, guarded on it still pointing at this
	// corpus. An absent entry means a previous initiate already ran.
	deleted, err := s.names.CompareAndDelete(ctx, pathname, corpusID)
	if err != nil {
		return fmt.Errorf("free corpus name %q: %w", pathname, err)
	}
	if !deleted {
		s.logger.Info("corpus name already freed", "corpus_pathname", pathname, "corpus_id", corpusID)
		return &domain.NamespaceNotFoundError{Pathname: pathname}
	}

	// Step 2: hide the row, guarded on it still existing. The name index
	// said the corpus existed, so a missing row is a detected inconsistency.
	marked, err := s.store.MarkCorpusDeleting(ctx, parentID, corpusID)
	if err != nil {
		return fmt.Errorf("mark corpus deleting %s: %w", corpusID, err)
	}
	if !marked {
		s.logger.Error("corpus row missing while name entry existed",
			"corpus_pathname", pathname, "namespace_id", parentID, "corpus_id", corpusID)
		return fmt.Errorf("%w: corpus row for %s already deleted but name entry wasn't",
			domain.ErrInternalInconsistency, corpusID)
	}

	return nil
}

// FinishDeleteCorpus removes the remaining corpus metadata. The pathname
// entry must have been deleted prior to this call, and all document content
// must already be purged.
func (s *registryService) FinishDeleteCorpus(ctx context.Context, namespaceID, corpusID uuid.UUID) error {
	s.logger.Debug("finishing delete corpus", "namespace_id", namespaceID, "corpus_id", corpusID)
	return s.store.DeleteCorpus(ctx, namespaceID, corpusID)
}
