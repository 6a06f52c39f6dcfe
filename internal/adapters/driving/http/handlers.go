package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/memas-labs/memas-core/internal/core/domain"
)

// defaultRecallLimit applies when a recall request omits the limit.
const defaultRecallLimit = 10

// CreateNamespaceRequest is the control-plane namespace creation body
type CreateNamespaceRequest struct {
	NamespacePathname string `json:"namespace_pathname"`
}

// CreateCorpusRequest is the control-plane corpus creation body
type CreateCorpusRequest struct {
	CorpusPathname string `json:"corpus_pathname"`
	CorpusType     string `json:"corpus_type"`
}

// MemorizeRequest is the data-plane document ingestion body
type MemorizeRequest struct {
	CorpusPathname string          `json:"corpus_pathname"`
	Document       string          `json:"document"`
	Citation       domain.Citation `json:"citation"`
}

// RecallRequest is the data-plane search body
type RecallRequest struct {
	NamespacePathname string `json:"namespace_pathname"`
	Clue              string `json:"clue"`
	Limit             int    `json:"limit"`
}

// Health endpoints

// handleHealth reports process liveness
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports readiness by pinging the backing stores
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	if s.redisClient != nil {
		if err := s.redisClient.Ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "name index unavailable")
			return
		}
	}
	if s.docStore != nil {
		if err := s.docStore.Ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "document store unavailable")
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleVersion returns the build version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// Control plane endpoints

// handleCreateNamespace creates a namespace at the requested pathname
func (s *Server) handleCreateNamespace(w http.ResponseWriter, r *http.Request) {
	var req CreateNamespaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.NamespacePathname == "" {
		writeError(w, http.StatusBadRequest, "namespace_pathname is required")
		return
	}

	id, err := s.registryService.CreateNamespace(r.Context(), req.NamespacePathname)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"namespace_id": id.String()})
}

// handleCreateCorpus creates a conversation or knowledge corpus
func (s *Server) handleCreateCorpus(w http.ResponseWriter, r *http.Request) {
	var req CreateCorpusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CorpusPathname == "" {
		writeError(w, http.StatusBadRequest, "corpus_pathname is required")
		return
	}

	var create func() (id string, err error)
	switch domain.CorpusType(req.CorpusType) {
	case domain.CorpusTypeConversation, "":
		create = func() (string, error) {
			id, err := s.registryService.CreateConversationCorpus(r.Context(), req.CorpusPathname)
			return id.String(), err
		}
	case domain.CorpusTypeKnowledge:
		create = func() (string, error) {
			id, err := s.registryService.CreateKnowledgeCorpus(r.Context(), req.CorpusPathname)
			return id.String(), err
		}
	default:
		writeError(w, http.StatusBadRequest, "unknown corpus_type")
		return
	}

	id, err := create()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"corpus_id": id})
}

// handleGetCorpusInfo resolves a corpus pathname to its info
func (s *Server) handleGetCorpusInfo(w http.ResponseWriter, r *http.Request) {
	pathname := r.PathValue("pathname")

	info, err := s.registryService.GetCorpusInfo(r.Context(), pathname)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, info)
}

// handleDeleteCorpus frees the pathname synchronously and schedules the
// content purge. Returns 202 since the purge completes in the background.
func (s *Server) handleDeleteCorpus(w http.ResponseWriter, r *http.Request) {
	pathname := r.PathValue("pathname")

	if err := s.memoryService.DeleteCorpus(r.Context(), pathname); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "deleting"})
}

// Data plane endpoints

// handleMemorize stores and indexes a document
func (s *Server) handleMemorize(w http.ResponseWriter, r *http.Request) {
	var req MemorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CorpusPathname == "" || req.Document == "" {
		writeError(w, http.StatusBadRequest, "corpus_pathname and document are required")
		return
	}

	ok, err := s.memoryService.Memorize(r.Context(), req.CorpusPathname, req.Document, req.Citation)
	if err != nil && !isDomainError(err) {
		// Indexing failures leave partial writes; the caller sees success
		// false rather than a transport error.
		writeJSON(w, http.StatusOK, map[string]bool{"success": false})
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": ok})
}

// handleRecall searches a namespace's query corpora for a clue
func (s *Server) handleRecall(w http.ResponseWriter, r *http.Request) {
	var req RecallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.NamespacePathname == "" || req.Clue == "" {
		writeError(w, http.StatusBadRequest, "namespace_pathname and clue are required")
		return
	}
	if req.Limit <= 0 {
		req.Limit = defaultRecallLimit
	}

	hits, err := s.memoryService.Recall(r.Context(), req.NamespacePathname, req.Clue, req.Limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if hits == nil {
		hits = []domain.ScoredHit{}
	}

	writeJSON(w, http.StatusOK, hits)
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps the domain error taxonomy to HTTP status codes
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrIllegalName), errors.Is(err, domain.ErrNameExists):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNamespaceNotFound), errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInternalInconsistency):
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func isDomainError(err error) bool {
	return errors.Is(err, domain.ErrIllegalName) ||
		errors.Is(err, domain.ErrNameExists) ||
		errors.Is(err, domain.ErrNamespaceNotFound) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrInternalInconsistency)
}
