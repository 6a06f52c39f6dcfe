package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/memas-labs/memas-core/internal/core/domain"
	"github.com/memas-labs/memas-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore implements driven.DocumentStore against the Elasticsearch
// HTTP API: bulk indexing, a bool/terms-filtered match query for search and
// _delete_by_query for corpus purges.
type DocumentStore struct {
	baseURL    string
	index      string
	httpClient *http.Client
	searchSize int
}

// Config holds Elasticsearch connection configuration
type Config struct {
	// BaseURL is the Elasticsearch endpoint (e.g., http://localhost:9200)
	BaseURL string

	// Index is the index that holds all document chunks
	Index string

	// SearchSize caps hits returned per query
	SearchSize int

	// Timeout for HTTP requests
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:    baseURL,
		Index:      "memas-documents",
		SearchSize: 20,
		Timeout:    30 * time.Second,
	}
}

// NewDocumentStore creates a new Elasticsearch-backed DocumentStore
func NewDocumentStore(cfg Config) *DocumentStore {
	return &DocumentStore{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		index:      cfg.Index,
		searchSize: cfg.SearchSize,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// chunkSource is the indexed form of one chunk
type chunkSource struct {
	CorpusID   string `json:"corpus_id"`
	DocumentID string `json:"document_id"`
	Name       string `json:"name"`
	Text       string `json:"text"`
}

// SaveChunks indexes all chunks of a document in one bulk request.
func (s *DocumentStore) SaveChunks(ctx context.Context, chunks []domain.ChunkEntity) error {
	if len(chunks) == 0 {
		return nil
	}

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	for _, chunk := range chunks {
		action := map[string]map[string]string{
			"index": {"_index": s.index, "_id": chunk.Key},
		}
		if err := enc.Encode(action); err != nil {
			return err
		}
		src := chunkSource{
			CorpusID:   chunk.Entity.CorpusID.String(),
			DocumentID: chunk.Entity.DocumentID.String(),
			Name:       chunk.Entity.Name,
			Text:       chunk.Entity.Text,
		}
		if err := enc.Encode(src); err != nil {
			return err
		}
	}

	url := fmt.Sprintf("%s/_bulk?refresh=wait_for", s.baseURL)
	respBody, err := s.do(ctx, http.MethodPost, url, body.Bytes(), "application/x-ndjson")
	if err != nil {
		return fmt.Errorf("bulk index: %w", err)
	}

	var bulkResp struct {
		Errors bool `json:"errors"`
	}
	if err := json.Unmarshal(respBody, &bulkResp); err != nil {
		return fmt.Errorf("decode bulk response: %w", err)
	}
	if bulkResp.Errors {
		return fmt.Errorf("bulk index reported item failures")
	}
	return nil
}

// Search runs one full-text match query filtered to the given corpora.
func (s *DocumentStore) Search(ctx context.Context, corpusIDs []uuid.UUID, clue string) ([]domain.DocumentHit, error) {
	if len(corpusIDs) == 0 {
		return nil, nil
	}

	ids := make([]string, len(corpusIDs))
	for i, id := range corpusIDs {
		ids[i] = id.String()
	}

	searchReq := map[string]interface{}{
		"size": s.searchSize,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"match": map[string]interface{}{"text": clue},
				},
				"filter": map[string]interface{}{
					"terms": map[string]interface{}{"corpus_id": ids},
				},
			},
		},
	}
	body, err := json.Marshal(searchReq)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/%s/_search", s.baseURL, s.index)
	respBody, err := s.do(ctx, http.MethodPost, url, body, "application/json")
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	var searchResp struct {
		Hits struct {
			Hits []struct {
				Score  float64     `json:"_score"`
				Source chunkSource `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(respBody, &searchResp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	hits := make([]domain.DocumentHit, 0, len(searchResp.Hits.Hits))
	for _, h := range searchResp.Hits.Hits {
		corpusID, err := uuid.Parse(h.Source.CorpusID)
		if err != nil {
			return nil, fmt.Errorf("corrupt corpus id in hit: %w", err)
		}
		documentID, err := uuid.Parse(h.Source.DocumentID)
		if err != nil {
			return nil, fmt.Errorf("corrupt document id in hit: %w", err)
		}
		hits = append(hits, domain.DocumentHit{
			Score: h.Score,
			Entity: domain.DocumentEntity{
				CorpusID:   corpusID,
				DocumentID: documentID,
				Name:       h.Source.Name,
				Text:       h.Source.Text,
			},
		})
	}
	return hits, nil
}

// DeleteCorpus removes every chunk belonging to a corpus.
func (s *DocumentStore) DeleteCorpus(ctx context.Context, corpusID uuid.UUID) error {
	deleteReq := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{"corpus_id": corpusID.String()},
		},
	}
	body, err := json.Marshal(deleteReq)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/%s/_delete_by_query?refresh=true", s.baseURL, s.index)
	if _, err := s.do(ctx, http.MethodPost, url, body, "application/json"); err != nil {
		return fmt.Errorf("delete corpus chunks: %w", err)
	}
	return nil
}

// HealthCheck verifies the index is available.
func (s *DocumentStore) HealthCheck(ctx context.Context) error {
	url := fmt.Sprintf("%s/_cluster/health", s.baseURL)
	if _, err := s.do(ctx, http.MethodGet, url, nil, ""); err != nil {
		return fmt.Errorf("elasticsearch health: %w", err)
	}
	return nil
}

// Ping aliases HealthCheck for the readiness probe.
func (s *DocumentStore) Ping(ctx context.Context) error {
	return s.HealthCheck(ctx)
}

// do issues one request and returns the response body, treating any 4xx/5xx
// as an error.
func (s *DocumentStore) do(ctx context.Context, method, url string, body []byte, contentType string) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("elasticsearch request failed: %s - %s", resp.Status, string(respBody))
	}
	return respBody, nil
}
