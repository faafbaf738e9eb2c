// Package chromem implements the vector store port on top of chromem-go,
// an embedded, pure Go vector database with disk persistence. Embeddings
// are produced by a pluggable embedding function, typically pointed at an
// OpenAI-compatible embeddings endpoint.
package chromem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	chromemgo "github.com/philippgille/chromem-go"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/domain"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/ports/driven"
)

// collectionName is the single collection holding all ingested chunks.
// Source scoping happens through metadata filters, not collections.
const collectionName = "knowledge_chunks"

// Store wraps chromem-go with disk persistence.
type Store struct {
	mu  sync.RWMutex
	db  *chromemgo.DB
	col *chromemgo.Collection
}

var _ driven.VectorStore = (*Store)(nil)

// NewStore creates (or opens) the persistent vector store at
// dataDir/vectorstore/. embedFn derives embeddings for stored chunks and
// queries; pass chromemgo.NewEmbeddingFuncOpenAICompat pointed at the
// configured embeddings endpoint.
func NewStore(dataDir string, embedFn chromemgo.EmbeddingFunc) (*Store, error) {
	dir := filepath.Join(dataDir, "vectorstore")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating vectorstore directory: %w", err)
	}

	db, err := chromemgo.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("opening vectorstore: %w", err)
	}

	col, err := db.GetOrCreateCollection(collectionName, nil, embedFn)
	if err != nil {
		return nil, fmt.Errorf("opening collection: %w", err)
	}

	return &Store{db: db, col: col}, nil
}

// Add stores a batch of chunks, keyed by chunk ID. Re-adding an existing
// ID overwrites the stored chunk.
func (s *Store) Add(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs := make([]chromemgo.Document, 0, len(chunks))
	for _, chunk := range chunks {
		meta := make(map[string]string, len(chunk.Metadata)+3)
		for k, v := range chunk.Metadata {
			meta[k] = v
		}
		// Keep the identifying keys present even if the caller's metadata
		// omitted them; deletion by document relies on doc_id.
		meta[domain.MetaDocID] = chunk.DocumentID
		meta[domain.MetaChunkID] = chunk.ID
		meta[domain.MetaChunkIndex] = strconv.Itoa(chunk.Index)

		docs = append(docs, chromemgo.Document{
			ID:       chunk.ID,
			Content:  chunk.Text,
			Metadata: meta,
		})
	}

	if err := s.col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("%w: adding chunks: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Search returns up to opts.Limit chunks ranked by similarity to the
// query, restricted to metadata matching opts.Filter.
func (s *Store) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := s.col.Count()
	if count == 0 {
		return nil, nil
	}

	k := opts.Limit
	if k <= 0 || k > count {
		k = count
	}

	var where map[string]string
	if len(opts.Filter) > 0 {
		where = map[string]string(opts.Filter)
	}

	var results []chromemgo.Result
	var err error

	// chromem-go rejects nResults larger than the number of documents that
	// survive the where filter, and the filtered count is not exposed.
	// Step down k until the query succeeds. Any other failure, such as the
	// embedding backend being down, is fatal and must not be retried.
	for attemptK := k; attemptK > 0; attemptK-- {
		results, err = s.col.Query(ctx, query, attemptK, where, nil)
		if err == nil || !strings.Contains(err.Error(), "nResults") {
			break
		}
	}
	if err != nil {
		// Exhausting the step-down means the filter matched nothing.
		if strings.Contains(err.Error(), "nResults") {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: querying chunks: %v", domain.ErrStoreUnavailable, err)
	}

	out := make([]domain.SearchResult, 0, len(results))
	for _, r := range results {
		out = append(out, domain.SearchResult{
			ChunkID:  r.ID,
			Text:     r.Content,
			Metadata: r.Metadata,
			Score:    float64(r.Similarity),
		})
	}
	return out, nil
}

// Get retrieves stored chunks by ID. Missing IDs are skipped.
func (s *Store) Get(ctx context.Context, ids []string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunks := make([]domain.Chunk, 0, len(ids))
	for _, id := range ids {
		doc, err := s.col.GetByID(ctx, id)
		if err != nil {
			continue
		}
		chunks = append(chunks, documentToChunk(doc))
	}
	return chunks, nil
}

// Delete removes chunks by ID.
func (s *Store) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.col.Delete(ctx, nil, nil, ids...); err != nil {
		return fmt.Errorf("%w: deleting chunks: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// DeleteDocument removes every chunk belonging to a document.
func (s *Store) DeleteDocument(ctx context.Context, docID string) error {
	if docID == "" {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.col.Delete(ctx, map[string]string{domain.MetaDocID: docID}, nil)
	if err != nil {
		return fmt.Errorf("%w: deleting document chunks: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Count returns the number of stored chunks.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.col.Count(), nil
}

// Close releases resources. chromem-go persists synchronously per
// operation, so there is nothing to flush.
func (s *Store) Close() error {
	return nil
}

// documentToChunk converts a stored chromem document back into a chunk.
func documentToChunk(doc chromemgo.Document) domain.Chunk {
	chunk := domain.Chunk{
		ID:         doc.ID,
		DocumentID: doc.Metadata[domain.MetaDocID],
		Text:       doc.Content,
		Metadata:   doc.Metadata,
	}
	if idx, err := strconv.Atoi(doc.Metadata[domain.MetaChunkIndex]); err == nil {
		chunk.Index = idx
	}
	return chunk
}
