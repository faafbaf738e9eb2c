package driven

import (
	"context"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/domain"
)

// VectorStore persists chunks with derived embeddings and answers
// similarity queries. It wraps an external embedding+index engine; the
// engine's vector representation is opaque to the core.
//
// The store must be safe for concurrent Add and Search calls. It must not
// be relied on for duplicate suppression: callers re-ingesting a document
// delete its chunks first.
type VectorStore interface {
	// Add stores a batch of chunks. Chunk IDs are the storage keys.
	Add(ctx context.Context, chunks []domain.Chunk) error

	// Search returns up to opts.Limit chunks ranked by similarity to the
	// query, restricted to metadata matching opts.Filter. An empty result
	// is not an error.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)

	// Get retrieves stored chunks by ID. Missing IDs are skipped.
	Get(ctx context.Context, ids []string) ([]domain.Chunk, error)

	// Delete removes chunks by ID.
	Delete(ctx context.Context, ids []string) error

	// DeleteDocument removes every chunk belonging to a document.
	DeleteDocument(ctx context.Context, docID string) error

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}
