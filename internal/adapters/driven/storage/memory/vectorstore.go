package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/domain"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore is an in-memory implementation of driven.VectorStore.
// Ranking uses term overlap instead of embeddings, which is enough for
// tests and ephemeral runs; production uses the chromem adapter.
type VectorStore struct {
	mu     sync.RWMutex
	chunks map[string]domain.Chunk
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		chunks: make(map[string]domain.Chunk),
	}
}

// Add stores a batch of chunks, overwriting by chunk ID.
func (s *VectorStore) Add(_ context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range chunks {
		s.chunks[ch.ID] = ch
	}
	return nil
}

// Search ranks stored chunks by query-term overlap.
func (s *VectorStore) Search(_ context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	terms := strings.Fields(strings.ToLower(query))
	var results []domain.SearchResult

	for _, ch := range s.chunks {
		if !matchesFilter(ch.Metadata, opts.Filter) {
			continue
		}
		score := overlapScore(strings.ToLower(ch.Text), terms)
		if score == 0 {
			continue
		}
		results = append(results, domain.SearchResult{
			ChunkID:  ch.ID,
			Text:     ch.Text,
			Metadata: ch.Metadata,
			Score:    score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ChunkID < results[j].ChunkID
	})

	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results, nil
}

// Get retrieves stored chunks by ID. Missing IDs are skipped.
func (s *VectorStore) Get(_ context.Context, ids []string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Chunk, 0, len(ids))
	for _, id := range ids {
		if ch, ok := s.chunks[id]; ok {
			out = append(out, ch)
		}
	}
	return out, nil
}

// Delete removes chunks by ID.
func (s *VectorStore) Delete(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.chunks, id)
	}
	return nil
}

// DeleteDocument removes every chunk belonging to a document.
func (s *VectorStore) DeleteDocument(_ context.Context, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.chunks {
		if ch.DocumentID == docID {
			delete(s.chunks, id)
		}
	}
	return nil
}

// Count returns the number of stored chunks.
func (s *VectorStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

// Close releases resources.
func (s *VectorStore) Close() error {
	return nil
}

func matchesFilter(meta map[string]string, filter domain.SearchFilter) bool {
	for k, v := range filter {
		if meta[k] != v {
			return false
		}
	}
	return true
}

func overlapScore(text string, terms []string) float64 {
	if len(terms) == 0 {
		return 1
	}
	var hits int
	for _, term := range terms {
		if strings.Contains(text, term) {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}
