package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/domain"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/ports/driven"
)

// Ensure SourceProvider implements the interface.
var _ driven.SourceProvider = (*SourceProvider)(nil)

// SourceProvider serves a fixed set of sources from memory.
type SourceProvider struct {
	mu      sync.RWMutex
	sources map[string]domain.Source
}

// NewSourceProvider creates a provider over the given sources.
func NewSourceProvider(sources ...domain.Source) *SourceProvider {
	p := &SourceProvider{sources: make(map[string]domain.Source, len(sources))}
	for _, s := range sources {
		p.sources[s.ID] = s
	}
	return p
}

// Sources returns all sources, ordered by ID.
func (p *SourceProvider) Sources(_ context.Context) ([]domain.Source, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]domain.Source, 0, len(p.sources))
	for _, s := range p.sources {
		out = append(out, s)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

// Source returns one source by ID.
func (p *SourceProvider) Source(_ context.Context, id string) (*domain.Source, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s, ok := p.sources[id]
	if !ok {
		return nil, fmt.Errorf("%w: source %s", domain.ErrNotFound, id)
	}
	return &s, nil
}
