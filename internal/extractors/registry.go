// Package extractors provides content extraction implementations and the
// capability registry that selects between them.
package extractors

import (
	"context"
	"fmt"
	"sort"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/domain"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry holds the registered extractors and selects by capability.
// Selection asks each extractor whether it can handle the content kind
// and picks the highest-priority match.
type Registry struct {
	extractors []driven.Extractor
}

// NewRegistry creates a registry with the given extractors.
func NewRegistry(extractors ...driven.Extractor) *Registry {
	r := &Registry{}
	for _, e := range extractors {
		r.Register(e)
	}
	return r
}

// Register adds an extractor, keeping the set ordered by priority
// (highest first) so selection is a linear scan.
func (r *Registry) Register(e driven.Extractor) {
	r.extractors = append(r.extractors, e)
	sort.SliceStable(r.extractors, func(i, j int) bool {
		return r.extractors[i].Priority() > r.extractors[j].Priority()
	})
}

// Extract picks the highest-priority capable extractor and runs it.
func (r *Registry) Extract(ctx context.Context, raw *domain.RawContent) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidInput
	}

	for _, e := range r.extractors {
		if e.CanHandle(raw.Kind) {
			return e.Extract(ctx, raw)
		}
	}
	return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedKind, raw.Kind)
}
