package driven

import (
	"context"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/domain"
)

// SourceProvider supplies the configured sources. Backed by the config
// store in production and by a static list in tests.
type SourceProvider interface {
	// Sources returns all configured sources.
	Sources(ctx context.Context) ([]domain.Source, error)

	// Source returns one source by ID, or domain.ErrNotFound.
	Source(ctx context.Context, id string) (*domain.Source, error)
}
