package driven

import (
	"context"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/domain"
)

// SourceConnector lists and fetches items from one external source.
// Each source type (gdrive, notion, web, uploads) implements this interface.
type SourceConnector interface {
	// Type returns the connector type identifier.
	Type() string

	// SourceID returns the configured source ID.
	SourceID() string

	// Validate checks the connector is properly configured and can reach
	// its backend. Returns nil if ready to sync.
	Validate(ctx context.Context) error

	// ListItems enumerates the fetchable items with their modification
	// times. Listing is cheap relative to fetching; the coordinator uses
	// the result to compute the delta set.
	ListItems(ctx context.Context) ([]domain.SourceItem, error)

	// FetchContent retrieves the raw payload for an item.
	// Fails with domain.ErrNotFound, domain.ErrUnsupportedKind or a
	// transient error wrapped in domain.ErrFetch.
	FetchContent(ctx context.Context, itemID string) (*domain.RawContent, error)

	// Changes listens for out-of-band change hints (e.g., a file landing
	// in a watched directory). Returns nil when the connector cannot
	// watch; the scheduler interval then remains the only trigger.
	Changes(ctx context.Context) (<-chan string, error)

	// Close releases resources.
	Close() error
}

// ConnectorFactory builds a connector for a configured source.
type ConnectorFactory interface {
	// Create constructs a connector from the source configuration.
	Create(ctx context.Context, source domain.Source) (SourceConnector, error)
}
