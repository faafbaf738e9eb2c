package driven

import (
	"context"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/domain"
)

// Extractor converts raw fetched content of a particular kind into plain
// text. Selection happens by capability, not by a string-keyed dispatch
// table: the registry asks each extractor whether it can handle the kind.
type Extractor interface {
	// CanHandle reports whether this extractor understands the content
	// kind (a MIME type or source-specific hint).
	CanHandle(kind string) bool

	// Priority breaks ties when several extractors can handle a kind
	// (higher wins). Fallback extractors should return a low value.
	Priority() int

	// Extract produces plain text from the raw payload.
	Extract(ctx context.Context, raw *domain.RawContent) (string, error)
}

// ExtractorRegistry selects and runs the best extractor for a payload.
type ExtractorRegistry interface {
	// Extract picks the highest-priority capable extractor and runs it.
	// Returns domain.ErrUnsupportedKind when nothing can handle the kind.
	Extract(ctx context.Context, raw *domain.RawContent) (string, error)
}
