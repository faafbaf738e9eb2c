package extractors

import (
	"github.com/swiss-ai/dsl25-7-center-bot/internal/extractors/html"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/extractors/markdown"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/extractors/office"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/extractors/plaintext"
)

// NewDefaultRegistry creates a registry with the standard extractor set.
// Order does not matter; selection is by CanHandle plus priority.
func NewDefaultRegistry() *Registry {
	return NewRegistry(
		markdown.New(),
		html.New(),
		office.New(),
		plaintext.New(),
	)
}
