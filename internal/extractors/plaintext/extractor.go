// Package plaintext extracts text-shaped payloads verbatim.
package plaintext

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/domain"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles plain text content. It is the fallback for anything
// text-shaped that no specialised extractor claims.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// CanHandle reports whether the kind is a text type.
func (e *Extractor) CanHandle(kind string) bool {
	if strings.HasPrefix(kind, "text/") {
		return true
	}
	switch kind {
	case "application/json", "application/xml", "application/x-yaml":
		return true
	}
	return false
}

// Priority returns the selection priority. Low: this is the fallback.
func (e *Extractor) Priority() int {
	return 5
}

// Extract returns the payload as-is, rejecting binary data.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawContent) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidInput
	}
	if !utf8.Valid(raw.Data) {
		return "", domain.ErrUnsupportedKind
	}
	return strings.TrimSpace(string(raw.Data)), nil
}
