// Package markdown extracts readable text from Markdown content.
package markdown

import (
	"context"
	"regexp"
	"strings"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/domain"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles Markdown content.
type Extractor struct{}

// New creates a new Markdown extractor.
func New() *Extractor {
	return &Extractor{}
}

// CanHandle reports whether the kind is a Markdown type.
func (e *Extractor) CanHandle(kind string) bool {
	switch kind {
	case "text/markdown", "text/x-markdown":
		return true
	}
	return false
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50
}

// Extract strips Markdown formatting, keeping paragraph structure intact
// for downstream chunking.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawContent) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidInput
	}
	return strings.TrimSpace(stripMarkdown(string(raw.Data))), nil
}

// Pre-compiled expressions for Markdown stripping.
var (
	codeBlock  = regexp.MustCompile("(?s)```[^`]*```")
	inlineCode = regexp.MustCompile("`[^`]+`")
	images     = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	links      = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings   = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	listBullet = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	blockquote = regexp.MustCompile(`(?m)^>\s?`)
)

// stripMarkdown removes common Markdown formatting.
// Simplified handling: uncommon constructs pass through as text.
func stripMarkdown(content string) string {
	content = codeBlock.ReplaceAllString(content, "")
	content = inlineCode.ReplaceAllString(content, "")
	content = images.ReplaceAllString(content, "")
	content = links.ReplaceAllString(content, "$1")
	content = headings.ReplaceAllString(content, "")
	content = listBullet.ReplaceAllString(content, "")
	content = blockquote.ReplaceAllString(content, "")
	content = strings.ReplaceAll(content, "**", "")
	content = strings.ReplaceAll(content, "__", "")
	content = strings.ReplaceAll(content, "*", "")
	return content
}

// Title returns the first H1 heading of a Markdown document, or "".
func Title(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
	}
	return ""
}
