package extractors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/domain"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/extractors/office"
)

// fakeExtractor is a configurable test extractor.
type fakeExtractor struct {
	kinds    map[string]bool
	priority int
	output   string
	err      error
}

func (f *fakeExtractor) CanHandle(kind string) bool { return f.kinds[kind] }
func (f *fakeExtractor) Priority() int              { return f.priority }
func (f *fakeExtractor) Extract(_ context.Context, _ *domain.RawContent) (string, error) {
	return f.output, f.err
}

func TestRegistryExtract(t *testing.T) {
	ctx := context.Background()

	t.Run("selects the capable extractor", func(t *testing.T) {
		md := &fakeExtractor{kinds: map[string]bool{"text/markdown": true}, priority: 50, output: "md"}
		txt := &fakeExtractor{kinds: map[string]bool{"text/plain": true}, priority: 5, output: "txt"}
		r := NewRegistry(md, txt)

		out, err := r.Extract(ctx, &domain.RawContent{Kind: "text/markdown"})
		require.NoError(t, err)
		assert.Equal(t, "md", out)
	})

	t.Run("higher priority wins when both can handle", func(t *testing.T) {
		specific := &fakeExtractor{kinds: map[string]bool{"text/plain": true}, priority: 90, output: "specific"}
		fallback := &fakeExtractor{kinds: map[string]bool{"text/plain": true}, priority: 5, output: "fallback"}
		// Register the low-priority one first to prove ordering is by
		// priority, not registration order.
		r := NewRegistry(fallback, specific)

		out, err := r.Extract(ctx, &domain.RawContent{Kind: "text/plain"})
		require.NoError(t, err)
		assert.Equal(t, "specific", out)
	})

	t.Run("unsupported kind", func(t *testing.T) {
		r := NewRegistry(&fakeExtractor{kinds: map[string]bool{"text/plain": true}, priority: 5})

		_, err := r.Extract(ctx, &domain.RawContent{Kind: "application/octet-stream"})
		assert.True(t, errors.Is(err, domain.ErrUnsupportedKind))
	})

	t.Run("nil content", func(t *testing.T) {
		r := NewDefaultRegistry()
		_, err := r.Extract(ctx, nil)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	})
}

func TestDefaultRegistry(t *testing.T) {
	ctx := context.Background()
	r := NewDefaultRegistry()

	t.Run("markdown", func(t *testing.T) {
		out, err := r.Extract(ctx, &domain.RawContent{
			Kind: "text/markdown",
			Data: []byte("# Heading\n\nSome **bold** text with a [link](https://example.com)."),
		})
		require.NoError(t, err)
		assert.Equal(t, "Heading\n\nSome bold text with a link.", out)
	})

	t.Run("html", func(t *testing.T) {
		out, err := r.Extract(ctx, &domain.RawContent{
			Kind: "text/html",
			Data: []byte("<html><head><title>T</title></head><body><p>First.</p><p>Second.</p></body></html>"),
		})
		require.NoError(t, err)
		assert.Equal(t, "First.\n\nSecond.", out)
	})

	t.Run("plain text fallback", func(t *testing.T) {
		out, err := r.Extract(ctx, &domain.RawContent{
			Kind: "text/csv",
			Data: []byte("a,b,c\n1,2,3\n"),
		})
		require.NoError(t, err)
		assert.Equal(t, "a,b,c\n1,2,3", out)
	})

	t.Run("office formats are claimed", func(t *testing.T) {
		// A malformed payload proves dispatch: an unclaimed kind would
		// surface ErrUnsupportedKind instead.
		_, err := r.Extract(ctx, &domain.RawContent{
			Kind: office.MIMEDocx,
			Data: []byte("not an archive"),
		})
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	})
}
