// Package chunker splits extracted document text into overlapping chunks.
// Splitting is deterministic: the same input and parameters always yield
// the same chunk sequence, which keeps derived chunk IDs stable across
// re-ingestion.
package chunker

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/domain"
)

// DefaultChunkSize is the default maximum chunk length in characters.
const DefaultChunkSize = 500

// DefaultOverlap is the default overlap carried between chunks, in words.
const DefaultOverlap = 50

// paragraphSep matches blank-line paragraph boundaries.
var paragraphSep = regexp.MustCompile(`\n\s*\n`)

// Chunker accumulates paragraphs into bounded chunks.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithChunkSize sets the maximum chunk length in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between consecutive chunks in words.
func WithOverlap(words int) Option {
	return func(c *Chunker) {
		if words >= 0 {
			c.overlap = words
		}
	}
}

// New creates a Chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Split breaks text into chunks for the given document. Paragraphs are
// accumulated greedily; when appending the next paragraph would exceed the
// chunk size, the buffer is closed and the next one is seeded with the
// trailing overlap words of the closed chunk. A single paragraph longer
// than the chunk size is emitted as one oversized chunk rather than being
// split further. Empty input yields no chunks.
//
// baseMeta is copied into every chunk with chunk_id and chunk_index added.
func (c *Chunker) Split(docID, text string, baseMeta map[string]string) []domain.Chunk {
	texts := c.split(text)
	if len(texts) == 0 {
		return nil
	}

	chunks := make([]domain.Chunk, 0, len(texts))
	for i, t := range texts {
		meta := make(map[string]string, len(baseMeta)+2)
		for k, v := range baseMeta {
			meta[k] = v
		}
		meta[domain.MetaChunkID] = domain.ChunkID(docID, i)
		meta[domain.MetaChunkIndex] = strconv.Itoa(i)

		chunks = append(chunks, domain.Chunk{
			ID:         domain.ChunkID(docID, i),
			DocumentID: docID,
			Index:      i,
			Text:       t,
			Metadata:   meta,
		})
	}
	return chunks
}

// split produces the raw chunk texts.
func (c *Chunker) split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var out []string
	current := ""

	for _, para := range paragraphSep.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if current != "" && len(current)+len(para) > c.chunkSize {
			out = append(out, current)
			current = c.overlapTail(current)
		}

		if current == "" {
			current = para
		} else {
			current += "\n\n" + para
		}
	}

	if current != "" {
		out = append(out, current)
	}
	return out
}

// overlapTail returns the trailing overlap words of a closed chunk, used
// to seed the next buffer so context survives the boundary.
func (c *Chunker) overlapTail(closed string) string {
	if c.overlap == 0 {
		return ""
	}
	words := strings.Fields(closed)
	if len(words) > c.overlap {
		words = words[len(words)-c.overlap:]
	}
	return strings.Join(words, " ")
}
