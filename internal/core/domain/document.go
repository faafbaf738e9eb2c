package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// docNamespace is the UUID namespace for deterministic document IDs.
// Derived IDs must be stable across process restarts so that re-ingesting
// the same source item always maps to the same document.
var docNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("centerbot://documents"))

// Document is one normalised unit of ingested content, derived from a
// SourceItem plus extracted text.
type Document struct {
	// ID is derived deterministically from (source type, item ID).
	ID string

	// SourceType identifies the source kind ("gdrive", "notion", "web", "uploads").
	SourceType string

	// SourceID links to the configured Source that produced this document.
	SourceID string

	// Title is the human-readable title.
	Title string

	// URL is the web-openable location, if any.
	URL string

	// Author is the content author, if the source exposes one.
	Author string

	// Content is the full extracted text before chunking.
	Content string

	// Tags are free-form labels carried into chunk metadata.
	Tags []string

	// CreatedAt is when the content was created in the source system.
	CreatedAt time.Time
}

// DocumentID derives the stable document ID for a source item.
// The same (sourceType, itemID) pair always yields the same ID.
func DocumentID(sourceType, itemID string) string {
	return uuid.NewSHA1(docNamespace, []byte(sourceType+"/"+itemID)).String()
}

// Chunk is a bounded-size slice of a document's text, the unit stored
// and searched in the vector store. Chunks are never mutated; a later
// ingestion of the same document supersedes them wholesale.
type Chunk struct {
	// ID is reproducible from (document ID, index).
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Index is the ordinal position within the document.
	Index int

	// Text is the chunk content.
	Text string

	// Metadata is the flat key-value record persisted alongside the text.
	Metadata map[string]string
}

// ChunkID derives the stable chunk ID for a position within a document.
func ChunkID(docID string, index int) string {
	return fmt.Sprintf("%s_%d", docID, index)
}

// Metadata keys persisted with every chunk.
const (
	MetaDocID      = "doc_id"
	MetaChunkID    = "chunk_id"
	MetaChunkIndex = "chunk_index"
	MetaSourceType = "source_type"
	MetaTitle      = "title"
	MetaURL        = "url"
	MetaAuthor     = "author"
	MetaCreatedAt  = "created_at"
	MetaTags       = "tags"
)

// ChunkMetadata builds the base metadata record for a document's chunks.
// Per-chunk keys (chunk_id, chunk_index) are filled in by the chunker.
func (d *Document) ChunkMetadata() map[string]string {
	meta := map[string]string{
		MetaDocID:      d.ID,
		MetaSourceType: d.SourceType,
		MetaTitle:      d.Title,
	}
	if d.URL != "" {
		meta[MetaURL] = d.URL
	}
	if d.Author != "" {
		meta[MetaAuthor] = d.Author
	}
	if !d.CreatedAt.IsZero() {
		meta[MetaCreatedAt] = d.CreatedAt.UTC().Format(time.RFC3339)
	}
	if len(d.Tags) > 0 {
		meta[MetaTags] = strings.Join(d.Tags, ",")
	}
	return meta
}
