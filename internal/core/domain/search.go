package domain

// SearchFilter is an equality constraint over chunk metadata, used to
// scope a similarity search (e.g., {source_type: "web"}).
type SearchFilter map[string]string

// SearchOptions configures a similarity search.
type SearchOptions struct {
	// Limit is the maximum number of results.
	Limit int

	// Filter restricts results to chunks whose metadata matches every
	// key-value pair. Nil means no restriction.
	Filter SearchFilter
}

// SearchResult represents a single similarity hit.
type SearchResult struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Text is the chunk content.
	Text string

	// Metadata is the stored chunk metadata.
	Metadata map[string]string

	// Score is the similarity score (higher is closer).
	Score float64
}
