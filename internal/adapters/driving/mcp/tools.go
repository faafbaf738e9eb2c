package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/domain"
)

// fetchBatchSize is how many sequential chunk IDs fetch_document
// requests per round trip.
const fetchBatchSize = 32

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query      string `json:"query" jsonschema:"the search query"`
	SourceType string `json:"source_type,omitempty" jsonschema:"restrict results to one source type (gdrive, notion, web, uploads)"`
	Limit      int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 5)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	DocumentID string  `json:"document_id"`
	ChunkID    string  `json:"chunk_id"`
	Title      string  `json:"title"`
	URL        string  `json:"url,omitempty"`
	SourceType string  `json:"source_type"`
	Score      float64 `json:"score"`
	Text       string  `json:"text"`
}

// FetchDocumentInput is the input schema for the fetch_document tool.
type FetchDocumentInput struct {
	DocID string `json:"doc_id" jsonschema:"the document ID as returned by search"`
}

// FetchDocumentOutput is the output schema for the fetch_document tool.
type FetchDocumentOutput struct {
	DocID  string `json:"doc_id"`
	Title  string `json:"title"`
	URL    string `json:"url,omitempty"`
	Text   string `json:"text"`
	Chunks int    `json:"chunks"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search the ingested knowledge base for content relevant to a query",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "fetch_document",
		Description: "Fetch the full text of an ingested document by its ID",
	}, s.handleFetchDocument)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 5
	}

	opts := domain.SearchOptions{Limit: limit}
	if input.SourceType != "" {
		opts.Filter = domain.SearchFilter{domain.MetaSourceType: input.SourceType}
	}

	results, err := s.vectors.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}
	for i := range results {
		meta := results[i].Metadata
		output.Results[i] = SearchResultOutput{
			DocumentID: meta[domain.MetaDocID],
			ChunkID:    results[i].ChunkID,
			Title:      meta[domain.MetaTitle],
			URL:        meta[domain.MetaURL],
			SourceType: meta[domain.MetaSourceType],
			Score:      results[i].Score,
			Text:       results[i].Text,
		}
	}
	return nil, output, nil
}

// handleFetchDocument reassembles one document from its stored chunks.
func (s *Server) handleFetchDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FetchDocumentInput,
) (*mcp.CallToolResult, FetchDocumentOutput, error) {
	if input.DocID == "" {
		return nil, FetchDocumentOutput{}, fmt.Errorf("%w: doc_id is required", domain.ErrInvalidInput)
	}

	var chunks []domain.Chunk
	for start := 0; ; start += fetchBatchSize {
		ids := make([]string, fetchBatchSize)
		for i := range ids {
			ids[i] = domain.ChunkID(input.DocID, start+i)
		}
		batch, err := s.vectors.Get(ctx, ids)
		if err != nil {
			return nil, FetchDocumentOutput{}, err
		}
		chunks = append(chunks, batch...)
		if len(batch) < fetchBatchSize {
			break
		}
	}
	if len(chunks) == 0 {
		return nil, FetchDocumentOutput{}, fmt.Errorf("%w: document %s", domain.ErrNotFound, input.DocID)
	}

	sort.Slice(chunks, func(a, b int) bool { return chunks[a].Index < chunks[b].Index })

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	output := FetchDocumentOutput{
		DocID:  input.DocID,
		Title:  chunks[0].Metadata[domain.MetaTitle],
		URL:    chunks[0].Metadata[domain.MetaURL],
		Text:   strings.Join(texts, "\n\n"),
		Chunks: len(chunks),
	}
	return nil, output, nil
}
