package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/adapters/driven/storage/memory"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/domain"
)

func TestSearchTool(t *testing.T) {
	ctx := context.Background()
	vectors := memory.NewVectorStore()
	require.NoError(t, vectors.Add(ctx, []domain.Chunk{
		{
			ID: "d1_0", DocumentID: "d1", Index: 0,
			Text: "Kubernetes clusters run the staging environment.",
			Metadata: map[string]string{
				domain.MetaDocID: "d1", domain.MetaTitle: "Infra notes",
				domain.MetaSourceType: "notion", domain.MetaURL: "https://notion.so/infra",
			},
		},
		{
			ID: "d2_0", DocumentID: "d2", Index: 0,
			Text: "The cafeteria menu changes weekly.",
			Metadata: map[string]string{
				domain.MetaDocID: "d2", domain.MetaTitle: "Office",
				domain.MetaSourceType: "gdrive",
			},
		},
	}))

	tool := NewSearchTool(vectors, 5)

	t.Run("finds relevant chunks", func(t *testing.T) {
		out, err := tool.Execute(ctx, map[string]any{"query": "staging kubernetes clusters"})
		require.NoError(t, err)
		assert.Contains(t, out, "Infra notes")
		assert.Contains(t, out, "doc_id: d1")
		assert.Contains(t, out, "https://notion.so/infra")
	})

	t.Run("source type filter", func(t *testing.T) {
		out, err := tool.Execute(ctx, map[string]any{
			"query":       "staging kubernetes clusters",
			"source_type": "gdrive",
		})
		require.NoError(t, err)
		assert.NotContains(t, out, "Infra notes")
	})

	t.Run("missing query", func(t *testing.T) {
		_, err := tool.Execute(ctx, map[string]any{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("no results", func(t *testing.T) {
		empty := NewSearchTool(memory.NewVectorStore(), 5)
		out, err := empty.Execute(ctx, map[string]any{"query": "anything"})
		require.NoError(t, err)
		assert.Equal(t, "No results found.", out)
	})

	t.Run("limit from arguments", func(t *testing.T) {
		out, err := tool.Execute(ctx, map[string]any{
			"query": "weekly menu staging clusters",
			"limit": float64(1),
		})
		require.NoError(t, err)
		assert.NotContains(t, out, "\n2. ")
	})
}

func TestFetchDocumentTool(t *testing.T) {
	ctx := context.Background()
	vectors := memory.NewVectorStore()

	docID := "doc-abc"
	var chunks []domain.Chunk
	for i := 0; i < 3; i++ {
		chunks = append(chunks, domain.Chunk{
			ID:         domain.ChunkID(docID, i),
			DocumentID: docID,
			Index:      i,
			Text:       fmt.Sprintf("Part %d of the handbook.", i),
			Metadata: map[string]string{
				domain.MetaDocID: docID,
				domain.MetaTitle: "Handbook",
				domain.MetaURL:   "https://example.com/handbook",
			},
		})
	}
	require.NoError(t, vectors.Add(ctx, chunks))

	tool := NewFetchDocumentTool(vectors)

	t.Run("reassembles in chunk order", func(t *testing.T) {
		out, err := tool.Execute(ctx, map[string]any{"doc_id": docID})
		require.NoError(t, err)
		assert.Contains(t, out, "# Handbook")
		assert.Contains(t, out, "https://example.com/handbook")

		i0 := strings.Index(out, "Part 0 of the handbook.")
		i2 := strings.Index(out, "Part 2 of the handbook.")
		require.GreaterOrEqual(t, i0, 0)
		require.GreaterOrEqual(t, i2, 0)
		assert.Less(t, i0, i2)
	})

	t.Run("unknown document", func(t *testing.T) {
		_, err := tool.Execute(ctx, map[string]any{"doc_id": "missing"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("missing doc_id", func(t *testing.T) {
		_, err := tool.Execute(ctx, map[string]any{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestFetchDocumentTool_LongDocument(t *testing.T) {
	// More chunks than one fetch batch.
	ctx := context.Background()
	vectors := memory.NewVectorStore()

	docID := "doc-long"
	var chunks []domain.Chunk
	for i := 0; i < fetchBatchSize+7; i++ {
		chunks = append(chunks, domain.Chunk{
			ID:         domain.ChunkID(docID, i),
			DocumentID: docID,
			Index:      i,
			Text:       fmt.Sprintf("Chunk %d.", i),
			Metadata:   map[string]string{domain.MetaDocID: docID},
		})
	}
	require.NoError(t, vectors.Add(ctx, chunks))

	out, err := NewFetchDocumentTool(vectors).Execute(ctx, map[string]any{"doc_id": docID})
	require.NoError(t, err)
	assert.Contains(t, out, fmt.Sprintf("Chunk %d.", fetchBatchSize+6))
}

func TestSlackToolDefaults(t *testing.T) {
	ctx := context.Background()
	chat := &recordingChat{}

	t.Run("post uses default channel", func(t *testing.T) {
		tool := NewPostMessageTool(chat, "C42")
		out, err := tool.Execute(ctx, map[string]any{"text": "hello"})
		require.NoError(t, err)
		assert.Equal(t, "Message posted.", out)
		assert.Equal(t, []string{"C42: hello"}, chat.posts)
	})

	t.Run("explicit channel wins", func(t *testing.T) {
		tool := NewPostMessageTool(chat, "C42")
		_, err := tool.Execute(ctx, map[string]any{"text": "hi", "channel": "C99"})
		require.NoError(t, err)
		assert.Equal(t, "C99: hi", chat.posts[len(chat.posts)-1])
	})

	t.Run("reply uses default thread", func(t *testing.T) {
		tool := NewReplyToThreadTool(chat, "C42", "123.456")
		_, err := tool.Execute(ctx, map[string]any{"text": "threaded"})
		require.NoError(t, err)
		assert.Equal(t, "C42/123.456: threaded", chat.replies[len(chat.replies)-1])
	})

	t.Run("missing text rejected", func(t *testing.T) {
		tool := NewPostMessageTool(chat, "C42")
		_, err := tool.Execute(ctx, map[string]any{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("no channel anywhere rejected", func(t *testing.T) {
		tool := NewPostMessageTool(chat, "")
		_, err := tool.Execute(ctx, map[string]any{"text": "hi"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("reaction requires emoji and timestamp", func(t *testing.T) {
		tool := NewAddReactionTool(chat, "C42")
		_, err := tool.Execute(ctx, map[string]any{"timestamp": "1.2"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		out, err := tool.Execute(ctx, map[string]any{"timestamp": "1.2", "reaction": "eyes"})
		require.NoError(t, err)
		assert.Equal(t, "Reaction added.", out)
	})
}

func TestToolPostingClassification(t *testing.T) {
	chat := &recordingChat{}
	vectors := memory.NewVectorStore()

	assert.True(t, NewPostMessageTool(chat, "").Posting())
	assert.True(t, NewReplyToThreadTool(chat, "", "").Posting())
	assert.False(t, NewAddReactionTool(chat, "").Posting())
	assert.False(t, NewThreadRepliesTool(chat, "").Posting())
	assert.False(t, NewChannelHistoryTool(chat, "").Posting())
	assert.False(t, NewSearchTool(vectors, 0).Posting())
	assert.False(t, NewFetchDocumentTool(vectors).Posting())
}
