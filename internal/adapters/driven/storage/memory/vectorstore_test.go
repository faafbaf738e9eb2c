package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/domain"
)

func webChunk(id, docID, text string) domain.Chunk {
	return domain.Chunk{
		ID: id, DocumentID: docID, Text: text,
		Metadata: map[string]string{domain.MetaSourceType: "web", domain.MetaDocID: docID},
	}
}

func driveChunk(id, docID, text string) domain.Chunk {
	return domain.Chunk{
		ID: id, DocumentID: docID, Text: text,
		Metadata: map[string]string{domain.MetaSourceType: "gdrive", domain.MetaDocID: docID},
	}
}

func TestVectorStore(t *testing.T) {
	ctx := context.Background()

	t.Run("add then count and get", func(t *testing.T) {
		store := NewVectorStore()
		require.NoError(t, store.Add(ctx, []domain.Chunk{
			webChunk("w1_0", "w1", "alpha"),
			webChunk("w1_1", "w1", "beta"),
		}))

		n, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		got, err := store.Get(ctx, []string{"w1_0", "missing"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "alpha", got[0].Text)
	})

	t.Run("metadata filter isolation", func(t *testing.T) {
		store := NewVectorStore()
		require.NoError(t, store.Add(ctx, []domain.Chunk{
			webChunk("w1_0", "w1", "quarterly report details"),
			driveChunk("d1_0", "d1", "quarterly report details"),
		}))

		results, err := store.Search(ctx, "quarterly report", domain.SearchOptions{
			Limit:  10,
			Filter: domain.SearchFilter{domain.MetaSourceType: "gdrive"},
		})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "gdrive", results[0].Metadata[domain.MetaSourceType])
	})

	t.Run("empty result is not an error", func(t *testing.T) {
		store := NewVectorStore()
		results, err := store.Search(ctx, "anything", domain.SearchOptions{Limit: 5})
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("limit respected", func(t *testing.T) {
		store := NewVectorStore()
		require.NoError(t, store.Add(ctx, []domain.Chunk{
			webChunk("w1_0", "w1", "token one"),
			webChunk("w1_1", "w1", "token two"),
			webChunk("w1_2", "w1", "token three"),
		}))

		results, err := store.Search(ctx, "token", domain.SearchOptions{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("delete document removes all its chunks", func(t *testing.T) {
		store := NewVectorStore()
		require.NoError(t, store.Add(ctx, []domain.Chunk{
			webChunk("w1_0", "w1", "a"),
			webChunk("w1_1", "w1", "b"),
			webChunk("w2_0", "w2", "c"),
		}))

		require.NoError(t, store.DeleteDocument(ctx, "w1"))

		n, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		got, err := store.Get(ctx, []string{"w2_0"})
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("add overwrites by chunk ID", func(t *testing.T) {
		store := NewVectorStore()
		require.NoError(t, store.Add(ctx, []domain.Chunk{webChunk("w1_0", "w1", "old")}))
		require.NoError(t, store.Add(ctx, []domain.Chunk{webChunk("w1_0", "w1", "new")}))

		n, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		got, err := store.Get(ctx, []string{"w1_0"})
		require.NoError(t, err)
		assert.Equal(t, "new", got[0].Text)
	})
}
