package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/domain"
)

func TestSearchCmd_Use(t *testing.T) {
	assert.Equal(t, "search [query]", searchCmd.Use)
}

func TestSearchCmd_Short(t *testing.T) {
	assert.Equal(t, "Search the knowledge index", searchCmd.Short)
}

func TestSearchCmd_RequiresExactlyOneArg(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"search"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestSearchCmd_HasLimitFlag(t *testing.T) {
	flag := searchCmd.Flags().Lookup("limit")
	require.NotNil(t, flag, "limit flag should exist")
	assert.Equal(t, "n", flag.Shorthand)
	assert.Equal(t, "5", flag.DefValue)
}

func TestSearchCmd_ExecutesWithQuery(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	mock := &mockVectorStore{results: []domain.SearchResult{
		{
			ChunkID: "web:doc-1_0",
			Text:    "Deployment happens every Tuesday.",
			Score:   0.91,
			Metadata: map[string]string{
				domain.MetaTitle: "Release process",
				domain.MetaURL:   "https://example.com/release",
			},
		},
	}}
	vectorStore = mock

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"search", "when do we deploy"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, []string{"when do we deploy"}, mock.queries)
	out := buf.String()
	assert.Contains(t, out, "[1] Release process (0.91)")
	assert.Contains(t, out, "https://example.com/release")
	assert.Contains(t, out, "Deployment happens every Tuesday.")
}

func TestSearchCmd_NoResults(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"search", "nothing indexed"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No results found.")
}

func TestSearchCmd_JSONOutput(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	vectorStore = &mockVectorStore{results: []domain.SearchResult{
		{ChunkID: "web:doc-1_0", Text: "hello", Score: 0.5},
	}}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"search", "hello", "--json"})
	defer func() {
		rootCmd.SetArgs(nil)
		searchJSON = false
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"ChunkID": "web:doc-1_0"`)
}

func TestSnippet_TruncatesLongText(t *testing.T) {
	short := snippet("brief", 160)
	assert.Equal(t, "brief", short)

	long := snippet(string(bytes.Repeat([]byte("a"), 200)), 160)
	assert.Len(t, long, 163)
	assert.Contains(t, long, "...")
}
