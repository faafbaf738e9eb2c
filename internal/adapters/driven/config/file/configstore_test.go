package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/domain"
)

func TestNewConfigStore_Defaults(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	cfg := store.Config()
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 6, cfg.Agent.MaxRounds)
	assert.Equal(t, 5, cfg.Agent.SearchLimit)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Empty(t, cfg.Sources)
}

func TestConfigStore_LoadFile(t *testing.T) {
	dir := t.TempDir()
	content := `
verbose = true

[slack]
bot_token = "xoxb-test"
signing_secret = "sig"

[anthropic]
api_key = "sk-ant-test"
model = "claude-3-5-sonnet-latest"

[scheduler]
enabled = true
interval = "30m"
history_keep = 50

[[sources]]
id = "web-docs"
type = "web"
name = "Docs site"

[sources.config]
urls = "https://docs.example.com"

[[sources]]
id = "uploads-main"
type = "uploads"
name = "Uploads"

[sources.config]
dir = "/srv/uploads"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	cfg := store.Config()
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "xoxb-test", cfg.Slack.BotToken)
	assert.Equal(t, "sk-ant-test", cfg.Anthropic.APIKey)

	sched := store.SchedulerConfig()
	assert.Equal(t, 30*time.Minute, sched.Interval)
	assert.Equal(t, 50, sched.HistoryKeep)

	sources, err := store.Sources(context.Background())
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "web-docs", sources[0].ID)
	assert.Equal(t, "https://docs.example.com", sources[0].Config["urls"])

	source, err := store.Source(context.Background(), "uploads-main")
	require.NoError(t, err)
	assert.Equal(t, "uploads", source.Type)
	assert.Equal(t, "/srv/uploads", source.Config["dir"])
}

func TestConfigStore_UnknownSource(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Source(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConfigStore_EnvOverrides(t *testing.T) {
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-env")
	t.Setenv("ANTHROPIC_API_KEY", "sk-env")
	t.Setenv("NOTION_TOKEN", "ntn-env")

	dir := t.TempDir()
	content := `
[slack]
bot_token = "xoxb-file"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	cfg := store.Config()
	assert.Equal(t, "xoxb-env", cfg.Slack.BotToken, "environment beats the file")
	assert.Equal(t, "sk-env", cfg.Anthropic.APIKey)
	assert.Equal(t, "ntn-env", cfg.Notion.Token)
}

func TestConfigStore_SaveAndReload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Update(func(cfg *Config) {
		cfg.Verbose = true
		cfg.Sources = append(cfg.Sources, SourceConfig{
			ID: "notion-wiki", Type: "notion", Name: "Wiki",
			Config: map[string]string{"page_ids": "abc123"},
		})
	}))

	// Restrictive permissions: the file can hold tokens.
	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)
	cfg := reloaded.Config()
	assert.True(t, cfg.Verbose)
	require.Len(t, cfg.Sources, 1)
	assert.Equal(t, "notion-wiki", cfg.Sources[0].ID)
	assert.Equal(t, "abc123", cfg.Sources[0].Config["page_ids"])
}

func TestConfigStore_ModelConfig(t *testing.T) {
	t.Run("falls back to anthropic section", func(t *testing.T) {
		dir := t.TempDir()
		content := `
[anthropic]
api_key = "sk-ant-test"
model = "claude-3-5-sonnet-latest"
`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))
		store, err := NewConfigStore(dir)
		require.NoError(t, err)

		cfg := store.ModelConfig()
		assert.Equal(t, "sk-ant-test", cfg.APIKey)
		assert.Equal(t, "claude-3-5-sonnet-latest", cfg.Name)
	})

	t.Run("model section wins for other providers", func(t *testing.T) {
		dir := t.TempDir()
		content := `
[anthropic]
api_key = "sk-ant-test"

[model]
provider = "ollama"
base_url = "http://localhost:11434/v1"
name = "llama3.1"
`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))
		store, err := NewConfigStore(dir)
		require.NoError(t, err)

		cfg := store.ModelConfig()
		assert.Equal(t, "ollama", cfg.Provider)
		assert.Equal(t, "llama3.1", cfg.Name)
		assert.Empty(t, cfg.APIKey)
	})
}

func TestConfigStore_AddRemoveSource(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.AddSource("web-1", "web", "Docs", map[string]string{"urls": "https://example.com"}))

	err = store.AddSource("web-1", "web", "Dupe", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// Survives a reload.
	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)
	src, err := reloaded.Source(context.Background(), "web-1")
	require.NoError(t, err)
	assert.Equal(t, "Docs", src.Name)

	require.NoError(t, reloaded.RemoveSource("web-1"))
	_, err = reloaded.Source(context.Background(), "web-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = reloaded.RemoveSource("web-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConfigStore_GDriveCredentials(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	id, secret := store.GDriveCredentials()
	assert.Empty(t, id)
	assert.Empty(t, secret)

	require.NoError(t, store.SetGDriveCredentials("client-1", "secret-1", "refresh-1"))

	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)
	id, secret = reloaded.GDriveCredentials()
	assert.Equal(t, "client-1", id)
	assert.Equal(t, "secret-1", secret)
	assert.Equal(t, "refresh-1", reloaded.Config().GDrive.RefreshToken)
}

func TestConfigStore_SystemPrompt(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Empty(t, store.SystemPrompt())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "prompt.md"), []byte("You are a pirate.\n"), 0600))
	assert.Equal(t, "You are a pirate.", store.SystemPrompt())
}
