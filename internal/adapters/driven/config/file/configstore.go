package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/domain"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.SourceProvider = (*ConfigStore)(nil)

// Environment overrides for secrets, so tokens can stay out of the file.
const (
	envSlackBotToken      = "SLACK_BOT_TOKEN"
	envSlackSigningSecret = "SLACK_SIGNING_SECRET"
	envAnthropicAPIKey    = "ANTHROPIC_API_KEY"
	envNotionToken        = "NOTION_TOKEN"
	envOpenAIAPIKey       = "OPENAI_API_KEY"
)

// SlackConfig holds the Slack credentials.
type SlackConfig struct {
	BotToken      string `toml:"bot_token"`
	SigningSecret string `toml:"signing_secret"`
}

// AnthropicConfig holds the model API settings.
type AnthropicConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// ModelConfig selects the chat model provider. Provider is "anthropic",
// "openai" or "ollama"; empty falls back to the [anthropic] section.
type ModelConfig struct {
	Provider string `toml:"provider"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
	Name     string `toml:"name"`
}

// NotionConfig holds the Notion integration token.
type NotionConfig struct {
	Token string `toml:"token"`
}

// GDriveConfig holds the Drive OAuth credentials.
type GDriveConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RefreshToken string `toml:"refresh_token"`
}

// EmbeddingConfig selects the embeddings endpoint backing the vector
// store. Provider is "openai" or "ollama"; BaseURL overrides the
// provider default for OpenAI-compatible servers.
type EmbeddingConfig struct {
	Provider string `toml:"provider"`
	BaseURL  string `toml:"base_url"`
	APIKey   string `toml:"api_key"`
	Model    string `toml:"model"`
}

// SchedulerConfig holds the background sync settings. Interval is a Go
// duration string ("1h", "30m").
type SchedulerConfig struct {
	Enabled     bool   `toml:"enabled"`
	Interval    string `toml:"interval"`
	HistoryKeep int    `toml:"history_keep"`
}

// AgentConfig holds the tool-loop settings.
type AgentConfig struct {
	MaxRounds   int `toml:"max_rounds"`
	SearchLimit int `toml:"search_limit"`
}

// SourceConfig is one configured source entry.
type SourceConfig struct {
	ID     string            `toml:"id"`
	Type   string            `toml:"type"`
	Name   string            `toml:"name"`
	Config map[string]string `toml:"config"`
}

// ServerConfig holds the HTTP listener settings for serve mode.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Config is the full configuration document.
type Config struct {
	Verbose   bool            `toml:"verbose"`
	DataDir   string          `toml:"data_dir"`
	Server    ServerConfig    `toml:"server"`
	Slack     SlackConfig     `toml:"slack"`
	Anthropic AnthropicConfig `toml:"anthropic"`
	Model     ModelConfig     `toml:"model"`
	Notion    NotionConfig    `toml:"notion"`
	GDrive    GDriveConfig    `toml:"gdrive"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Agent     AgentConfig     `toml:"agent"`
	Sources   []SourceConfig  `toml:"sources"`
}

// defaultConfig returns the configuration used when no file exists yet.
func defaultConfig() Config {
	sched := domain.DefaultSchedulerConfig()
	return Config{
		Server: ServerConfig{Addr: ":8080"},
		Scheduler: SchedulerConfig{
			Enabled:     sched.Enabled,
			Interval:    sched.Interval.String(),
			HistoryKeep: sched.HistoryKeep,
		},
		Agent:     AgentConfig{MaxRounds: 6, SearchLimit: 5},
		Embedding: EmbeddingConfig{Provider: "ollama", Model: "nomic-embed-text"},
	}
}

// ConfigStore is a TOML-backed configuration store.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	config   Config
}

// NewConfigStore creates a config store. If configDir is empty it
// defaults to ~/.centerbot.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".centerbot")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	s := &ConfigStore{
		filePath: filepath.Join(configDir, "config.toml"),
		config:   defaultConfig(),
	}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Load reads the configuration file and applies environment overrides.
// A missing file leaves the defaults in place.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := defaultConfig()
	data, err := os.ReadFile(s.filePath)
	switch {
	case os.IsNotExist(err):
		// No config file yet, start with defaults.
	case err != nil:
		return err
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parse %s: %w", s.filePath, err)
		}
	}

	applyEnvOverrides(&cfg)
	s.config = cfg
	return nil
}

// Save persists the current configuration with restricted permissions,
// as the file may carry tokens.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := toml.Marshal(s.config)
	if err != nil {
		return err
	}
	return os.WriteFile(s.filePath, data, 0600)
}

// Config returns a copy of the current configuration.
func (s *ConfigStore) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg := s.config
	cfg.Sources = append([]SourceConfig(nil), s.config.Sources...)
	return cfg
}

// Update mutates the configuration under the store lock and persists it.
func (s *ConfigStore) Update(fn func(*Config)) error {
	s.mu.Lock()
	fn(&s.config)
	data, err := toml.Marshal(s.config)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return os.WriteFile(s.filePath, data, 0600)
}

// ModelConfig resolves the chat model settings. When the [model] section
// is absent or names the anthropic provider, the [anthropic] section
// supplies the key and model name.
func (s *ConfigStore) ModelConfig() ModelConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg := s.config.Model
	if cfg.Provider == "" || cfg.Provider == "anthropic" {
		if cfg.APIKey == "" {
			cfg.APIKey = s.config.Anthropic.APIKey
		}
		if cfg.Name == "" {
			cfg.Name = s.config.Anthropic.Model
		}
	}
	return cfg
}

// GDriveCredentials returns the configured Drive OAuth app credentials.
func (s *ConfigStore) GDriveCredentials() (clientID, clientSecret string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config.GDrive.ClientID, s.config.GDrive.ClientSecret
}

// SetGDriveCredentials stores the Drive OAuth app credentials and the
// refresh token obtained from the consent flow.
func (s *ConfigStore) SetGDriveCredentials(clientID, clientSecret, refreshToken string) error {
	return s.Update(func(cfg *Config) {
		cfg.GDrive.ClientID = clientID
		cfg.GDrive.ClientSecret = clientSecret
		cfg.GDrive.RefreshToken = refreshToken
	})
}

// SchedulerConfig resolves the scheduler settings to domain types.
func (s *ConfigStore) SchedulerConfig() domain.SchedulerConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg := domain.DefaultSchedulerConfig()
	cfg.Enabled = s.config.Scheduler.Enabled
	if s.config.Scheduler.HistoryKeep > 0 {
		cfg.HistoryKeep = s.config.Scheduler.HistoryKeep
	}
	if d, err := time.ParseDuration(s.config.Scheduler.Interval); err == nil && d > 0 {
		cfg.Interval = d
	}
	return cfg
}

// Sources returns all configured sources.
func (s *ConfigStore) Sources(_ context.Context) ([]domain.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Source, 0, len(s.config.Sources))
	for _, src := range s.config.Sources {
		out = append(out, sourceFromConfig(src))
	}
	return out, nil
}

// Source returns one configured source by ID.
func (s *ConfigStore) Source(_ context.Context, id string) (*domain.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, src := range s.config.Sources {
		if src.ID == id {
			out := sourceFromConfig(src)
			return &out, nil
		}
	}
	return nil, fmt.Errorf("%w: source %s", domain.ErrNotFound, id)
}

// AddSource appends a source entry and persists the file. The ID must
// be unique.
func (s *ConfigStore) AddSource(id, sourceType, name string, config map[string]string) error {
	var dupe bool
	err := s.Update(func(cfg *Config) {
		for _, src := range cfg.Sources {
			if src.ID == id {
				dupe = true
				return
			}
		}
		cfg.Sources = append(cfg.Sources, SourceConfig{
			ID:     id,
			Type:   sourceType,
			Name:   name,
			Config: config,
		})
	})
	if err != nil {
		return err
	}
	if dupe {
		return fmt.Errorf("%w: source %s already exists", domain.ErrInvalidInput, id)
	}
	return nil
}

// RemoveSource deletes a source entry and persists the file.
func (s *ConfigStore) RemoveSource(id string) error {
	var found bool
	err := s.Update(func(cfg *Config) {
		kept := cfg.Sources[:0]
		for _, src := range cfg.Sources {
			if src.ID == id {
				found = true
				continue
			}
			kept = append(kept, src)
		}
		cfg.Sources = kept
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: source %s", domain.ErrNotFound, id)
	}
	return nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

func sourceFromConfig(src SourceConfig) domain.Source {
	cfg := make(map[string]string, len(src.Config))
	for k, v := range src.Config {
		cfg[k] = v
	}
	return domain.Source{ID: src.ID, Type: src.Type, Name: src.Name, Config: cfg}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(envSlackBotToken); v != "" {
		cfg.Slack.BotToken = v
	}
	if v := os.Getenv(envSlackSigningSecret); v != "" {
		cfg.Slack.SigningSecret = v
	}
	if v := os.Getenv(envAnthropicAPIKey); v != "" {
		cfg.Anthropic.APIKey = v
	}
	if v := os.Getenv(envNotionToken); v != "" {
		cfg.Notion.Token = v
	}
	if v := os.Getenv(envOpenAIAPIKey); v != "" {
		cfg.Embedding.APIKey = v
	}
}
