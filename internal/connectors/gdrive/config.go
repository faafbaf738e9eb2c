package gdrive

import (
	"strconv"
	"strings"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/domain"
)

// Config holds Google Drive connector configuration.
type Config struct {
	// FolderIDs limits syncing to specific folders (optional).
	FolderIDs []string

	// MimeTypeFilter limits syncing to specific MIME types (optional).
	MimeTypeFilter []string

	// MaxResults is the page size for API requests.
	MaxResults int64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxResults: 100,
	}
}

// ParseConfig extracts configuration from a Source.
func ParseConfig(source domain.Source) *Config {
	cfg := DefaultConfig()

	if val := source.Config["folder_ids"]; val != "" {
		cfg.FolderIDs = splitTrimmed(val)
	}
	if val := source.Config["mime_types"]; val != "" {
		cfg.MimeTypeFilter = splitTrimmed(val)
	}
	if val := source.Config["max_results"]; val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil && n > 0 {
			cfg.MaxResults = n
		}
	}

	return cfg
}

func splitTrimmed(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
