package file

import (
	"os"
	"path/filepath"
	"strings"
)

// promptFileName is the user-editable system prompt, next to config.toml.
const promptFileName = "prompt.md"

// SystemPrompt loads a custom system prompt from the config directory.
// Returns empty when no override exists, letting the orchestrator fall
// back to its built-in prompt.
func (s *ConfigStore) SystemPrompt() string {
	data, err := os.ReadFile(filepath.Join(filepath.Dir(s.filePath), promptFileName))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
