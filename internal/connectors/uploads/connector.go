// Package uploads provides a source connector for a local drop directory.
// Files placed in the directory are ingested; a filesystem watcher
// surfaces changes between scheduled passes.
package uploads

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/domain"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/ports/driven"
)

// MaxFileSize is the largest upload the connector will read (10MB).
const MaxFileSize = 10 * 1024 * 1024

// Ensure Connector implements the interface.
var _ driven.SourceConnector = (*Connector)(nil)

// Config holds uploads connector configuration.
type Config struct {
	// Dir is the watched directory.
	Dir string
}

// ParseConfig extracts configuration from a Source.
func ParseConfig(source domain.Source) *Config {
	return &Config{Dir: source.Config["dir"]}
}

// Connector lists and fetches files under a local directory. Item IDs
// are slash-separated paths relative to the directory root.
type Connector struct {
	sourceID string
	dir      string

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	closed  bool
}

// NewConnector creates an uploads connector for a configured source.
func NewConnector(sourceID string, cfg *Config) (*Connector, error) {
	if cfg == nil || cfg.Dir == "" {
		return nil, fmt.Errorf("%w: uploads directory is required", domain.ErrInvalidInput)
	}
	return &Connector{
		sourceID: sourceID,
		dir:      cfg.Dir,
	}, nil
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return "uploads"
}

// SourceID returns the configured source ID.
func (c *Connector) SourceID() string {
	return c.sourceID
}

// Validate checks the directory exists.
func (c *Connector) Validate(ctx context.Context) error {
	if c.isClosed() {
		return domain.ErrConnectorClosed
	}

	info, err := os.Stat(c.dir)
	if err != nil {
		return fmt.Errorf("%w: uploads directory %s: %v", domain.ErrInvalidInput, c.dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, c.dir)
	}
	return nil
}

// ListItems walks the directory tree. Hidden files and directories are
// skipped.
func (c *Connector) ListItems(ctx context.Context) ([]domain.SourceItem, error) {
	if c.isClosed() {
		return nil, domain.ErrConnectorClosed
	}

	var items []domain.SourceItem
	err := filepath.WalkDir(c.dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		name := entry.Name()
		if entry.IsDir() {
			if isHidden(name) && path != c.dir {
				return filepath.SkipDir
			}
			return nil
		}
		if isHidden(name) {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			return nil // File vanished mid-walk.
		}
		if info.Size() > MaxFileSize {
			return nil
		}

		rel, err := filepath.Rel(c.dir, path)
		if err != nil {
			return nil
		}

		items = append(items, domain.SourceItem{
			ID:         filepath.ToSlash(rel),
			SourceType: "uploads",
			Kind:       kindForFile(name),
			Title:      name,
			ModifiedAt: info.ModTime().UTC(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: walking uploads directory: %v", domain.ErrFetch, err)
	}

	return items, nil
}

// FetchContent reads an uploaded file.
func (c *Connector) FetchContent(ctx context.Context, itemID string) (*domain.RawContent, error) {
	if c.isClosed() {
		return nil, domain.ErrConnectorClosed
	}

	path, err := c.resolve(itemID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: upload %s", domain.ErrNotFound, itemID)
		}
		return nil, fmt.Errorf("%w: reading upload %s: %v", domain.ErrFetch, itemID, err)
	}

	return &domain.RawContent{
		Kind: kindForFile(filepath.Base(path)),
		Data: data,
	}, nil
}

// Changes watches the directory and emits the item ID of every created,
// written, removed or renamed file until the context ends.
func (c *Connector) Changes(ctx context.Context) (<-chan string, error) {
	if c.isClosed() {
		return nil, domain.ErrConnectorClosed
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	// fsnotify watches are not recursive; every directory in the tree
	// needs its own watch, and directories created later are added as
	// their Create events arrive.
	if err := addDirTree(watcher, c.dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", c.dir, err)
	}

	c.mu.Lock()
	c.watcher = watcher
	c.mu.Unlock()

	changes := make(chan string, 16)
	go func() {
		defer close(changes)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&fsnotify.Create != 0 {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						if !isHidden(filepath.Base(event.Name)) {
							_ = watcher.Add(event.Name)
						}
						continue
					}
				}
				itemID, wanted := c.changeFor(event)
				if !wanted {
					continue
				}
				select {
				case changes <- itemID:
				case <-ctx.Done():
					return
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return changes, nil
}

// changeFor maps a filesystem event to an item ID, or reports that the
// event is uninteresting (chmod, directories, hidden files).
func (c *Connector) changeFor(event fsnotify.Event) (string, bool) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return "", false
	}

	name := filepath.Base(event.Name)
	if isHidden(name) {
		return "", false
	}

	// Removed paths cannot be stat'ed; anything still present must be a
	// regular file.
	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		return "", false
	}

	rel, err := filepath.Rel(c.dir, event.Name)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// Close releases resources and stops any active watcher.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.watcher != nil {
		err := c.watcher.Close()
		c.watcher = nil
		return err
	}
	return nil
}

func (c *Connector) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// addDirTree registers the directory and every non-hidden subdirectory
// with the watcher.
func addDirTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if isHidden(entry.Name()) && path != root {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

// resolve maps an item ID back to a path, refusing escapes from the root.
func (c *Connector) resolve(itemID string) (string, error) {
	path := filepath.Join(c.dir, filepath.FromSlash(itemID))
	rel, err := filepath.Rel(c.dir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%w: invalid upload path %q", domain.ErrInvalidInput, itemID)
	}
	return path, nil
}

// isHidden reports whether a file or directory name is dot-prefixed.
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// kindForFile derives a content kind from the file extension.
func kindForFile(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".md", ".markdown":
		return "text/markdown"
	case ".txt":
		return "text/plain"
	}
	if kind := mime.TypeByExtension(ext); kind != "" {
		if mediaType, _, err := mime.ParseMediaType(kind); err == nil {
			return mediaType
		}
	}
	return "application/octet-stream"
}
