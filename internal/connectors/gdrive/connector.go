// Package gdrive provides a source connector for Google Drive, including
// Google Workspace documents exported to text.
package gdrive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/domain"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/ports/driven"
)

// Google Workspace MIME types that must be exported rather than downloaded.
const (
	MimeTypeGoogleDoc    = "application/vnd.google-apps.document"
	MimeTypeGoogleSheet  = "application/vnd.google-apps.spreadsheet"
	MimeTypeGoogleSlides = "application/vnd.google-apps.presentation"
	MimeTypeFolder       = "application/vnd.google-apps.folder"
)

// Export formats for Google Workspace files.
const (
	ExportMimeText = "text/plain"
	ExportMimeCSV  = "text/csv"
)

// MaxFetchSize is the maximum size for fetched content (5MB).
const MaxFetchSize = 5 * 1024 * 1024

// listFields are the file attributes requested when listing.
const listFields = "nextPageToken, files(id, name, mimeType, modifiedTime, createdTime, webViewLink, owners(displayName), size)"

// Ensure Connector implements the interface.
var _ driven.SourceConnector = (*Connector)(nil)

// Connector lists and fetches files from a Google Drive account.
type Connector struct {
	svc      *drive.Service
	sourceID string
	cfg      *Config
	limiter  *rateLimiter

	mu     sync.Mutex
	closed bool
}

// NewConnector creates a Drive connector for a configured source.
func NewConnector(sourceID string, svc *drive.Service, cfg *Config) *Connector {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Connector{
		svc:      svc,
		sourceID: sourceID,
		cfg:      cfg,
		limiter:  newRateLimiter(),
	}
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return "gdrive"
}

// SourceID returns the configured source ID.
func (c *Connector) SourceID() string {
	return c.sourceID
}

// Validate checks the Drive API is reachable with the configured credentials.
func (c *Connector) Validate(ctx context.Context) error {
	if c.isClosed() {
		return domain.ErrConnectorClosed
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	_, err := c.svc.Files.List().
		PageSize(1).
		Fields("files(id)").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("gdrive: validating connection: %w", err)
	}
	return nil
}

// ListItems enumerates non-folder files with their modification times.
func (c *Connector) ListItems(ctx context.Context) ([]domain.SourceItem, error) {
	if c.isClosed() {
		return nil, domain.ErrConnectorClosed
	}

	var items []domain.SourceItem
	pageToken := ""

	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		call := c.svc.Files.List().
			Q(c.listQuery()).
			PageSize(c.cfg.MaxResults).
			Fields(googleapi.Field(listFields)).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		result, err := call.Do()
		if err != nil {
			c.noteRateLimit(err)
			return nil, fmt.Errorf("%w: listing drive files: %v", domain.ErrFetch, err)
		}

		for _, file := range result.Files {
			if file.MimeType == MimeTypeFolder {
				continue
			}
			if !c.mimeTypeAllowed(file.MimeType) {
				continue
			}
			items = append(items, fileToItem(file))
		}

		pageToken = result.NextPageToken
		if pageToken == "" {
			break
		}
	}

	return items, nil
}

// FetchContent retrieves the file payload. Workspace files are exported
// to text (Docs, Slides) or CSV (Sheets); regular files are downloaded.
func (c *Connector) FetchContent(ctx context.Context, itemID string) (*domain.RawContent, error) {
	if c.isClosed() {
		return nil, domain.ErrConnectorClosed
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	file, err := c.svc.Files.Get(itemID).
		Fields("id, mimeType, size").
		Context(ctx).
		Do()
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: drive file %s", domain.ErrNotFound, itemID)
		}
		c.noteRateLimit(err)
		return nil, fmt.Errorf("%w: fetching drive file metadata: %v", domain.ErrFetch, err)
	}

	switch file.MimeType {
	case MimeTypeGoogleDoc, MimeTypeGoogleSlides:
		return c.export(ctx, itemID, ExportMimeText)
	case MimeTypeGoogleSheet:
		return c.export(ctx, itemID, ExportMimeCSV)
	case MimeTypeFolder:
		return nil, fmt.Errorf("%w: folders have no content", domain.ErrUnsupportedKind)
	}

	if file.Size > MaxFetchSize {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", domain.ErrUnsupportedKind, MaxFetchSize)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.svc.Files.Get(itemID).Context(ctx).Download()
	if err != nil {
		c.noteRateLimit(err)
		return nil, fmt.Errorf("%w: downloading drive file: %v", domain.ErrFetch, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxFetchSize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading drive file: %v", domain.ErrFetch, err)
	}

	return &domain.RawContent{Kind: file.MimeType, Data: data}, nil
}

// Changes returns nil: Drive has no cheap local watch; scheduled listing
// is the only trigger.
func (c *Connector) Changes(ctx context.Context) (<-chan string, error) {
	return nil, nil
}

// Close releases resources.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *Connector) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// export converts a Workspace file to the given format.
func (c *Connector) export(ctx context.Context, itemID, exportMime string) (*domain.RawContent, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.svc.Files.Export(itemID, exportMime).Context(ctx).Download()
	if err != nil {
		c.noteRateLimit(err)
		return nil, fmt.Errorf("%w: exporting drive file: %v", domain.ErrFetch, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxFetchSize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading export: %v", domain.ErrFetch, err)
	}

	return &domain.RawContent{Kind: exportMime, Data: data}, nil
}

// listQuery builds the Drive search query from the configuration.
func (c *Connector) listQuery() string {
	terms := []string{"trashed = false"}

	if len(c.cfg.FolderIDs) > 0 {
		parents := make([]string, 0, len(c.cfg.FolderIDs))
		for _, id := range c.cfg.FolderIDs {
			parents = append(parents, fmt.Sprintf("'%s' in parents", id))
		}
		terms = append(terms, "("+strings.Join(parents, " or ")+")")
	}

	return strings.Join(terms, " and ")
}

// mimeTypeAllowed applies the optional MIME type filter.
func (c *Connector) mimeTypeAllowed(mimeType string) bool {
	if len(c.cfg.MimeTypeFilter) == 0 {
		return true
	}
	for _, allowed := range c.cfg.MimeTypeFilter {
		if mimeType == allowed {
			return true
		}
	}
	return false
}

// noteRateLimit feeds 429 responses into the limiter's backoff window.
func (c *Connector) noteRateLimit(err error) {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == 429 {
		c.limiter.recordRateLimitError(0)
	}
}

// isNotFound reports whether the API error denotes a missing file.
func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == 404
}

// fileToItem converts a Drive file to a source item.
func fileToItem(file *drive.File) domain.SourceItem {
	item := domain.SourceItem{
		ID:         file.Id,
		SourceType: "gdrive",
		Kind:       file.MimeType,
		Title:      file.Name,
		URL:        file.WebViewLink,
	}
	if t, err := time.Parse(time.RFC3339, file.ModifiedTime); err == nil {
		item.ModifiedAt = t
	}
	if len(file.Owners) > 0 {
		item.Author = file.Owners[0].DisplayName
	}
	return item
}
