// Package notion provides a source connector for Notion pages shared with
// the integration.
package notion

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jomei/notionapi"
	"golang.org/x/time/rate"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/domain"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/ports/driven"
)

// Notion allows an average of 3 requests per second per integration.
const (
	requestsPerSecond = 3.0
	burstSize         = 3
)

// maxBlockDepth bounds recursion into nested blocks (toggles, columns).
const maxBlockDepth = 3

// pageSize is the block pagination size.
const pageSize = 100

// Ensure Connector implements the interface.
var _ driven.SourceConnector = (*Connector)(nil)

// Config holds Notion connector configuration.
type Config struct {
	// PageIDs limits syncing to specific pages. When empty, every page
	// shared with the integration is listed via search.
	PageIDs []string
}

// ParseConfig extracts configuration from a Source.
func ParseConfig(source domain.Source) *Config {
	cfg := &Config{}
	if val := source.Config["page_ids"]; val != "" {
		for _, id := range strings.Split(val, ",") {
			if trimmed := strings.TrimSpace(id); trimmed != "" {
				cfg.PageIDs = append(cfg.PageIDs, trimmed)
			}
		}
	}
	return cfg
}

// Connector lists and fetches Notion pages.
type Connector struct {
	client   *notionapi.Client
	sourceID string
	cfg      *Config
	limiter  *rate.Limiter

	mu     sync.Mutex
	closed bool
}

// NewConnector creates a Notion connector for a configured source.
func NewConnector(sourceID string, client *notionapi.Client, cfg *Config) *Connector {
	if cfg == nil {
		cfg = &Config{}
	}
	return &Connector{
		client:   client,
		sourceID: sourceID,
		cfg:      cfg,
		limiter:  rate.NewLimiter(rate.Limit(requestsPerSecond), burstSize),
	}
}

// NewClient creates a Notion API client from an integration token.
func NewClient(token string) (*notionapi.Client, error) {
	if token == "" {
		return nil, fmt.Errorf("notion: integration token is required")
	}
	return notionapi.NewClient(notionapi.Token(token)), nil
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return "notion"
}

// SourceID returns the configured source ID.
func (c *Connector) SourceID() string {
	return c.sourceID
}

// Validate checks the Notion API is reachable with the configured token.
func (c *Connector) Validate(ctx context.Context) error {
	if c.isClosed() {
		return domain.ErrConnectorClosed
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	_, err := c.client.Search.Do(ctx, &notionapi.SearchRequest{
		PageSize: 1,
	})
	if err != nil {
		return fmt.Errorf("notion: validating connection: %w", err)
	}
	return nil
}

// ListItems enumerates the configured pages, or every shared page when no
// page list is configured.
func (c *Connector) ListItems(ctx context.Context) ([]domain.SourceItem, error) {
	if c.isClosed() {
		return nil, domain.ErrConnectorClosed
	}

	if len(c.cfg.PageIDs) > 0 {
		return c.listConfigured(ctx)
	}
	return c.listShared(ctx)
}

// listConfigured fetches each configured page's metadata.
func (c *Connector) listConfigured(ctx context.Context) ([]domain.SourceItem, error) {
	items := make([]domain.SourceItem, 0, len(c.cfg.PageIDs))
	for _, pageID := range c.cfg.PageIDs {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		page, err := c.client.Page.Get(ctx, notionapi.PageID(pageID))
		if err != nil {
			return nil, fmt.Errorf("%w: fetching notion page %s: %v", domain.ErrFetch, pageID, err)
		}
		items = append(items, pageToItem(page))
	}
	return items, nil
}

// listShared pages through the search endpoint, which returns everything
// the integration can see.
func (c *Connector) listShared(ctx context.Context) ([]domain.SourceItem, error) {
	var items []domain.SourceItem
	var cursor notionapi.Cursor

	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := c.client.Search.Do(ctx, &notionapi.SearchRequest{
			StartCursor: cursor,
			PageSize:    pageSize,
			Filter: notionapi.SearchFilter{
				Value:    "page",
				Property: "object",
			},
		})
		if err != nil {
			return nil, fmt.Errorf("%w: searching notion pages: %v", domain.ErrFetch, err)
		}

		for _, obj := range resp.Results {
			page, ok := obj.(*notionapi.Page)
			if !ok {
				continue
			}
			items = append(items, pageToItem(page))
		}

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return items, nil
}

// FetchContent renders a page's block tree to markdown-flavoured text.
func (c *Connector) FetchContent(ctx context.Context, itemID string) (*domain.RawContent, error) {
	if c.isClosed() {
		return nil, domain.ErrConnectorClosed
	}

	var sb strings.Builder
	if err := c.renderBlocks(ctx, notionapi.BlockID(itemID), &sb, 0); err != nil {
		return nil, err
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return nil, fmt.Errorf("%w: notion page %s", domain.ErrNoContent, itemID)
	}

	return &domain.RawContent{
		Kind: "text/markdown",
		Data: []byte(text),
	}, nil
}

// renderBlocks walks a block's children and appends their text.
func (c *Connector) renderBlocks(ctx context.Context, blockID notionapi.BlockID, sb *strings.Builder, depth int) error {
	if depth >= maxBlockDepth {
		return nil
	}

	var cursor notionapi.Cursor
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		resp, err := c.client.Block.GetChildren(ctx, blockID, &notionapi.Pagination{
			StartCursor: cursor,
			PageSize:    pageSize,
		})
		if err != nil {
			return fmt.Errorf("%w: fetching notion blocks: %v", domain.ErrFetch, err)
		}

		for _, block := range resp.Results {
			if text := renderBlock(block); text != "" {
				sb.WriteString(text)
				sb.WriteString("\n\n")
			}
			if block.GetHasChildren() {
				if err := c.renderBlocks(ctx, notionapi.BlockID(block.GetID()), sb, depth+1); err != nil {
					return err
				}
			}
		}

		if !resp.HasMore {
			break
		}
		cursor = notionapi.Cursor(resp.NextCursor)
	}

	return nil
}

// Changes returns nil: the Notion API offers no push channel here;
// scheduled listing is the only trigger.
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

// pageToItem converts a Notion page to a source item.
func pageToItem(page *notionapi.Page) domain.SourceItem {
	return domain.SourceItem{
		ID:         string(page.ID),
		SourceType: "notion",
		Kind:       "text/markdown",
		Title:      pageTitle(page),
		ModifiedAt: page.LastEditedTime,
		URL:        page.URL,
	}
}

// pageTitle extracts the title property, wherever it lives.
func pageTitle(page *notionapi.Page) string {
	for _, prop := range page.Properties {
		if title, ok := prop.(*notionapi.TitleProperty); ok {
			return richText(title.Title)
		}
	}
	return "Untitled"
}

// renderBlock converts a single block to text. Unknown block types yield
// an empty string and are skipped.
func renderBlock(block notionapi.Block) string {
	switch b := block.(type) {
	case *notionapi.ParagraphBlock:
		return richText(b.Paragraph.RichText)
	case *notionapi.Heading1Block:
		return "# " + richText(b.Heading1.RichText)
	case *notionapi.Heading2Block:
		return "## " + richText(b.Heading2.RichText)
	case *notionapi.Heading3Block:
		return "### " + richText(b.Heading3.RichText)
	case *notionapi.BulletedListItemBlock:
		return "- " + richText(b.BulletedListItem.RichText)
	case *notionapi.NumberedListItemBlock:
		return "- " + richText(b.NumberedListItem.RichText)
	case *notionapi.ToDoBlock:
		return "- " + richText(b.ToDo.RichText)
	case *notionapi.QuoteBlock:
		return "> " + richText(b.Quote.RichText)
	case *notionapi.CalloutBlock:
		return richText(b.Callout.RichText)
	case *notionapi.ToggleBlock:
		return richText(b.Toggle.RichText)
	case *notionapi.CodeBlock:
		return richText(b.Code.RichText)
	default:
		return ""
	}
}

// richText joins the plain-text parts of a rich text array.
func richText(parts []notionapi.RichText) string {
	var sb strings.Builder
	for _, part := range parts {
		sb.WriteString(part.PlainText)
	}
	return strings.TrimSpace(sb.String())
}
