// Package web provides a source connector for a configured list of web
// pages fetched over plain HTTP.
package web

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/domain"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/ports/driven"
)

// Default configuration values.
const (
	DefaultTimeout  = 60 * time.Second
	DefaultMaxBytes = 5 * 1024 * 1024

	userAgent = "centerbot/1.0"
)

// Ensure Connector implements the interface.
var _ driven.SourceConnector = (*Connector)(nil)

// Config holds web connector configuration.
type Config struct {
	// URLs is the list of pages to ingest.
	URLs []string

	// Timeout is the per-request timeout (default: 60s).
	Timeout time.Duration
}

// ParseConfig extracts configuration from a Source.
func ParseConfig(source domain.Source) *Config {
	cfg := &Config{Timeout: DefaultTimeout}
	if val := source.Config["urls"]; val != "" {
		for _, u := range strings.Split(val, ",") {
			if trimmed := strings.TrimSpace(u); trimmed != "" {
				cfg.URLs = append(cfg.URLs, trimmed)
			}
		}
	}
	if val := source.Config["timeout"]; val != "" {
		if d, err := time.ParseDuration(val); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	return cfg
}

// pageState is the change-detection state for one URL.
type pageState struct {
	hash       string
	modifiedAt time.Time
}

// Connector fetches a fixed set of web pages. Pages without a
// Last-Modified header fall back to content-hash change detection: the
// page is fetched at listing time and its hash compared with the last
// observed one.
type Connector struct {
	client   *http.Client
	sourceID string
	cfg      *Config

	mu     sync.Mutex
	states map[string]pageState
	closed bool
}

// NewConnector creates a web connector for a configured source.
func NewConnector(sourceID string, cfg *Config) *Connector {
	if cfg == nil {
		cfg = &Config{Timeout: DefaultTimeout}
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Connector{
		client:   &http.Client{Timeout: cfg.Timeout},
		sourceID: sourceID,
		cfg:      cfg,
		states:   make(map[string]pageState),
	}
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return "web"
}

// SourceID returns the configured source ID.
func (c *Connector) SourceID() string {
	return c.sourceID
}

// Validate checks that at least one well-formed URL is configured.
func (c *Connector) Validate(ctx context.Context) error {
	if c.isClosed() {
		return domain.ErrConnectorClosed
	}
	if len(c.cfg.URLs) == 0 {
		return fmt.Errorf("%w: no URLs configured", domain.ErrInvalidInput)
	}
	for _, raw := range c.cfg.URLs {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("%w: invalid URL %q", domain.ErrInvalidInput, raw)
		}
	}
	return nil
}

// ListItems probes each configured URL for its modification time. A page
// that cannot be reached is skipped; fetch errors surface per item later.
func (c *Connector) ListItems(ctx context.Context) ([]domain.SourceItem, error) {
	if c.isClosed() {
		return nil, domain.ErrConnectorClosed
	}

	items := make([]domain.SourceItem, 0, len(c.cfg.URLs))
	for _, pageURL := range c.cfg.URLs {
		modifiedAt, kind, err := c.probe(ctx, pageURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}

		items = append(items, domain.SourceItem{
			ID:         pageURL,
			SourceType: "web",
			Kind:       kind,
			Title:      pageURL,
			ModifiedAt: modifiedAt,
			URL:        pageURL,
		})
	}
	return items, nil
}

// probe determines a page's modification time, preferring the
// Last-Modified header over the content-hash fallback.
func (c *Connector) probe(ctx context.Context, pageURL string) (time.Time, string, error) {
	resp, body, err := c.get(ctx, pageURL)
	if err != nil {
		return time.Time{}, "", err
	}

	kind := contentKind(resp)

	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			return t, kind, nil
		}
	}

	// No usable header: a changed content hash bumps the modification
	// time to now, an unchanged one keeps the previous time.
	sum := sha256.Sum256(body)
	hash := hex.EncodeToString(sum[:])

	c.mu.Lock()
	defer c.mu.Unlock()

	state, seen := c.states[pageURL]
	if !seen || state.hash != hash {
		state = pageState{hash: hash, modifiedAt: time.Now().UTC()}
		c.states[pageURL] = state
	}
	return state.modifiedAt, kind, nil
}

// FetchContent retrieves a page body.
func (c *Connector) FetchContent(ctx context.Context, itemID string) (*domain.RawContent, error) {
	if c.isClosed() {
		return nil, domain.ErrConnectorClosed
	}

	resp, body, err := c.get(ctx, itemID)
	if err != nil {
		return nil, err
	}

	return &domain.RawContent{
		Kind: contentKind(resp),
		Data: body,
	}, nil
}

// Changes returns nil: web pages offer no push channel; scheduled
// listing is the only trigger.
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

// get issues a GET and reads the body up to the size limit.
func (c *Connector) get(ctx context.Context, pageURL string) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: building request for %s: %v", domain.ErrFetch, pageURL, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: fetching %s: %v", domain.ErrFetch, pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrNotFound, pageURL)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("%w: %s returned status %d", domain.ErrFetch, pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, DefaultMaxBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: reading %s: %v", domain.ErrFetch, pageURL, err)
	}
	return resp, body, nil
}

// contentKind extracts the media type from the Content-Type header.
func contentKind(resp *http.Response) string {
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		return "text/html"
	}
	if mediaType, _, err := mime.ParseMediaType(ct); err == nil {
		return mediaType
	}
	return "text/html"
}
