// Package connectors provides implementations of the SourceConnector
// interface for the supported source types (gdrive, notion, web, uploads).
//
// A Factory builds the right connector for a configured source.
package connectors

import (
	"context"
	"fmt"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/connectors/gdrive"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/connectors/notion"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/connectors/uploads"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/connectors/web"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/domain"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/ports/driven"
)

// Ensure Factory implements the interface.
var _ driven.ConnectorFactory = (*Factory)(nil)

// Credentials holds the per-service secrets connectors need.
type Credentials struct {
	// GDrive is the OAuth configuration for the Drive API.
	GDrive gdrive.AuthConfig

	// NotionToken is the Notion integration token.
	NotionToken string
}

// Factory builds connectors from source configurations.
type Factory struct {
	creds Credentials
}

// NewFactory creates a connector factory.
func NewFactory(creds Credentials) *Factory {
	return &Factory{creds: creds}
}

// Create constructs a connector for a configured source.
func (f *Factory) Create(ctx context.Context, source domain.Source) (driven.SourceConnector, error) {
	switch source.Type {
	case "gdrive":
		svc, err := gdrive.NewService(ctx, f.creds.GDrive)
		if err != nil {
			return nil, err
		}
		return gdrive.NewConnector(source.ID, svc, gdrive.ParseConfig(source)), nil

	case "notion":
		client, err := notion.NewClient(f.creds.NotionToken)
		if err != nil {
			return nil, err
		}
		return notion.NewConnector(source.ID, client, notion.ParseConfig(source)), nil

	case "web":
		return web.NewConnector(source.ID, web.ParseConfig(source)), nil

	case "uploads":
		return uploads.NewConnector(source.ID, uploads.ParseConfig(source))

	default:
		return nil, fmt.Errorf("%w: unknown source type %q", domain.ErrInvalidInput, source.Type)
	}
}
