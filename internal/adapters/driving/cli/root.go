// Package cli implements the command-line interface.
package cli

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/ports/driven"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/ports/driving"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "centerbot",
	Short: "Slack knowledge bot over your team's documents",
	Long: `centerbot ingests documents from Google Drive, Notion, web pages and
local uploads into a searchable knowledge index, and answers questions
about them in Slack.

Run 'centerbot serve' to start the bot, 'centerbot sync' to index
documents, or 'centerbot ask' to query the index from the terminal.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

// Injected services. Commands check for nil so the package stays
// testable without full wiring.
var (
	responderService driving.Responder
	syncService      driving.Ingestor
	schedulerService driving.SchedulerControl
	vectorStore      driven.VectorStore
	sourceProvider   driven.SourceProvider
	sourceEditor     SourceEditor
	credentialStore  CredentialStore
	eventsHandler    http.Handler
	serveAddr        string
)

// CredentialStore persists OAuth app credentials. Implemented by the
// config store.
type CredentialStore interface {
	GDriveCredentials() (clientID, clientSecret string)
	SetGDriveCredentials(clientID, clientSecret, refreshToken string) error
}

// SourceEditor mutates the persisted source configuration. Implemented
// by the config store.
type SourceEditor interface {
	AddSource(id, sourceType, name string, config map[string]string) error
	RemoveSource(id string) error
}

// Services bundles everything the commands need.
type Services struct {
	Responder driving.Responder
	Ingestor  driving.Ingestor
	Scheduler driving.SchedulerControl
	Vectors   driven.VectorStore
	Sources   driven.SourceProvider
	Editor    SourceEditor
	Creds     CredentialStore
	Events    http.Handler
	ServeAddr string
}

// SetServices injects the service implementations used by the commands.
func SetServices(s Services) {
	responderService = s.Responder
	syncService = s.Ingestor
	schedulerService = s.Scheduler
	vectorStore = s.Vectors
	sourceProvider = s.Sources
	sourceEditor = s.Editor
	credentialStore = s.Creds
	eventsHandler = s.Events
	if s.ServeAddr != "" {
		serveAddr = s.ServeAddr
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
