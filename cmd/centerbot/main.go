// Command centerbot is the Slack knowledge bot: it ingests documents
// from Google Drive, Notion, web pages and local uploads into a
// searchable index, and answers questions about them in Slack, from the
// terminal, or over MCP.
package main

import (
	"fmt"
	"os"

	chromemgo "github.com/philippgille/chromem-go"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/adapters/driven/ai"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/adapters/driven/chat/slack"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/adapters/driven/config/file"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/adapters/driven/storage/sqlite"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/adapters/driven/vector/chromem"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/adapters/driving/cli"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/adapters/driving/slackevents"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/chunker"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/connectors"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/connectors/gdrive"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/ports/driven"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/services"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/extractors"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	cfg := configStore.Config()
	logger.SetVerbose(cfg.Verbose)

	store, err := sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening metadata store: %w", err)
	}
	defer store.Close()

	vectors, err := chromem.NewStore(cfg.DataDir, embeddingFunc(cfg.Embedding))
	if err != nil {
		return fmt.Errorf("opening vector store: %w", err)
	}
	defer vectors.Close()

	// Slack and Anthropic are optional for local commands (sync, search,
	// source). Commands that need them report their absence themselves.
	var chat driven.ChatClient
	if cfg.Slack.BotToken != "" {
		client, err := slack.NewClient(slack.Config{BotToken: cfg.Slack.BotToken})
		if err != nil {
			return fmt.Errorf("creating Slack client: %w", err)
		}
		chat = client
	}

	modelCfg := configStore.ModelConfig()
	model, err := ai.NewModelClient(ai.Config{
		Provider: modelCfg.Provider,
		APIKey:   modelCfg.APIKey,
		BaseURL:  modelCfg.BaseURL,
		Model:    modelCfg.Name,
	})
	if err != nil {
		return fmt.Errorf("creating model client: %w", err)
	}
	if model != nil {
		defer model.Close()
	}

	factory := connectors.NewFactory(connectors.Credentials{
		GDrive: gdrive.AuthConfig{
			ClientID:     cfg.GDrive.ClientID,
			ClientSecret: cfg.GDrive.ClientSecret,
			RefreshToken: cfg.GDrive.RefreshToken,
		},
		NotionToken: cfg.Notion.Token,
	})

	ingestor := services.NewIngestor(
		configStore,
		store.SyncStateStore(),
		vectors,
		factory,
		extractors.NewDefaultRegistry(),
		chunker.New(),
	)

	var responder *services.Orchestrator
	if model != nil {
		opts := []services.OrchestratorOption{
			services.WithMaxRounds(cfg.Agent.MaxRounds),
			services.WithSearchLimit(cfg.Agent.SearchLimit),
		}
		if prompt := configStore.SystemPrompt(); prompt != "" {
			opts = append(opts, services.WithSystemPrompt(prompt))
		}
		responder = services.NewOrchestrator(model, vectors, chat, store.ConversationStore(), opts...)
	}

	scheduler := services.NewScheduler(
		configStore.SchedulerConfig(),
		store.SchedulerStore(),
		ingestor,
		configStore,
		factory,
	)

	svcs := cli.Services{
		Ingestor:  ingestor,
		Scheduler: scheduler,
		Vectors:   vectors,
		Sources:   configStore,
		Editor:    configStore,
		Creds:     configStore,
		ServeAddr: cfg.Server.Addr,
	}
	if responder != nil {
		svcs.Responder = responder
		if cfg.Slack.SigningSecret != "" {
			svcs.Events = slackevents.NewHandler(responder, chat, cfg.Slack.SigningSecret)
		}
	}
	cli.SetServices(svcs)

	return cli.Execute()
}

// embeddingFunc resolves the configured embeddings endpoint to a
// chromem embedding function. Defaults to a local Ollama instance.
func embeddingFunc(cfg file.EmbeddingConfig) chromemgo.EmbeddingFunc {
	switch cfg.Provider {
	case "openai":
		if cfg.BaseURL != "" {
			return chromemgo.NewEmbeddingFuncOpenAICompat(cfg.BaseURL, cfg.APIKey, cfg.Model, nil)
		}
		model := chromemgo.EmbeddingModelOpenAI3Small
		if cfg.Model != "" {
			model = chromemgo.EmbeddingModelOpenAI(cfg.Model)
		}
		return chromemgo.NewEmbeddingFuncOpenAI(cfg.APIKey, model)
	default:
		model := cfg.Model
		if model == "" {
			model = "nomic-embed-text"
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434/api"
		}
		return chromemgo.NewEmbeddingFuncOllama(model, baseURL)
	}
}
