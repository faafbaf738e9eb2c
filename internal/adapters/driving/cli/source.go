package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/domain"
)

var sourceCmd = &cobra.Command{
	Use:   "source",
	Short: "Manage document sources",
	Long: `Add, list, and remove document sources.

A source names where documents come from: a Google Drive folder, a
Notion workspace, a set of web pages, or a local uploads directory.

Examples:
  # Index a Drive folder
  centerbot source add gdrive --name "Team Drive" -c folder_id=1AbC...

  # Index configured Notion pages
  centerbot source add notion --name "Wiki"

  # Index web pages
  centerbot source add web --name "Docs site" -c urls=https://example.com/docs

  # Watch a local directory
  centerbot source add uploads --name "Dropbox" -c path=/srv/uploads

  # List configured sources
  centerbot source list`,
}

var sourceAddCmd = &cobra.Command{
	Use:   "add [connector-type]",
	Short: "Add a new source",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSourceAdd,
}

var sourceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured sources",
	RunE:  runSourceList,
}

var sourceRemoveCmd = &cobra.Command{
	Use:   "remove [source-id]",
	Short: "Remove a source",
	Args:  cobra.ExactArgs(1),
	RunE:  runSourceRemove,
}

// Flags for source add.
var (
	sourceAddID     string
	sourceAddName   string
	sourceAddConfig []string
)

func init() {
	sourceAddCmd.Flags().StringVar(&sourceAddID, "id", "", "source ID (generated when empty)")
	sourceAddCmd.Flags().StringVar(&sourceAddName, "name", "", "display name")
	sourceAddCmd.Flags().StringArrayVarP(&sourceAddConfig, "config", "c", nil, "connector setting as key=value (repeatable)")

	sourceCmd.AddCommand(sourceAddCmd)
	sourceCmd.AddCommand(sourceListCmd)
	sourceCmd.AddCommand(sourceRemoveCmd)
	rootCmd.AddCommand(sourceCmd)
}

func runSourceAdd(cmd *cobra.Command, args []string) error {
	if sourceEditor == nil {
		return errors.New("source service not configured")
	}
	if len(args) == 0 {
		return fmt.Errorf("connector type required (one of: %s)", strings.Join(domain.SourceTypes, ", "))
	}

	sourceType := args[0]
	if !validSourceType(sourceType) {
		return fmt.Errorf("unknown connector type %q (one of: %s)", sourceType, strings.Join(domain.SourceTypes, ", "))
	}

	config, err := parseConfigPairs(sourceAddConfig)
	if err != nil {
		return err
	}

	id := sourceAddID
	if id == "" {
		id = fmt.Sprintf("%s-%s", sourceType, uuid.NewString()[:8])
	}
	name := sourceAddName
	if name == "" {
		name = sourceType
	}

	if err := sourceEditor.AddSource(id, sourceType, name, config); err != nil {
		return fmt.Errorf("failed to add source: %w", err)
	}

	cmd.Printf("Source added: %s (%s)\n", id, sourceType)
	return nil
}

func runSourceList(cmd *cobra.Command, _ []string) error {
	if sourceProvider == nil {
		return errors.New("source service not configured")
	}

	sources, err := sourceProvider.Sources(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}

	if len(sources) == 0 {
		cmd.Println("No sources configured.")
		return nil
	}

	cmd.Println("Configured sources:")
	cmd.Println()
	for _, src := range sources {
		cmd.Printf("  %s  [%s]  %s\n", src.ID, src.Type, src.Name)
	}
	return nil
}

func runSourceRemove(cmd *cobra.Command, args []string) error {
	if sourceEditor == nil {
		return errors.New("source service not configured")
	}

	id := args[0]
	if err := sourceEditor.RemoveSource(id); err != nil {
		return fmt.Errorf("failed to remove source: %w", err)
	}

	cmd.Printf("Source removed: %s\n", id)
	return nil
}

func validSourceType(t string) bool {
	for _, known := range domain.SourceTypes {
		if t == known {
			return true
		}
	}
	return false
}

// parseConfigPairs turns repeated key=value flags into a map.
func parseConfigPairs(pairs []string) (map[string]string, error) {
	config := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid config %q, expected key=value", pair)
		}
		config[key] = value
	}
	return config, nil
}
