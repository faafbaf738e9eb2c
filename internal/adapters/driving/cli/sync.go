package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/ports/driving"
)

var syncCmd = &cobra.Command{
	Use:   "sync [source-id]",
	Short: "Synchronise documents from sources",
	Long: `Triggers document synchronisation from configured sources.
If a source ID is provided, only that source is synchronised.
Otherwise, all sources are synchronised.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if syncService == nil {
		return errors.New("sync service not configured")
	}

	ctx := context.Background()

	if len(args) > 0 {
		sourceID := args[0]
		cmd.Printf("Synchronising source: %s...\n", sourceID)

		summary, err := syncWithProgress(ctx, cmd, syncService, sourceID)
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}

		printSummary(cmd, summary)
		return nil
	}

	// Sync all sources
	cmd.Println("Synchronising all sources...")

	if err := syncService.SyncAll(ctx); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	cmd.Println("All sources synchronised successfully.")
	return nil
}

// syncWithProgress runs sync while displaying progress updates.
func syncWithProgress(
	ctx context.Context,
	cmd *cobra.Command,
	ingestor driving.Ingestor,
	sourceID string,
) (*driving.SyncSummary, error) {
	type result struct {
		summary *driving.SyncSummary
		err     error
	}
	resCh := make(chan result, 1)
	go func() {
		summary, err := ingestor.Sync(ctx, sourceID)
		resCh <- result{summary, err}
	}()

	// Poll status every 500ms
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	lastCount := 0
	for {
		select {
		case res := <-resCh:
			if lastCount > 0 {
				cmd.Println()
			}
			return res.summary, res.err
		case <-ticker.C:
			// Check progress (ignore status error - best effort)
			status, statusErr := ingestor.Status(ctx, sourceID)
			if statusErr == nil && status != nil && status.ItemsProcessed > lastCount {
				cmd.Printf("\rProcessing... %d items", status.ItemsProcessed)
				lastCount = status.ItemsProcessed
			}
		}
	}
}

func printSummary(cmd *cobra.Command, summary *driving.SyncSummary) {
	if summary == nil {
		return
	}
	cmd.Printf("Synced %d of %d items (%d skipped, %d failed).\n",
		summary.Synced, summary.Total, summary.Skipped, summary.Failed)
	for _, item := range summary.Items {
		if item.Status == driving.ItemFailed {
			cmd.Printf("  failed: %s: %s\n", item.ItemID, item.Error)
		}
	}
}
