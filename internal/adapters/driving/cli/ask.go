package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/ports/driving"
)

// askTimeout bounds one terminal question end to end, including every
// model round and tool call.
const askTimeout = 5 * time.Minute

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question against the knowledge index",
	Long: `Runs one question through the answering loop and prints the reply.

The model searches the knowledge index and reads documents as needed.
Slack posting is disabled in terminal mode; the answer is printed here.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if responderService == nil {
		return errors.New("responder service not configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), askTimeout)
	defer cancel()

	turn, err := responderService.Respond(ctx, driving.AskRequest{
		Prompt:         args[0],
		ConversationID: "cli",
	})
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if turn.Text == "" {
		cmd.Println("No answer produced.")
		return nil
	}
	cmd.Println(turn.Text)
	return nil
}
