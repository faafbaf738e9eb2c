package driven

import (
	"context"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/domain"
)

// Tool is one action the model may request during a conversation turn.
type Tool interface {
	// Spec returns the schema advertised to the model.
	Spec() domain.ToolSpec

	// Posting reports whether executing this tool has an externally
	// visible side effect that counts as the turn's reply (e.g., sending
	// a chat message). A successful posting tool terminates the turn.
	Posting() bool

	// Execute runs the tool and returns a text result for the model.
	Execute(ctx context.Context, args map[string]any) (string, error)
}
