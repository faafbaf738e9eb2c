package driving

import (
	"context"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/domain"
)

// AskRequest is one user question routed into the tool-calling loop.
type AskRequest struct {
	// Prompt is the user's message text.
	Prompt string

	// ChannelID is the chat channel the question arrived on. Empty for
	// CLI invocations; posting tools are withheld in that case.
	ChannelID string

	// ThreadTS is the thread the question arrived on, if any.
	ThreadTS string

	// ConversationID keys the persisted history used as context.
	ConversationID string
}

// Responder drives a bounded tool-calling conversation against the
// knowledge index and the chat platform.
type Responder interface {
	// Respond runs one conversation turn to completion and returns its
	// final state. The turn is terminal when the model stops requesting
	// tools, a posting tool succeeds, or the round cap is reached.
	Respond(ctx context.Context, req AskRequest) (*domain.ConversationTurn, error)
}
