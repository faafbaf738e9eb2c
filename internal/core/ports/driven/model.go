package driven

import (
	"context"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/domain"
)

// ToolCall is a tool execution requested by the model.
type ToolCall struct {
	// ID correlates the eventual tool result with this request.
	ID string

	// Name is the requested tool name.
	Name string

	// Arguments are the decoded tool arguments.
	Arguments map[string]any
}

// ModelResponse is one model round: plain text, optionally followed by a
// single tool request. When ToolCall is nil the model is done.
type ModelResponse struct {
	// Text is the plain-text portion of the response.
	Text string

	// ToolCall is the requested tool execution, if any.
	ToolCall *ToolCall
}

// ModelClient conducts one round of a tool-calling conversation.
//
// Implementations advertise the tool schemas to the model and decode at
// most one tool request per round; the orchestrator's loop depends on each
// round's result, so rounds are strictly sequential.
type ModelClient interface {
	// Converse sends the full message history plus tool schemas and
	// returns the model's next response. API failures are wrapped in
	// domain.ErrModelUnavailable.
	Converse(ctx context.Context, messages []domain.Message, tools []domain.ToolSpec) (*ModelResponse, error)

	// ModelName returns the model identifier in use.
	ModelName() string

	// Close releases resources.
	Close() error
}
