package domain

import "time"

// Message roles within a conversation turn.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one role-tagged entry in a conversation.
type Message struct {
	// Role is one of the Role* constants.
	Role string

	// Content is the message text. For RoleTool it is the tool result
	// (or an error description) fed back to the model.
	Content string

	// ToolName is set on RoleTool messages and on assistant messages
	// that requested a tool.
	ToolName string

	// ToolCallID correlates a tool result with the model's request.
	ToolCallID string

	// ToolArgs is the JSON-encoded arguments of an assistant tool
	// request, kept so the exchange can be replayed to the model.
	ToolArgs string

	// CreatedAt is when the message was recorded.
	CreatedAt time.Time
}

// ToolInvocation records one executed tool call within a turn.
// Immutable once recorded.
type ToolInvocation struct {
	Round     int
	ToolName  string
	Arguments map[string]any
	Result    string
	Err       error
}

// ConversationTurn is the state of one orchestrator invocation. It is
// created per user request and discarded (or persisted externally) once
// terminal.
type ConversationTurn struct {
	// Messages is the strictly ordered message history for this turn,
	// including synthetic tool-result messages.
	Messages []Message

	// Invocations records every tool executed during the turn.
	Invocations []ToolInvocation

	// Rounds is the number of completed model rounds.
	Rounds int

	// Posted reports whether a posting tool completed successfully.
	Posted bool

	// Text is the accumulated plain-text output across rounds.
	Text string
}

// ToolParam describes one parameter of a tool schema.
type ToolParam struct {
	Name        string
	Type        string
	Description string
	Required    bool
	Enum        []string
}

// ToolSpec is the schema advertised to the model for one available tool.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  []ToolParam
}
