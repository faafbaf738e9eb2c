package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/domain"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/ports/driven"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/ports/driving"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/logger"
)

// Ensure Orchestrator implements the interface.
var _ driving.Responder = (*Orchestrator)(nil)

// DefaultMaxRounds caps the tool-calling loop.
const DefaultMaxRounds = 6

// DefaultHistoryWindow is how many persisted messages are loaded into the
// prompt as conversation context.
const DefaultHistoryWindow = 20

// fallbackReply is posted when the model API itself fails.
const fallbackReply = "Sorry, I am having trouble reaching the language model right now. Please try again in a moment."

const defaultSystemPrompt = `You are a helpful knowledge assistant. Answer questions using the knowledge base: call the search tool to find relevant content and fetch_document to read a full document. Cite document titles or URLs when you use them. When Slack posting tools are available, deliver your final answer with one of them; post exactly once per question.`

// Orchestrator drives the bounded tool-calling loop for one user request.
// Rounds are strictly sequential; each round's model call sees every
// message produced by the rounds before it.
type Orchestrator struct {
	model   driven.ModelClient
	vectors driven.VectorStore
	chat    driven.ChatClient         // nil disables the chat tool set
	history driven.ConversationStore  // nil disables persisted context

	maxRounds     int
	historyWindow int
	searchLimit   int
	systemPrompt  string
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithMaxRounds sets the round cap.
func WithMaxRounds(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxRounds = n
		}
	}
}

// WithHistoryWindow sets how many persisted messages feed the prompt.
func WithHistoryWindow(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.historyWindow = n
		}
	}
}

// WithSearchLimit sets the search tool's default result count.
func WithSearchLimit(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.searchLimit = n
		}
	}
}

// WithSystemPrompt overrides the default system prompt.
func WithSystemPrompt(prompt string) OrchestratorOption {
	return func(o *Orchestrator) {
		if prompt != "" {
			o.systemPrompt = prompt
		}
	}
}

// NewOrchestrator creates a tool orchestrator. chat and history may be
// nil; the corresponding capabilities are then disabled.
func NewOrchestrator(
	model driven.ModelClient,
	vectors driven.VectorStore,
	chat driven.ChatClient,
	history driven.ConversationStore,
	opts ...OrchestratorOption,
) *Orchestrator {
	o := &Orchestrator{
		model:         model,
		vectors:       vectors,
		chat:          chat,
		history:       history,
		maxRounds:     DefaultMaxRounds,
		historyWindow: DefaultHistoryWindow,
		searchLimit:   DefaultSearchLimit,
		systemPrompt:  defaultSystemPrompt,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Respond runs one conversation turn to completion.
func (o *Orchestrator) Respond(ctx context.Context, req driving.AskRequest) (*domain.ConversationTurn, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("%w: empty prompt", domain.ErrInvalidInput)
	}

	tools := o.toolsFor(req)
	specs := make([]domain.ToolSpec, len(tools))
	byName := make(map[string]driven.Tool, len(tools))
	for i, t := range tools {
		specs[i] = t.Spec()
		byName[specs[i].Name] = t
	}

	turn := &domain.ConversationTurn{
		Messages: o.seedMessages(ctx, req),
	}

	var text []string
	for turn.Rounds < o.maxRounds {
		resp, err := o.model.Converse(ctx, turn.Messages, specs)
		if err != nil {
			logger.Error("Model call failed: %v", err)
			return o.failTurn(ctx, req, turn, err)
		}
		turn.Rounds++

		if resp.Text != "" {
			text = append(text, resp.Text)
		}

		if resp.ToolCall == nil {
			turn.Messages = append(turn.Messages, domain.Message{
				Role:      domain.RoleAssistant,
				Content:   resp.Text,
				CreatedAt: time.Now().UTC(),
			})
			break
		}

		call := resp.ToolCall
		turn.Messages = append(turn.Messages, assistantToolMessage(resp.Text, call))

		result, execErr := o.executeTool(ctx, byName, call)
		turn.Invocations = append(turn.Invocations, domain.ToolInvocation{
			Round:     turn.Rounds,
			ToolName:  call.Name,
			Arguments: call.Arguments,
			Result:    result,
			Err:       execErr,
		})

		content := result
		if execErr != nil {
			// The error goes back to the model as a tool result so it
			// can recover; the turn itself keeps going.
			content = fmt.Sprintf("Error: %v", execErr)
		}
		turn.Messages = append(turn.Messages, domain.Message{
			Role:       domain.RoleTool,
			Content:    content,
			ToolName:   call.Name,
			ToolCallID: call.ID,
			CreatedAt:  time.Now().UTC(),
		})

		if execErr == nil && byName[call.Name].Posting() {
			// One visible reply per turn. Stop before the model can
			// request another posting.
			turn.Posted = true
			break
		}
	}

	turn.Text = strings.Join(text, "\n")
	o.persistTurn(ctx, req, turn)
	return turn, nil
}

// toolsFor assembles the tool set for one request. The chat tools are
// available only when a chat client is wired and the request came from a
// channel; a CLI question gets the knowledge tools alone.
func (o *Orchestrator) toolsFor(req driving.AskRequest) []driven.Tool {
	tools := []driven.Tool{
		NewSearchTool(o.vectors, o.searchLimit),
		NewFetchDocumentTool(o.vectors),
	}
	if o.chat == nil || req.ChannelID == "" {
		return tools
	}
	tools = append(tools,
		NewPostMessageTool(o.chat, req.ChannelID),
		NewThreadRepliesTool(o.chat, req.ChannelID),
		NewChannelHistoryTool(o.chat, req.ChannelID),
		NewAddReactionTool(o.chat, req.ChannelID),
	)
	if req.ThreadTS != "" {
		tools = append(tools, NewReplyToThreadTool(o.chat, req.ChannelID, req.ThreadTS))
	}
	return tools
}

// seedMessages builds the initial prompt: system, persisted context,
// then the user's question.
func (o *Orchestrator) seedMessages(ctx context.Context, req driving.AskRequest) []domain.Message {
	system := o.systemPrompt
	if req.ChannelID != "" {
		system += fmt.Sprintf("\n\nCurrent channel: %s.", req.ChannelID)
		if req.ThreadTS != "" {
			system += fmt.Sprintf(" Current thread: %s.", req.ThreadTS)
		}
	}
	messages := []domain.Message{{Role: domain.RoleSystem, Content: system}}

	if o.history != nil && req.ConversationID != "" {
		recent, err := o.history.Recent(ctx, req.ConversationID, o.historyWindow)
		if err != nil {
			logger.Warn("Loading conversation history failed: %v", err)
		} else {
			messages = append(messages, recent...)
		}
	}

	messages = append(messages, domain.Message{
		Role:      domain.RoleUser,
		Content:   req.Prompt,
		CreatedAt: time.Now().UTC(),
	})
	return messages
}

func (o *Orchestrator) executeTool(ctx context.Context, byName map[string]driven.Tool, call *driven.ToolCall) (string, error) {
	tool, ok := byName[call.Name]
	if !ok {
		return "", fmt.Errorf("%w: unknown tool %q", domain.ErrInvalidInput, call.Name)
	}
	logger.Debug("Executing tool %s (round input: %v)", call.Name, call.Arguments)
	return tool.Execute(ctx, call.Arguments)
}

// failTurn handles a model API failure: the user gets a fixed reply, the
// turn ends.
func (o *Orchestrator) failTurn(ctx context.Context, req driving.AskRequest, turn *domain.ConversationTurn, cause error) (*domain.ConversationTurn, error) {
	turn.Text = fallbackReply
	if o.chat != nil && req.ChannelID != "" {
		var postErr error
		if req.ThreadTS != "" {
			postErr = o.chat.ReplyInThread(ctx, req.ChannelID, req.ThreadTS, fallbackReply)
		} else {
			postErr = o.chat.PostMessage(ctx, req.ChannelID, fallbackReply)
		}
		if postErr != nil {
			logger.Error("Posting fallback reply failed: %v", postErr)
		} else {
			turn.Posted = true
		}
	}
	return turn, cause
}

// persistTurn records the user question and the assistant's answer for
// future context. Tool traffic stays per-turn.
func (o *Orchestrator) persistTurn(ctx context.Context, req driving.AskRequest, turn *domain.ConversationTurn) {
	if o.history == nil || req.ConversationID == "" {
		return
	}
	now := time.Now().UTC()
	if err := o.history.Append(ctx, req.ConversationID, domain.Message{
		Role: domain.RoleUser, Content: req.Prompt, CreatedAt: now,
	}); err != nil {
		logger.Warn("Persisting user message failed: %v", err)
		return
	}
	answer := turn.Text
	if answer == "" {
		return
	}
	if err := o.history.Append(ctx, req.ConversationID, domain.Message{
		Role: domain.RoleAssistant, Content: answer, CreatedAt: now,
	}); err != nil {
		logger.Warn("Persisting assistant message failed: %v", err)
	}
}

// assistantToolMessage encodes a model tool request so the exchange can
// be replayed on the next round.
func assistantToolMessage(text string, call *driven.ToolCall) domain.Message {
	args := "{}"
	if len(call.Arguments) > 0 {
		if b, err := json.Marshal(call.Arguments); err == nil {
			args = string(b)
		}
	}
	return domain.Message{
		Role:       domain.RoleAssistant,
		Content:    text,
		ToolName:   call.Name,
		ToolCallID: call.ID,
		ToolArgs:   args,
		CreatedAt:  time.Now().UTC(),
	}
}
