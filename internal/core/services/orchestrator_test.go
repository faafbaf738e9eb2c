package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/adapters/driven/storage/memory"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/domain"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/ports/driven"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/ports/driving"
)

// scriptedModel replays a fixed sequence of responses and records what it
// was sent.
type scriptedModel struct {
	responses []driven.ModelResponse
	errs      []error
	calls     [][]domain.Message
	specs     [][]domain.ToolSpec
}

var _ driven.ModelClient = (*scriptedModel)(nil)

func (m *scriptedModel) Converse(_ context.Context, messages []domain.Message, tools []domain.ToolSpec) (*driven.ModelResponse, error) {
	round := len(m.calls)
	m.calls = append(m.calls, append([]domain.Message(nil), messages...))
	m.specs = append(m.specs, tools)

	if round < len(m.errs) && m.errs[round] != nil {
		return nil, m.errs[round]
	}
	if round < len(m.responses) {
		resp := m.responses[round]
		return &resp, nil
	}
	return &driven.ModelResponse{Text: "Done."}, nil
}

func (m *scriptedModel) ModelName() string { return "scripted" }
func (m *scriptedModel) Close() error      { return nil }

// recordingChat records outbound chat calls.
type recordingChat struct {
	posts     []string
	replies   []string
	reactions []string
	postErr   error
}

var _ driven.ChatClient = (*recordingChat)(nil)

func (c *recordingChat) PostMessage(_ context.Context, channelID, text string) error {
	if c.postErr != nil {
		return c.postErr
	}
	c.posts = append(c.posts, channelID+": "+text)
	return nil
}

func (c *recordingChat) ReplyInThread(_ context.Context, channelID, threadTS, text string) error {
	c.replies = append(c.replies, fmt.Sprintf("%s/%s: %s", channelID, threadTS, text))
	return nil
}

func (c *recordingChat) AddReaction(_ context.Context, channelID, timestamp, reaction string) error {
	c.reactions = append(c.reactions, reaction)
	return nil
}

func (c *recordingChat) ThreadReplies(context.Context, string, string) ([]driven.ChatMessage, error) {
	return nil, nil
}

func (c *recordingChat) ChannelHistory(context.Context, string, int) ([]driven.ChatMessage, error) {
	return nil, nil
}

func toolCall(id, name string, args map[string]any) *driven.ToolCall {
	return &driven.ToolCall{ID: id, Name: name, Arguments: args}
}

func TestOrchestrator_PlainTextAnswer(t *testing.T) {
	model := &scriptedModel{
		responses: []driven.ModelResponse{{Text: "Paris is the capital of France."}},
	}
	orch := NewOrchestrator(model, memory.NewVectorStore(), nil, nil)

	turn, err := orch.Respond(context.Background(), driving.AskRequest{Prompt: "Capital of France?"})
	require.NoError(t, err)

	assert.Equal(t, 1, turn.Rounds)
	assert.Equal(t, "Paris is the capital of France.", turn.Text)
	assert.False(t, turn.Posted)
	assert.Empty(t, turn.Invocations)
}

func TestOrchestrator_EmptyPrompt(t *testing.T) {
	orch := NewOrchestrator(&scriptedModel{}, memory.NewVectorStore(), nil, nil)
	_, err := orch.Respond(context.Background(), driving.AskRequest{Prompt: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestOrchestrator_SearchThenAnswer(t *testing.T) {
	vectors := memory.NewVectorStore()
	require.NoError(t, vectors.Add(context.Background(), []domain.Chunk{{
		ID:         "doc1_0",
		DocumentID: "doc1",
		Text:       "The release train departs every Thursday.",
		Metadata:   map[string]string{domain.MetaDocID: "doc1", domain.MetaTitle: "Release process"},
	}}))

	model := &scriptedModel{
		responses: []driven.ModelResponse{
			{Text: "Let me check.", ToolCall: toolCall("t1", "search", map[string]any{"query": "release train"})},
			{Text: "Releases go out on Thursdays."},
		},
	}
	orch := NewOrchestrator(model, vectors, nil, nil)

	turn, err := orch.Respond(context.Background(), driving.AskRequest{Prompt: "When do we release?"})
	require.NoError(t, err)

	assert.Equal(t, 2, turn.Rounds)
	require.Len(t, turn.Invocations, 1)
	assert.Equal(t, "search", turn.Invocations[0].ToolName)
	assert.Contains(t, turn.Invocations[0].Result, "Release process")
	assert.Contains(t, turn.Text, "Thursdays")

	// The second round must have seen the tool exchange: assistant tool
	// request followed by the tool result, in order.
	secondCall := model.calls[1]
	var sawRequest, sawResult bool
	for _, msg := range secondCall {
		if msg.Role == domain.RoleAssistant && msg.ToolName == "search" {
			sawRequest = true
			assert.Contains(t, msg.ToolArgs, "release train")
		}
		if msg.Role == domain.RoleTool {
			assert.True(t, sawRequest, "tool result must follow the request")
			sawResult = true
		}
	}
	assert.True(t, sawResult)
}

func TestOrchestrator_PostingToolTerminates(t *testing.T) {
	chat := &recordingChat{}
	model := &scriptedModel{
		responses: []driven.ModelResponse{
			{ToolCall: toolCall("t1", "slack_post_message", map[string]any{"text": "The answer."})},
			// Would request another posting if asked again; must not be.
			{ToolCall: toolCall("t2", "slack_post_message", map[string]any{"text": "Again."})},
		},
	}
	orch := NewOrchestrator(model, memory.NewVectorStore(), chat, nil)

	turn, err := orch.Respond(context.Background(), driving.AskRequest{
		Prompt:    "Answer in channel",
		ChannelID: "C123",
	})
	require.NoError(t, err)

	assert.True(t, turn.Posted)
	assert.Equal(t, 1, turn.Rounds)
	assert.Len(t, chat.posts, 1, "at most one visible reply per turn")
	assert.Len(t, model.calls, 1, "the loop must stop after a successful posting tool")
}

func TestOrchestrator_ReactionDoesNotTerminate(t *testing.T) {
	chat := &recordingChat{}
	model := &scriptedModel{
		responses: []driven.ModelResponse{
			{ToolCall: toolCall("t1", "slack_add_reaction", map[string]any{"timestamp": "111.222", "reaction": "eyes"})},
			{ToolCall: toolCall("t2", "slack_post_message", map[string]any{"text": "Working on it, here is the answer."})},
		},
	}
	orch := NewOrchestrator(model, memory.NewVectorStore(), chat, nil)

	turn, err := orch.Respond(context.Background(), driving.AskRequest{
		Prompt:    "Question",
		ChannelID: "C123",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"eyes"}, chat.reactions)
	assert.True(t, turn.Posted)
	assert.Equal(t, 2, turn.Rounds, "a reaction acknowledges, the loop continues")
}

func TestOrchestrator_RoundCap(t *testing.T) {
	// A model that never stops asking for searches.
	var responses []driven.ModelResponse
	for i := 0; i < 20; i++ {
		responses = append(responses, driven.ModelResponse{
			Text:     fmt.Sprintf("Round %d.", i),
			ToolCall: toolCall(fmt.Sprintf("t%d", i), "search", map[string]any{"query": "anything"}),
		})
	}
	model := &scriptedModel{responses: responses}
	orch := NewOrchestrator(model, memory.NewVectorStore(), nil, nil, WithMaxRounds(3))

	turn, err := orch.Respond(context.Background(), driving.AskRequest{Prompt: "Loop forever"})
	require.NoError(t, err)

	assert.Equal(t, 3, turn.Rounds)
	assert.Len(t, model.calls, 3)
	assert.Contains(t, turn.Text, "Round 0.", "accumulated text survives a forced stop")
	assert.Contains(t, turn.Text, "Round 2.")
}

func TestOrchestrator_ToolErrorFedBack(t *testing.T) {
	model := &scriptedModel{
		responses: []driven.ModelResponse{
			// Missing required query argument.
			{ToolCall: toolCall("t1", "search", map[string]any{})},
			{Text: "Could not search."},
		},
	}
	orch := NewOrchestrator(model, memory.NewVectorStore(), nil, nil)

	turn, err := orch.Respond(context.Background(), driving.AskRequest{Prompt: "Q"})
	require.NoError(t, err, "a tool failure must not abort the turn")

	require.Len(t, turn.Invocations, 1)
	assert.Error(t, turn.Invocations[0].Err)

	secondCall := model.calls[1]
	last := secondCall[len(secondCall)-1]
	assert.Equal(t, domain.RoleTool, last.Role)
	assert.Contains(t, last.Content, "Error:")
}

func TestOrchestrator_UnknownToolFedBack(t *testing.T) {
	model := &scriptedModel{
		responses: []driven.ModelResponse{
			{ToolCall: toolCall("t1", "launch_missiles", map[string]any{})},
			{Text: "Never mind."},
		},
	}
	orch := NewOrchestrator(model, memory.NewVectorStore(), nil, nil)

	turn, err := orch.Respond(context.Background(), driving.AskRequest{Prompt: "Q"})
	require.NoError(t, err)
	assert.Equal(t, 2, turn.Rounds)
	require.Len(t, turn.Invocations, 1)
	assert.ErrorIs(t, turn.Invocations[0].Err, domain.ErrInvalidInput)
}

func TestOrchestrator_ModelFailureFallback(t *testing.T) {
	chat := &recordingChat{}
	model := &scriptedModel{
		errs: []error{fmt.Errorf("%w: api down", domain.ErrModelUnavailable)},
	}
	orch := NewOrchestrator(model, memory.NewVectorStore(), chat, nil)

	turn, err := orch.Respond(context.Background(), driving.AskRequest{
		Prompt:    "Q",
		ChannelID: "C123",
	})
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
	require.NotNil(t, turn)
	assert.Equal(t, fallbackReply, turn.Text)
	assert.True(t, turn.Posted)
	require.Len(t, chat.posts, 1)
	assert.Contains(t, chat.posts[0], "trouble reaching")
}

func TestOrchestrator_ModelFailureWithoutChannel(t *testing.T) {
	model := &scriptedModel{
		errs: []error{errors.New("boom")},
	}
	orch := NewOrchestrator(model, memory.NewVectorStore(), nil, nil)

	turn, err := orch.Respond(context.Background(), driving.AskRequest{Prompt: "Q"})
	assert.Error(t, err)
	require.NotNil(t, turn)
	assert.Equal(t, fallbackReply, turn.Text)
	assert.False(t, turn.Posted)
}

func TestOrchestrator_PostingToolsWithheldWithoutChannel(t *testing.T) {
	chat := &recordingChat{}
	model := &scriptedModel{
		responses: []driven.ModelResponse{{Text: "CLI answer."}},
	}
	orch := NewOrchestrator(model, memory.NewVectorStore(), chat, nil)

	_, err := orch.Respond(context.Background(), driving.AskRequest{Prompt: "Q"})
	require.NoError(t, err)

	require.Len(t, model.specs, 1)
	for _, spec := range model.specs[0] {
		assert.NotContains(t, spec.Name, "slack_", "chat tools must not be offered to CLI questions")
	}
}

func TestOrchestrator_ThreadToolOnlyInThreads(t *testing.T) {
	chat := &recordingChat{}
	model := &scriptedModel{
		responses: []driven.ModelResponse{{Text: "ok"}},
	}
	orch := NewOrchestrator(model, memory.NewVectorStore(), chat, nil)

	_, err := orch.Respond(context.Background(), driving.AskRequest{
		Prompt:    "Q",
		ChannelID: "C123",
		ThreadTS:  "111.222",
	})
	require.NoError(t, err)

	names := map[string]bool{}
	for _, spec := range model.specs[0] {
		names[spec.Name] = true
	}
	assert.True(t, names["slack_reply_to_thread"])
	assert.True(t, names["slack_post_message"])
}

func TestOrchestrator_HistoryLoadedAndPersisted(t *testing.T) {
	history := memory.NewConversationStore()
	ctx := context.Background()
	require.NoError(t, history.Append(ctx, "C123", domain.Message{
		Role: domain.RoleUser, Content: "Earlier question",
	}))
	require.NoError(t, history.Append(ctx, "C123", domain.Message{
		Role: domain.RoleAssistant, Content: "Earlier answer",
	}))

	model := &scriptedModel{
		responses: []driven.ModelResponse{{Text: "Follow-up answer."}},
	}
	orch := NewOrchestrator(model, memory.NewVectorStore(), nil, history)

	turn, err := orch.Respond(ctx, driving.AskRequest{
		Prompt:         "Follow-up?",
		ConversationID: "C123",
	})
	require.NoError(t, err)
	assert.Equal(t, "Follow-up answer.", turn.Text)

	// The model saw the prior exchange before the new question.
	first := model.calls[0]
	var texts []string
	for _, m := range first {
		texts = append(texts, m.Content)
	}
	assert.Contains(t, texts, "Earlier question")
	assert.Contains(t, texts, "Earlier answer")

	// The new exchange was persisted.
	recent, err := history.Recent(ctx, "C123", 10)
	require.NoError(t, err)
	require.Len(t, recent, 4)
	assert.Equal(t, "Follow-up?", recent[2].Content)
	assert.Equal(t, "Follow-up answer.", recent[3].Content)
}

func TestOrchestrator_MessageOrdering(t *testing.T) {
	model := &scriptedModel{
		responses: []driven.ModelResponse{
			{Text: "Checking.", ToolCall: toolCall("t1", "search", map[string]any{"query": "x"})},
			{Text: "Answer."},
		},
	}
	orch := NewOrchestrator(model, memory.NewVectorStore(), nil, nil)

	turn, err := orch.Respond(context.Background(), driving.AskRequest{Prompt: "Q"})
	require.NoError(t, err)

	roles := make([]string, len(turn.Messages))
	for i, m := range turn.Messages {
		roles[i] = m.Role
	}
	assert.Equal(t, []string{
		domain.RoleSystem,
		domain.RoleUser,
		domain.RoleAssistant, // tool request
		domain.RoleTool,      // tool result
		domain.RoleAssistant, // final answer
	}, roles)
}
