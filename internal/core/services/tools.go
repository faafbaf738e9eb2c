package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/domain"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/ports/driven"
)

// DefaultSearchLimit is the default number of similarity hits returned by
// the search tool.
const DefaultSearchLimit = 5

// fetchBatchSize is how many sequential chunk IDs the fetch tool requests
// per round trip. Chunk indexes are contiguous from zero, so a short batch
// marks the end of the document.
const fetchBatchSize = 32

// Interface guards.
var (
	_ driven.Tool = (*SearchTool)(nil)
	_ driven.Tool = (*FetchDocumentTool)(nil)
	_ driven.Tool = (*PostMessageTool)(nil)
	_ driven.Tool = (*ReplyToThreadTool)(nil)
	_ driven.Tool = (*ThreadRepliesTool)(nil)
	_ driven.Tool = (*ChannelHistoryTool)(nil)
	_ driven.Tool = (*AddReactionTool)(nil)
)

// stringArg reads a string argument, falling back to def when absent.
func stringArg(args map[string]any, name, def string) string {
	if v, ok := args[name].(string); ok && v != "" {
		return v
	}
	return def
}

// intArg reads a numeric argument. JSON decoding yields float64.
func intArg(args map[string]any, name string, def int) int {
	switch v := args[name].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

// SearchTool runs a similarity search over the knowledge index.
type SearchTool struct {
	vectors driven.VectorStore
	limit   int
}

// NewSearchTool creates the search tool. limit <= 0 uses the default.
func NewSearchTool(vectors driven.VectorStore, limit int) *SearchTool {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	return &SearchTool{vectors: vectors, limit: limit}
}

func (t *SearchTool) Spec() domain.ToolSpec {
	return domain.ToolSpec{
		Name:        "search",
		Description: "Search the knowledge base for content relevant to a query. Returns the most similar chunks with their document IDs.",
		Parameters: []domain.ToolParam{
			{Name: "query", Type: "string", Description: "The search query", Required: true},
			{Name: "source_type", Type: "string", Description: "Restrict results to one source type", Enum: domain.SourceTypes},
			{Name: "limit", Type: "integer", Description: "Maximum number of results"},
		},
	}
}

func (t *SearchTool) Posting() bool { return false }

func (t *SearchTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	query := stringArg(args, "query", "")
	if query == "" {
		return "", fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}

	opts := domain.SearchOptions{Limit: intArg(args, "limit", t.limit)}
	if st := stringArg(args, "source_type", ""); st != "" {
		opts.Filter = domain.SearchFilter{domain.MetaSourceType: st}
	}

	results, err := t.vectors.Search(ctx, query, opts)
	if err != nil {
		return "", fmt.Errorf("search: %w", err)
	}
	if len(results) == 0 {
		return "No results found.", nil
	}

	var sb strings.Builder
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. %s (doc_id: %s, score: %.2f)\n",
			i+1, r.Metadata[domain.MetaTitle], r.Metadata[domain.MetaDocID], r.Score)
		if url := r.Metadata[domain.MetaURL]; url != "" {
			fmt.Fprintf(&sb, "   %s\n", url)
		}
		fmt.Fprintf(&sb, "   %s\n", r.Text)
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

// FetchDocumentTool reassembles a full document from its stored chunks.
type FetchDocumentTool struct {
	vectors driven.VectorStore
}

// NewFetchDocumentTool creates the fetch_document tool.
func NewFetchDocumentTool(vectors driven.VectorStore) *FetchDocumentTool {
	return &FetchDocumentTool{vectors: vectors}
}

func (t *FetchDocumentTool) Spec() domain.ToolSpec {
	return domain.ToolSpec{
		Name:        "fetch_document",
		Description: "Fetch the full text of a document by its doc_id, as returned by search.",
		Parameters: []domain.ToolParam{
			{Name: "doc_id", Type: "string", Description: "The document ID", Required: true},
		},
	}
}

func (t *FetchDocumentTool) Posting() bool { return false }

func (t *FetchDocumentTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	docID := stringArg(args, "doc_id", "")
	if docID == "" {
		return "", fmt.Errorf("%w: doc_id is required", domain.ErrInvalidInput)
	}

	var chunks []domain.Chunk
	for start := 0; ; start += fetchBatchSize {
		ids := make([]string, fetchBatchSize)
		for i := range ids {
			ids[i] = domain.ChunkID(docID, start+i)
		}
		batch, err := t.vectors.Get(ctx, ids)
		if err != nil {
			return "", fmt.Errorf("fetch document: %w", err)
		}
		chunks = append(chunks, batch...)
		if len(batch) < fetchBatchSize {
			break
		}
	}
	if len(chunks) == 0 {
		return "", fmt.Errorf("%w: document %s", domain.ErrNotFound, docID)
	}

	sort.Slice(chunks, func(a, b int) bool { return chunks[a].Index < chunks[b].Index })

	var sb strings.Builder
	if title := chunks[0].Metadata[domain.MetaTitle]; title != "" {
		fmt.Fprintf(&sb, "# %s\n", title)
	}
	if url := chunks[0].Metadata[domain.MetaURL]; url != "" {
		fmt.Fprintf(&sb, "%s\n", url)
	}
	for _, c := range chunks {
		sb.WriteString("\n")
		sb.WriteString(c.Text)
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String()), nil
}

// PostMessageTool sends a message to a chat channel. Posting: a success
// ends the conversation turn.
type PostMessageTool struct {
	chat           driven.ChatClient
	defaultChannel string
}

// NewPostMessageTool creates the slack_post_message tool bound to a
// default channel for the current conversation.
func NewPostMessageTool(chat driven.ChatClient, defaultChannel string) *PostMessageTool {
	return &PostMessageTool{chat: chat, defaultChannel: defaultChannel}
}

func (t *PostMessageTool) Spec() domain.ToolSpec {
	return domain.ToolSpec{
		Name:        "slack_post_message",
		Description: "Post a message to a Slack channel. Use this to deliver your answer to the user.",
		Parameters: []domain.ToolParam{
			{Name: "text", Type: "string", Description: "The message text", Required: true},
			{Name: "channel", Type: "string", Description: "Channel ID, defaults to the current channel"},
		},
	}
}

func (t *PostMessageTool) Posting() bool { return true }

func (t *PostMessageTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	text := stringArg(args, "text", "")
	if text == "" {
		return "", fmt.Errorf("%w: text is required", domain.ErrInvalidInput)
	}
	channel := stringArg(args, "channel", t.defaultChannel)
	if channel == "" {
		return "", fmt.Errorf("%w: channel is required", domain.ErrInvalidInput)
	}
	if err := t.chat.PostMessage(ctx, channel, text); err != nil {
		return "", fmt.Errorf("post message: %w", err)
	}
	return "Message posted.", nil
}

// ReplyToThreadTool sends a reply into an existing thread. Posting.
type ReplyToThreadTool struct {
	chat           driven.ChatClient
	defaultChannel string
	defaultThread  string
}

// NewReplyToThreadTool creates the slack_reply_to_thread tool bound to
// the current channel and thread.
func NewReplyToThreadTool(chat driven.ChatClient, defaultChannel, defaultThread string) *ReplyToThreadTool {
	return &ReplyToThreadTool{chat: chat, defaultChannel: defaultChannel, defaultThread: defaultThread}
}

func (t *ReplyToThreadTool) Spec() domain.ToolSpec {
	return domain.ToolSpec{
		Name:        "slack_reply_to_thread",
		Description: "Reply inside a Slack thread. Use this to answer when the question arrived in a thread.",
		Parameters: []domain.ToolParam{
			{Name: "text", Type: "string", Description: "The reply text", Required: true},
			{Name: "channel", Type: "string", Description: "Channel ID, defaults to the current channel"},
			{Name: "thread_ts", Type: "string", Description: "Thread timestamp, defaults to the current thread"},
		},
	}
}

func (t *ReplyToThreadTool) Posting() bool { return true }

func (t *ReplyToThreadTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	text := stringArg(args, "text", "")
	if text == "" {
		return "", fmt.Errorf("%w: text is required", domain.ErrInvalidInput)
	}
	channel := stringArg(args, "channel", t.defaultChannel)
	threadTS := stringArg(args, "thread_ts", t.defaultThread)
	if channel == "" || threadTS == "" {
		return "", fmt.Errorf("%w: channel and thread_ts are required", domain.ErrInvalidInput)
	}
	if err := t.chat.ReplyInThread(ctx, channel, threadTS, text); err != nil {
		return "", fmt.Errorf("reply in thread: %w", err)
	}
	return "Reply posted.", nil
}

// ThreadRepliesTool reads the messages of a thread.
type ThreadRepliesTool struct {
	chat           driven.ChatClient
	defaultChannel string
}

// NewThreadRepliesTool creates the slack_get_thread_replies tool.
func NewThreadRepliesTool(chat driven.ChatClient, defaultChannel string) *ThreadRepliesTool {
	return &ThreadRepliesTool{chat: chat, defaultChannel: defaultChannel}
}

func (t *ThreadRepliesTool) Spec() domain.ToolSpec {
	return domain.ToolSpec{
		Name:        "slack_get_thread_replies",
		Description: "Read the messages of a Slack thread, oldest first.",
		Parameters: []domain.ToolParam{
			{Name: "thread_ts", Type: "string", Description: "Thread timestamp", Required: true},
			{Name: "channel", Type: "string", Description: "Channel ID, defaults to the current channel"},
		},
	}
}

func (t *ThreadRepliesTool) Posting() bool { return false }

func (t *ThreadRepliesTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	threadTS := stringArg(args, "thread_ts", "")
	if threadTS == "" {
		return "", fmt.Errorf("%w: thread_ts is required", domain.ErrInvalidInput)
	}
	channel := stringArg(args, "channel", t.defaultChannel)
	if channel == "" {
		return "", fmt.Errorf("%w: channel is required", domain.ErrInvalidInput)
	}
	messages, err := t.chat.ThreadReplies(ctx, channel, threadTS)
	if err != nil {
		return "", fmt.Errorf("get thread replies: %w", err)
	}
	return formatChatMessages(messages), nil
}

// ChannelHistoryTool reads recent channel messages.
type ChannelHistoryTool struct {
	chat           driven.ChatClient
	defaultChannel string
}

// NewChannelHistoryTool creates the slack_get_channel_history tool.
func NewChannelHistoryTool(chat driven.ChatClient, defaultChannel string) *ChannelHistoryTool {
	return &ChannelHistoryTool{chat: chat, defaultChannel: defaultChannel}
}

func (t *ChannelHistoryTool) Spec() domain.ToolSpec {
	return domain.ToolSpec{
		Name:        "slack_get_channel_history",
		Description: "Read the most recent messages of a Slack channel.",
		Parameters: []domain.ToolParam{
			{Name: "channel", Type: "string", Description: "Channel ID, defaults to the current channel"},
			{Name: "limit", Type: "integer", Description: "Maximum number of messages"},
		},
	}
}

func (t *ChannelHistoryTool) Posting() bool { return false }

func (t *ChannelHistoryTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	channel := stringArg(args, "channel", t.defaultChannel)
	if channel == "" {
		return "", fmt.Errorf("%w: channel is required", domain.ErrInvalidInput)
	}
	messages, err := t.chat.ChannelHistory(ctx, channel, intArg(args, "limit", 10))
	if err != nil {
		return "", fmt.Errorf("get channel history: %w", err)
	}
	return formatChatMessages(messages), nil
}

// AddReactionTool adds an emoji reaction to a message. Side-effecting but
// not posting: a reaction acknowledges, it does not answer, so the loop
// continues afterwards.
type AddReactionTool struct {
	chat           driven.ChatClient
	defaultChannel string
}

// NewAddReactionTool creates the slack_add_reaction tool.
func NewAddReactionTool(chat driven.ChatClient, defaultChannel string) *AddReactionTool {
	return &AddReactionTool{chat: chat, defaultChannel: defaultChannel}
}

func (t *AddReactionTool) Spec() domain.ToolSpec {
	return domain.ToolSpec{
		Name:        "slack_add_reaction",
		Description: "Add an emoji reaction to a Slack message.",
		Parameters: []domain.ToolParam{
			{Name: "timestamp", Type: "string", Description: "Timestamp of the message to react to", Required: true},
			{Name: "reaction", Type: "string", Description: "Emoji name without colons, e.g. thumbsup", Required: true},
			{Name: "channel", Type: "string", Description: "Channel ID, defaults to the current channel"},
		},
	}
}

func (t *AddReactionTool) Posting() bool { return false }

func (t *AddReactionTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	timestamp := stringArg(args, "timestamp", "")
	reaction := stringArg(args, "reaction", "")
	if timestamp == "" || reaction == "" {
		return "", fmt.Errorf("%w: timestamp and reaction are required", domain.ErrInvalidInput)
	}
	channel := stringArg(args, "channel", t.defaultChannel)
	if channel == "" {
		return "", fmt.Errorf("%w: channel is required", domain.ErrInvalidInput)
	}
	if err := t.chat.AddReaction(ctx, channel, timestamp, reaction); err != nil {
		return "", fmt.Errorf("add reaction: %w", err)
	}
	return "Reaction added.", nil
}

func formatChatMessages(messages []driven.ChatMessage) string {
	if len(messages) == 0 {
		return "No messages."
	}
	var sb strings.Builder
	for _, m := range messages {
		author := m.UserID
		if m.Bot {
			author += " (bot)"
		}
		fmt.Fprintf(&sb, "[%s] %s: %s\n", m.Timestamp, author, m.Text)
	}
	return strings.TrimRight(sb.String(), "\n")
}
