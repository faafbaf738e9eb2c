package driven

import "context"

// ChatMessage is one message read back from the chat platform.
type ChatMessage struct {
	// UserID is the platform user that wrote the message.
	UserID string

	// Text is the message body.
	Text string

	// Timestamp is the platform's message identifier within a channel.
	Timestamp string

	// Bot reports whether the message was written by a bot.
	Bot bool
}

// ChatClient is the outbound chat platform boundary. Posting methods are
// the side effects behind the orchestrator's posting tools; the at-most-
// once guarantee lives in the orchestrator, not here.
type ChatClient interface {
	// PostMessage sends a message to a channel.
	PostMessage(ctx context.Context, channelID, text string) error

	// ReplyInThread sends a message into an existing thread.
	ReplyInThread(ctx context.Context, channelID, threadTS, text string) error

	// AddReaction adds an emoji reaction to a message.
	AddReaction(ctx context.Context, channelID, timestamp, reaction string) error

	// ThreadReplies returns the messages of a thread, oldest first.
	ThreadReplies(ctx context.Context, channelID, threadTS string) ([]ChatMessage, error)

	// ChannelHistory returns up to limit recent channel messages,
	// newest first.
	ChannelHistory(ctx context.Context, channelID string, limit int) ([]ChatMessage, error)
}
