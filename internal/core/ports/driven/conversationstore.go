package driven

import (
	"context"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/domain"
)

// ConversationStore persists conversation history across turns, keyed by
// chat channel and optional thread. Only user and assistant messages are
// stored; tool traffic is per-turn state.
type ConversationStore interface {
	// Append records one message at the end of a conversation.
	Append(ctx context.Context, conversationID string, msg domain.Message) error

	// Recent returns up to limit most recent messages, oldest first.
	Recent(ctx context.Context, conversationID string, limit int) ([]domain.Message, error)

	// Prune drops messages beyond the keep most recent per conversation.
	Prune(ctx context.Context, keep int) error
}
