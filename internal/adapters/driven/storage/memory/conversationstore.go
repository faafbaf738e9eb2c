package memory

import (
	"context"
	"sync"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/domain"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/ports/driven"
)

// Ensure ConversationStore implements the interface.
var _ driven.ConversationStore = (*ConversationStore)(nil)

// ConversationStore is an in-memory implementation of
// driven.ConversationStore.
type ConversationStore struct {
	mu       sync.RWMutex
	messages map[string][]domain.Message
}

// NewConversationStore creates a new in-memory conversation store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		messages: make(map[string][]domain.Message),
	}
}

// Append records one message at the end of a conversation.
func (s *ConversationStore) Append(_ context.Context, conversationID string, msg domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[conversationID] = append(s.messages[conversationID], msg)
	return nil
}

// Recent returns up to limit most recent messages, oldest first.
func (s *ConversationStore) Recent(_ context.Context, conversationID string, limit int) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[conversationID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]domain.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// Prune drops messages beyond the keep most recent per conversation.
func (s *ConversationStore) Prune(_ context.Context, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, msgs := range s.messages {
		if keep > 0 && len(msgs) > keep {
			trimmed := make([]domain.Message, keep)
			copy(trimmed, msgs[len(msgs)-keep:])
			s.messages[id] = trimmed
		}
	}
	return nil
}
