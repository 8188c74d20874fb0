package service

import (
	"context"

	"github.com/taskchat/taskchat/internal/domain/conversation"
	"github.com/taskchat/taskchat/internal/port/database"
)

// ConversationService exposes the conversation read and delete API. The chat
// flow itself lives in TurnService.
type ConversationService struct {
	store database.Store
}

// NewConversationService creates a new ConversationService.
func NewConversationService(store database.Store) *ConversationService {
	return &ConversationService{store: store}
}

// List returns the owner's conversations, most recently active first.
func (s *ConversationService) List(ctx context.Context, owner string) ([]conversation.Conversation, error) {
	return s.store.ListConversations(ctx, owner)
}

// Messages returns the full transcript of one conversation. Ownership is
// checked first so a foreign conversation id reads as not found.
func (s *ConversationService) Messages(ctx context.Context, owner string, id int64) ([]conversation.Message, error) {
	if _, err := s.store.GetConversation(ctx, owner, id); err != nil {
		return nil, err
	}
	return s.store.ListMessages(ctx, id)
}

// Delete removes a conversation and its messages.
func (s *ConversationService) Delete(ctx context.Context, owner string, id int64) error {
	return s.store.DeleteConversation(ctx, owner, id)
}
