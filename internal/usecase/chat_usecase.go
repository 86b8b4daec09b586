package usecase

import (
	"context"

	"gigmarket/internal/domain/entity"
	"gigmarket/internal/domain/repository"
	"gigmarket/internal/infrastructure/session"
	"gigmarket/pkg/errors"
	"gigmarket/pkg/logger"
)

type ChatUseCase struct {
	messageRepo repository.MessageRepository
	channel     repository.RealtimeChannel
	session     *session.Session
}

func NewChatUseCase(
	messageRepo repository.MessageRepository,
	channel repository.RealtimeChannel,
	sess *session.Session,
) *ChatUseCase {
	return &ChatUseCase{
		messageRepo: messageRepo,
		channel:     channel,
		session:     sess,
	}
}

// BindChat opens a chat session for an order: it loads the message history,
// resolves the canonical conversation id, and joins the realtime room under
// that id, never under the order-id alias. A nil history response for the
// conversation id (no messages yet) leaves the session bound without a room;
// the room is joined once the first send creates the conversation.
//
// History failure is retryable: nothing is joined, no partial feed exists,
// and the caller may simply call BindChat again.
func (uc *ChatUseCase) BindChat(ctx context.Context, order *entity.Order) (*ChatSession, error) {
	if uc.session.Identity() == nil {
		return nil, errors.Unauthorized("Sign in to open a chat", nil)
	}
	if order == nil || order.ID == "" {
		return nil, errors.BadRequest("Chat requires an order", nil)
	}

	s := newChatSession(uc.messageRepo, uc.channel, order)

	if err := s.bind(ctx); err != nil {
		return nil, err
	}

	logger.Debug("Chat bound for order %s (conversation %q)", order.ID, s.ConversationID())
	return s, nil
}
