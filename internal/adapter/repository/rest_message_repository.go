package repository

import (
	"context"

	"gigmarket/internal/domain/entity"
	"gigmarket/internal/domain/repository"
	"gigmarket/internal/infrastructure/rest"
)

type RestMessageRepository struct {
	client *rest.Client
}

func NewRestMessageRepository(client *rest.Client) *RestMessageRepository {
	return &RestMessageRepository{client: client}
}

type historyResponse struct {
	Messages       []*entity.Message `json:"messages"`
	ConversationID string            `json:"conversation_id"`
}

// History fetches the ordered message list for a conversation id or an order
// id; the server resolves the alias and returns the canonical conversation id.
func (r *RestMessageRepository) History(ctx context.Context, identifier string) ([]*entity.Message, string, error) {
	var data historyResponse
	if err := r.client.Get(ctx, "/messages/"+identifier, nil, &data); err != nil {
		return nil, "", err
	}
	return data.Messages, data.ConversationID, nil
}

// Create persists a message. The payload is always multipart form data, the
// encoding the attachment path requires; text-only messages simply omit the
// file part.
func (r *RestMessageRepository) Create(ctx context.Context, identifier string, draft repository.MessageDraft) (*entity.Message, error) {
	fields := map[string]string{}
	if draft.Content != "" {
		fields["content"] = draft.Content
	}

	var msg entity.Message
	var err error
	if draft.Attachment != nil {
		err = r.client.PostMultipart(ctx, "/messages/"+identifier, fields, draft.Attachment.Filename, draft.Attachment.Reader, &msg)
	} else {
		err = r.client.PostMultipart(ctx, "/messages/"+identifier, fields, "", nil, &msg)
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}
