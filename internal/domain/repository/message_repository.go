package repository

import (
	"context"
	"io"

	"gigmarket/internal/domain/entity"
)

// Attachment is a single image to upload alongside a message.
type Attachment struct {
	Filename string
	Reader   io.Reader
}

// MessageDraft is an outgoing message before the server assigns id,
// conversation and timestamp.
type MessageDraft struct {
	Content    string
	Attachment *Attachment
}

// MessageRepository is the conversation-history collaborator. The identifier
// passed to both methods may be either a conversation id or an order id; the
// server resolves the alias and History returns the canonical conversation id
// alongside the messages.
type MessageRepository interface {
	History(ctx context.Context, identifier string) ([]*entity.Message, string, error)
	Create(ctx context.Context, identifier string, draft MessageDraft) (*entity.Message, error)
}
