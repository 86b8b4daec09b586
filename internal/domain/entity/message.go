package entity

import "time"

type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Content        string    `json:"content,omitempty"`
	AttachmentURL  string    `json:"attachment_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// HasPayload reports whether the message carries content and/or an
// attachment. A message with neither is invalid.
func (m *Message) HasPayload() bool {
	return m.Content != "" || m.AttachmentURL != ""
}
