package entity

import "time"

// Conversation is the persistent chat thread for an order's two participants.
// It is created lazily by the backend on the first message exchange; until
// then the order id serves as an alias the server resolves.
type Conversation struct {
	ID           string    `json:"id"`
	OrderID      string    `json:"order_id,omitempty"`
	Participants []string  `json:"participants"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
