package repository

import (
	"context"

	"gigmarket/internal/domain/entity"
)

// MessageHandler receives every message broadcast to any room this client has
// joined, including the client's own echoes. Callers filter by conversation
// id and deduplicate by message id.
type MessageHandler func(msg *entity.Message)

// RealtimeChannel is the message-relay collaborator: one persistent
// connection backing any number of logical room subscriptions.
type RealtimeChannel interface {
	// Join subscribes this client to a room. Joining the same room twice
	// must not duplicate delivery.
	Join(ctx context.Context, roomID string) error
	Leave(ctx context.Context, roomID string) error

	// Emit broadcasts an already-persisted message to the room. Never emit
	// a message the server has not assigned an id to.
	Emit(ctx context.Context, roomID string, msg *entity.Message) error

	// OnReceive registers a broadcast handler and returns a detach func.
	OnReceive(handler MessageHandler) (detach func())

	// OnDisconnect registers a handler invoked when the connection drops.
	// The relay offers no gap filling; the owner is expected to re-fetch
	// history and rejoin to close any gap.
	OnDisconnect(handler func(err error)) (detach func())

	Close() error
}
