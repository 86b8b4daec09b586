package realtime

import (
	"encoding/json"
	"time"
)

// Event types exchanged with the relay.
const (
	EventPing              = "ping"
	EventPong              = "pong"
	EventJoinConversation  = "join_conversation"
	EventLeaveConversation = "leave_conversation"
	EventSendMessage       = "send_message"
	EventReceiveMessage    = "receive_message"
	EventError             = "error"
)

// WSMessage is the JSON envelope for every frame on the realtime channel.
type WSMessage struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp string          `json:"timestamp"`
}

// RoomData is the payload of join/leave events.
type RoomData struct {
	ConversationID string `json:"conversation_id"`
}

func NewWSMessage(eventType string, data interface{}) (*WSMessage, error) {
	var raw json.RawMessage
	if data != nil {
		encoded, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		raw = encoded
	}
	return &WSMessage{
		Type:      eventType,
		Data:      raw,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}, nil
}
