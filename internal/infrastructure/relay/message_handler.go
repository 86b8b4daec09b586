package relay

import (
	"encoding/json"

	"gigmarket/internal/domain/entity"
	"gigmarket/internal/infrastructure/realtime"
	"gigmarket/pkg/logger"
)

// HandleClientMessage processes one incoming frame from a client.
func (m *Manager) HandleClientMessage(client *Client, payload []byte) {
	var frame realtime.WSMessage
	if err := json.Unmarshal(payload, &frame); err != nil {
		logger.Warn("Relay: malformed frame from %s: %v", client.UserID, err)
		m.sendErrorToClient(client, "Invalid message format")
		return
	}

	switch frame.Type {
	case realtime.EventPing:
		m.handlePing(client)

	case realtime.EventJoinConversation:
		m.handleJoin(client, frame.Data)

	case realtime.EventLeaveConversation:
		m.handleLeave(client, frame.Data)

	case realtime.EventSendMessage:
		m.handleSendMessage(client, frame.Data)

	default:
		logger.Debug("Relay: unknown frame type %q from %s", frame.Type, client.UserID)
		m.sendErrorToClient(client, "Unknown message type")
	}
}

func (m *Manager) handlePing(client *Client) {
	m.sendToClient(client, realtime.EventPong, map[string]string{"status": "alive"})
}

func (m *Manager) handleJoin(client *Client, data json.RawMessage) {
	var room realtime.RoomData
	if err := json.Unmarshal(data, &room); err != nil || room.ConversationID == "" {
		m.sendErrorToClient(client, "Missing conversation_id")
		return
	}

	m.JoinRoom(room.ConversationID, client)
	logger.Debug("Relay: client %s joined room %s", client.UserID, room.ConversationID)
}

func (m *Manager) handleLeave(client *Client, data json.RawMessage) {
	var room realtime.RoomData
	if err := json.Unmarshal(data, &room); err != nil || room.ConversationID == "" {
		m.sendErrorToClient(client, "Missing conversation_id")
		return
	}

	m.LeaveRoom(room.ConversationID, client)
	logger.Debug("Relay: client %s left room %s", client.UserID, room.ConversationID)
}

// handleSendMessage rebroadcasts an already-persisted message to its room.
// The relay does not persist anything; a frame without a server-assigned id
// is refused.
func (m *Manager) handleSendMessage(client *Client, data json.RawMessage) {
	var msg entity.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		m.sendErrorToClient(client, "Invalid message payload")
		return
	}

	if msg.ID == "" || msg.ConversationID == "" {
		m.sendErrorToClient(client, "Message must be persisted before broadcast")
		return
	}

	frame, err := realtime.NewWSMessage(realtime.EventReceiveMessage, &msg)
	if err != nil {
		logger.Error("Relay: failed to encode broadcast: %v", err)
		return
	}
	payload, err := json.Marshal(frame)
	if err != nil {
		logger.Error("Relay: failed to encode broadcast: %v", err)
		return
	}

	m.BroadcastToRoom(msg.ConversationID, payload)
	logger.Debug("Relay: message %s from %s broadcast to room %s", msg.ID, client.UserID, msg.ConversationID)
}

func (m *Manager) sendToClient(client *Client, eventType string, data interface{}) {
	frame, err := realtime.NewWSMessage(eventType, data)
	if err != nil {
		logger.Error("Relay: failed to encode frame for %s: %v", client.UserID, err)
		return
	}
	payload, err := json.Marshal(frame)
	if err != nil {
		logger.Error("Relay: failed to encode frame for %s: %v", client.UserID, err)
		return
	}

	select {
	case client.Send <- payload:
	default:
		logger.Warn("Relay: client %s send buffer full, disconnecting", client.UserID)
		m.Unregister <- client
	}
}

func (m *Manager) sendErrorToClient(client *Client, message string) {
	m.sendToClient(client, realtime.EventError, map[string]string{
		"error":   message,
		"user_id": client.UserID,
	})
}
