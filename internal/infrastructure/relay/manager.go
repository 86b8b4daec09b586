package relay

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"

	"gigmarket/pkg/logger"
)

// Client represents one websocket connection to the relay.
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte

	rooms map[string]struct{}
}

func NewClient(userID string, conn *websocket.Conn) *Client {
	return &Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		rooms:  make(map[string]struct{}),
	}
}

// Manager fans room broadcasts out to the connections that joined each room.
// A room is one conversation; membership is per-connection, so two tabs of
// the same user are independent subscribers.
type Manager struct {
	clients    map[*Client]struct{}
	rooms      map[string]map[*Client]struct{}
	Register   chan *Client
	Unregister chan *Client
	mutex      sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[*Client]struct{}),
		rooms:      make(map[string]map[*Client]struct{}),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Start runs the manager's registration loop in a goroutine.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				m.clients[client] = struct{}{}
				m.mutex.Unlock()
				logger.Debug("Relay: client registered: %s", client.UserID)

			case client := <-m.Unregister:
				m.mutex.Lock()
				if _, ok := m.clients[client]; ok {
					m.removeFromAllRoomsLocked(client)
					delete(m.clients, client)
					close(client.Send)
				}
				m.mutex.Unlock()
				logger.Debug("Relay: client unregistered: %s", client.UserID)

			case <-ctx.Done():
				return
			}
		}
	}()
}

func (m *Manager) JoinRoom(roomID string, client *Client) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := m.rooms[roomID]; !ok {
		m.rooms[roomID] = make(map[*Client]struct{})
	}
	m.rooms[roomID][client] = struct{}{}
	client.rooms[roomID] = struct{}{}
}

func (m *Manager) LeaveRoom(roomID string, client *Client) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.leaveRoomLocked(roomID, client)
}

func (m *Manager) leaveRoomLocked(roomID string, client *Client) {
	if members, ok := m.rooms[roomID]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(m.rooms, roomID)
		}
	}
	delete(client.rooms, roomID)
}

func (m *Manager) removeFromAllRoomsLocked(client *Client) {
	for roomID := range client.rooms {
		m.leaveRoomLocked(roomID, client)
	}
}

// BroadcastToRoom delivers payload to every connection in the room, the
// sender included: the self-echo is the client's confirmation path and the
// client deduplicates it by message id.
func (m *Manager) BroadcastToRoom(roomID string, payload []byte) {
	m.mutex.RLock()
	members := make([]*Client, 0, len(m.rooms[roomID]))
	for client := range m.rooms[roomID] {
		members = append(members, client)
	}
	m.mutex.RUnlock()

	for _, client := range members {
		select {
		case client.Send <- payload:
		default:
			logger.Warn("Relay: client %s send buffer full, disconnecting", client.UserID)
			m.Unregister <- client
		}
	}
}

// ReadPump reads frames from the connection and hands them to the manager.
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.Unregister <- c
		c.Conn.Close()
	}()

	for {
		_, payload, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Warn("Relay: read error from %s: %v", c.UserID, err)
			}
			break
		}

		m.HandleClientMessage(c, payload)
	}
}

// WritePump sends queued frames to the connection.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		payload, ok := <-c.Send
		if !ok {
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			logger.Warn("Relay: write error to %s: %v", c.UserID, err)
			return
		}
	}
}
