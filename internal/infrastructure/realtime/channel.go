package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"gigmarket/internal/domain/entity"
	"gigmarket/internal/domain/repository"
	"gigmarket/pkg/errors"
	"gigmarket/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Channel is the client end of the realtime relay: one physical websocket
// connection backing any number of logical room subscriptions. It implements
// repository.RealtimeChannel.
type Channel struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}

	mu                 sync.RWMutex
	joined             map[string]struct{}
	receiveHandlers    map[int]repository.MessageHandler
	disconnectHandlers map[int]func(error)
	nextHandlerID      int
	closed             bool
}

// Dial connects to the relay, authenticating with the bearer token, and
// starts the read/write pumps.
func Dial(ctx context.Context, socketURL, token string) (*Channel, error) {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, socketURL, header)
	if err != nil {
		return nil, errors.Internal("Failed to connect to realtime relay", err)
	}

	ch := &Channel{
		conn:               conn,
		send:               make(chan []byte, 64),
		done:               make(chan struct{}),
		joined:             make(map[string]struct{}),
		receiveHandlers:    make(map[int]repository.MessageHandler),
		disconnectHandlers: make(map[int]func(error)),
	}

	go ch.readPump()
	go ch.writePump()

	return ch, nil
}

// Join subscribes to a room. Joining a room the channel already belongs to is
// a no-op, so delivery is never duplicated.
func (ch *Channel) Join(ctx context.Context, roomID string) error {
	ch.mu.Lock()
	if ch.closed {
		ch.mu.Unlock()
		return errors.Internal("Realtime channel is closed", nil)
	}
	if _, ok := ch.joined[roomID]; ok {
		ch.mu.Unlock()
		return nil
	}
	ch.joined[roomID] = struct{}{}
	ch.mu.Unlock()

	return ch.enqueue(ctx, EventJoinConversation, RoomData{ConversationID: roomID})
}

func (ch *Channel) Leave(ctx context.Context, roomID string) error {
	ch.mu.Lock()
	if ch.closed {
		ch.mu.Unlock()
		return nil
	}
	if _, ok := ch.joined[roomID]; !ok {
		ch.mu.Unlock()
		return nil
	}
	delete(ch.joined, roomID)
	ch.mu.Unlock()

	return ch.enqueue(ctx, EventLeaveConversation, RoomData{ConversationID: roomID})
}

// Emit broadcasts an already-persisted message to the room.
func (ch *Channel) Emit(ctx context.Context, roomID string, msg *entity.Message) error {
	ch.mu.RLock()
	closed := ch.closed
	ch.mu.RUnlock()
	if closed {
		return errors.Internal("Realtime channel is closed", nil)
	}
	if msg.ConversationID == "" {
		msg.ConversationID = roomID
	}
	return ch.enqueue(ctx, EventSendMessage, msg)
}

func (ch *Channel) OnReceive(handler repository.MessageHandler) func() {
	ch.mu.Lock()
	id := ch.nextHandlerID
	ch.nextHandlerID++
	ch.receiveHandlers[id] = handler
	ch.mu.Unlock()

	return func() {
		ch.mu.Lock()
		delete(ch.receiveHandlers, id)
		ch.mu.Unlock()
	}
}

func (ch *Channel) OnDisconnect(handler func(err error)) func() {
	ch.mu.Lock()
	id := ch.nextHandlerID
	ch.nextHandlerID++
	ch.disconnectHandlers[id] = handler
	ch.mu.Unlock()

	return func() {
		ch.mu.Lock()
		delete(ch.disconnectHandlers, id)
		ch.mu.Unlock()
	}
}

func (ch *Channel) Close() error {
	ch.mu.Lock()
	if ch.closed {
		ch.mu.Unlock()
		return nil
	}
	ch.closed = true
	close(ch.done)
	ch.mu.Unlock()

	return ch.conn.Close()
}

func (ch *Channel) enqueue(ctx context.Context, eventType string, data interface{}) error {
	frame, err := NewWSMessage(eventType, data)
	if err != nil {
		return errors.Internal("Failed to encode realtime frame", err)
	}
	payload, err := json.Marshal(frame)
	if err != nil {
		return errors.Internal("Failed to encode realtime frame", err)
	}

	select {
	case ch.send <- payload:
		return nil
	case <-ch.done:
		return errors.Internal("Realtime channel is closed", nil)
	case <-ctx.Done():
		return errors.Internal("Realtime send cancelled", ctx.Err())
	}
}

func (ch *Channel) readPump() {
	var readErr error
	defer func() { ch.dropped(readErr) }()

	ch.conn.SetReadDeadline(time.Now().Add(pongWait))
	ch.conn.SetPongHandler(func(string) error {
		ch.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, payload, err := ch.conn.ReadMessage()
		if err != nil {
			readErr = err
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("Realtime connection dropped: %v", err)
			}
			return
		}

		var frame WSMessage
		if err := json.Unmarshal(payload, &frame); err != nil {
			logger.Warn("Realtime: discarding malformed frame: %v", err)
			continue
		}

		switch frame.Type {
		case EventReceiveMessage:
			var msg entity.Message
			if err := json.Unmarshal(frame.Data, &msg); err != nil {
				logger.Warn("Realtime: discarding malformed message payload: %v", err)
				continue
			}
			ch.dispatch(&msg)

		case EventPong:
			// keepalive reply, nothing to do

		case EventError:
			logger.Warn("Realtime: relay error frame: %s", string(frame.Data))

		default:
			logger.Debug("Realtime: ignoring frame type %q", frame.Type)
		}
	}
}

func (ch *Channel) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ch.conn.Close()
	}()

	for {
		select {
		case payload := <-ch.send:
			ch.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ch.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Warn("Realtime write failed: %v", err)
				return
			}

		case <-ticker.C:
			ch.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ch.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-ch.done:
			ch.conn.SetWriteDeadline(time.Now().Add(writeWait))
			ch.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (ch *Channel) dispatch(msg *entity.Message) {
	ch.mu.RLock()
	handlers := make([]repository.MessageHandler, 0, len(ch.receiveHandlers))
	for _, h := range ch.receiveHandlers {
		handlers = append(handlers, h)
	}
	ch.mu.RUnlock()

	for _, h := range handlers {
		h(msg)
	}
}

func (ch *Channel) dropped(err error) {
	ch.mu.Lock()
	if ch.closed {
		ch.mu.Unlock()
		return
	}
	handlers := make([]func(error), 0, len(ch.disconnectHandlers))
	for _, h := range ch.disconnectHandlers {
		handlers = append(handlers, h)
	}
	ch.mu.Unlock()

	for _, h := range handlers {
		h(err)
	}
}
