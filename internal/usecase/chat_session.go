package usecase

import (
	"context"
	"sort"
	"sync"

	"gigmarket/internal/domain/entity"
	"gigmarket/internal/domain/repository"
	"gigmarket/pkg/errors"
	"gigmarket/pkg/logger"
)

// Chat session states. A session moves unbound -> loading -> bound -> closed;
// the room join happens only on the loading -> bound transition, with the
// conversation id the history fetch resolved.
const (
	chatStateUnbound = "unbound"
	chatStateLoading = "loading"
	chatStateBound   = "bound"
	chatStateClosed  = "closed"
)

// ChatSession presents a single deduplicated, time-ordered message feed for
// one order's conversation, merging REST-fetched history with realtime
// broadcasts. One session per mounted chat view.
type ChatSession struct {
	messageRepo repository.MessageRepository
	channel     repository.RealtimeChannel

	mu             sync.Mutex
	order          *entity.Order
	state          string
	conversationID string
	joinedRoom     string
	feed           []*entity.Message
	seen           map[string]struct{}
	sending        bool
	detachReceive  func()
	onUpdate       func()
}

func newChatSession(messageRepo repository.MessageRepository, channel repository.RealtimeChannel, order *entity.Order) *ChatSession {
	return &ChatSession{
		messageRepo: messageRepo,
		channel:     channel,
		order:       order,
		state:       chatStateUnbound,
		seen:        make(map[string]struct{}),
	}
}

// bind runs the loading phase: history fetch, identifier resolution, room
// join. Called once by ChatUseCase.BindChat.
func (s *ChatSession) bind(ctx context.Context) error {
	s.mu.Lock()
	s.state = chatStateLoading
	identifier := s.order.ConversationID
	if identifier == "" {
		identifier = s.order.ID
	}
	s.mu.Unlock()

	messages, conversationID, err := s.messageRepo.History(ctx, identifier)
	if err != nil {
		s.mu.Lock()
		s.state = chatStateUnbound
		s.mu.Unlock()
		return errors.HistoryUnavailable(err)
	}

	s.mu.Lock()
	s.conversationID = conversationID
	for _, msg := range messages {
		if _, dup := s.seen[msg.ID]; dup {
			continue
		}
		s.seen[msg.ID] = struct{}{}
		s.insertLocked(msg)
	}
	s.state = chatStateBound
	s.mu.Unlock()

	// Subscribe before joining so no broadcast slips between the two.
	detach := s.channel.OnReceive(s.handleReceive)
	s.mu.Lock()
	s.detachReceive = detach
	s.mu.Unlock()

	if conversationID != "" {
		if err := s.joinRoom(ctx, conversationID); err != nil {
			s.Close()
			return err
		}
	}

	return nil
}

// joinRoom subscribes to the resolved conversation's room, leaving any
// previously joined room so a stale alias never receives this session's
// attention again.
func (s *ChatSession) joinRoom(ctx context.Context, roomID string) error {
	s.mu.Lock()
	previous := s.joinedRoom
	s.joinedRoom = roomID
	s.mu.Unlock()

	if previous != "" && previous != roomID {
		if err := s.channel.Leave(ctx, previous); err != nil {
			logger.Warn("Chat: failed to leave stale room %s: %v", previous, err)
		}
	}

	return s.channel.Join(ctx, roomID)
}

// Send persists a message and then broadcasts the persisted copy, appending
// it to the local feed immediately rather than waiting for the echo. The
// local guard refuses empty payloads, locked chats and unbound sessions
// before any network call; a persistence failure means nothing is broadcast
// and nothing is appended.
func (s *ChatSession) Send(ctx context.Context, content string, attachment *repository.Attachment) (*entity.Message, error) {
	s.mu.Lock()
	switch {
	case s.state == chatStateClosed:
		s.mu.Unlock()
		return nil, errors.SendRejected("Chat session is closed")
	case s.state != chatStateBound:
		s.mu.Unlock()
		return nil, errors.SendRejected("Chat session is not bound")
	case s.order.ChatLocked():
		s.mu.Unlock()
		return nil, errors.SendRejected("Chat is locked for this order status")
	case content == "" && attachment == nil:
		s.mu.Unlock()
		return nil, errors.SendRejected("Message requires content or an attachment")
	}

	target := s.conversationID
	if target == "" {
		// Conversation not created yet; the server resolves the order id.
		target = s.order.ID
	}
	s.sending = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.sending = false
		s.mu.Unlock()
	}()

	msg, err := s.messageRepo.Create(ctx, target, repository.MessageDraft{
		Content:    content,
		Attachment: attachment,
	})
	if err != nil {
		return nil, errors.SendFailed(err)
	}

	s.mu.Lock()
	if s.state == chatStateClosed {
		// The view unmounted while the request was in flight. The message
		// is persisted, but nothing observable may change and a dead
		// session never broadcasts.
		s.mu.Unlock()
		return msg, nil
	}

	rejoin := msg.ConversationID != "" && msg.ConversationID != s.conversationID
	if rejoin {
		s.conversationID = msg.ConversationID
	}
	room := s.conversationID

	if _, dup := s.seen[msg.ID]; !dup {
		s.seen[msg.ID] = struct{}{}
		s.insertLocked(msg)
	}
	cb := s.onUpdate
	s.mu.Unlock()

	if cb != nil {
		cb()
	}

	if rejoin {
		if err := s.joinRoom(ctx, room); err != nil {
			logger.Warn("Chat: failed to join room %s: %v", room, err)
		}
	}

	if err := s.channel.Emit(ctx, room, msg); err != nil {
		// Persisted but not broadcast; the recipient reconciles on their
		// next history fetch.
		logger.Warn("Chat: broadcast of message %s failed: %v", msg.ID, err)
	}

	return msg, nil
}

// handleReceive is invoked for every broadcast on the channel, including this
// client's own echoes. Echoes and cross-room traffic are discarded; anything
// new lands in timestamp order.
func (s *ChatSession) handleReceive(msg *entity.Message) {
	s.mu.Lock()
	if s.state != chatStateBound {
		s.mu.Unlock()
		return
	}
	if msg.ConversationID == "" || msg.ConversationID != s.conversationID {
		s.mu.Unlock()
		return
	}
	if _, dup := s.seen[msg.ID]; dup {
		s.mu.Unlock()
		return
	}
	s.seen[msg.ID] = struct{}{}
	s.insertLocked(msg)
	cb := s.onUpdate
	s.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// insertLocked places msg by CreatedAt; equal timestamps keep arrival order
// so the feed stays append-stable.
func (s *ChatSession) insertLocked(msg *entity.Message) {
	i := sort.Search(len(s.feed), func(i int) bool {
		return s.feed[i].CreatedAt.After(msg.CreatedAt)
	})
	s.feed = append(s.feed, nil)
	copy(s.feed[i+1:], s.feed[i:])
	s.feed[i] = msg
}

// Messages returns a snapshot of the ordered feed.
func (s *ChatSession) Messages() []*entity.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.Message, len(s.feed))
	copy(out, s.feed)
	return out
}

// OnUpdate registers a callback invoked after every feed change.
func (s *ChatSession) OnUpdate(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onUpdate = fn
}

// ConversationID returns the canonical conversation id, or "" while the
// conversation does not exist yet.
func (s *ChatSession) ConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

func (s *ChatSession) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Sending reports whether a send is in flight, so callers can disable the
// send affordance. It is a soft guard: the backend assigns the authoritative
// message order either way.
func (s *ChatSession) Sending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sending
}

// UpdateOrder replaces the order snapshot after a status transition so the
// chat lock derivation follows the new status.
func (s *ChatSession) UpdateOrder(order *entity.Order) {
	if order == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = order
}

// Close tears the session down: the room subscription is released, the
// receive handler detached and the dedup set cleared. In-flight operations
// may complete but their results are discarded.
func (s *ChatSession) Close() {
	s.mu.Lock()
	if s.state == chatStateClosed {
		s.mu.Unlock()
		return
	}
	s.state = chatStateClosed
	room := s.joinedRoom
	s.joinedRoom = ""
	detach := s.detachReceive
	s.detachReceive = nil
	s.seen = make(map[string]struct{})
	s.mu.Unlock()

	if detach != nil {
		detach()
	}
	if room != "" {
		if err := s.channel.Leave(context.Background(), room); err != nil {
			logger.Warn("Chat: failed to leave room %s on close: %v", room, err)
		}
	}
}
