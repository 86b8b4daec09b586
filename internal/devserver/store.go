package devserver

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"gigmarket/internal/domain/entity"
)

// Store is the dev server's in-memory state. It is non-durable on purpose:
// the dev server exists for local work and integration tests, not as a
// persistence engine.
type Store struct {
	mu            sync.RWMutex
	users         map[string]*entity.User
	gigs          map[string]*entity.Gig
	gigIDs        []string
	orders        map[string]*entity.Order
	orderIDs      []string
	conversations map[string]*entity.Conversation
	convByOrder   map[string]string
	messages      map[string][]*entity.Message
	reviews       map[string]*entity.Review // keyed by order id
}

func NewStore() *Store {
	return &Store{
		users:         make(map[string]*entity.User),
		gigs:          make(map[string]*entity.Gig),
		orders:        make(map[string]*entity.Order),
		conversations: make(map[string]*entity.Conversation),
		convByOrder:   make(map[string]string),
		messages:      make(map[string][]*entity.Message),
		reviews:       make(map[string]*entity.Review),
	}
}

func (s *Store) UpsertUser(user *entity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.users[user.ID] = user
}

func (s *Store) GetUser(id string) (*entity.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	return user, ok
}

func (s *Store) CreateGig(gig *entity.Gig) *entity.Gig {
	s.mu.Lock()
	defer s.mu.Unlock()
	gig.ID = uuid.NewString()
	now := time.Now().UTC()
	gig.CreatedAt = now
	gig.UpdatedAt = now
	s.gigs[gig.ID] = gig
	s.gigIDs = append(s.gigIDs, gig.ID)
	return gig
}

func (s *Store) GetGig(id string) (*entity.Gig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	gig, ok := s.gigs[id]
	return gig, ok
}

type GigQuery struct {
	Category string
	Search   string
	MinPrice float64
	MaxPrice float64
}

func (s *Store) ListGigs(q GigQuery, offset, limit int) ([]*entity.Gig, int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*entity.Gig, 0, len(s.gigIDs))
	for _, id := range s.gigIDs {
		gig := s.gigs[id]
		if q.Category != "" && gig.Category != q.Category {
			continue
		}
		if q.Search != "" && !strings.Contains(strings.ToLower(gig.Title), strings.ToLower(q.Search)) {
			continue
		}
		if q.MinPrice > 0 && gig.Price < q.MinPrice {
			continue
		}
		if q.MaxPrice > 0 && gig.Price > q.MaxPrice {
			continue
		}
		matched = append(matched, gig)
	}

	return window(matched, offset, limit), int64(len(matched))
}

func (s *Store) CreateOrder(order *entity.Order) *entity.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	order.ID = uuid.NewString()
	order.Status = entity.OrderStatusPending
	now := time.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now
	s.orders[order.ID] = order
	s.orderIDs = append(s.orderIDs, order.ID)
	return order
}

func (s *Store) GetOrder(id string) (*entity.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.orders[id]
	return order, ok
}

func (s *Store) ListOrdersFor(userID, role string, offset, limit int) ([]*entity.Order, int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*entity.Order, 0)
	for _, id := range s.orderIDs {
		order := s.orders[id]
		if role == entity.RoleClient && order.ClientID != userID {
			continue
		}
		if role == entity.RoleFreelancer && order.FreelancerID != userID {
			continue
		}
		matched = append(matched, order)
	}

	return window(matched, offset, limit), int64(len(matched))
}

func (s *Store) SetOrderStatus(id string, status entity.OrderStatus) (*entity.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, false
	}
	order.Status = status
	order.UpdatedAt = time.Now().UTC()
	return order, true
}

// ResolveConversation accepts either a conversation id or an order id and
// returns the canonical conversation, when one exists.
func (s *Store) ResolveConversation(identifier string) (*entity.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if conv, ok := s.conversations[identifier]; ok {
		return conv, true
	}
	if convID, ok := s.convByOrder[identifier]; ok {
		return s.conversations[convID], true
	}
	return nil, false
}

// EnsureConversation returns the order's conversation, creating it on first
// use and recording the canonical id on the order.
func (s *Store) EnsureConversation(order *entity.Order) *entity.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	if convID, ok := s.convByOrder[order.ID]; ok {
		return s.conversations[convID]
	}

	now := time.Now().UTC()
	conv := &entity.Conversation{
		ID:           uuid.NewString(),
		OrderID:      order.ID,
		Participants: []string{order.ClientID, order.FreelancerID},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.conversations[conv.ID] = conv
	s.convByOrder[order.ID] = conv.ID
	if stored, ok := s.orders[order.ID]; ok {
		stored.ConversationID = conv.ID
	}
	return conv
}

func (s *Store) AppendMessage(msg *entity.Message) *entity.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg.ID = uuid.NewString()
	msg.CreatedAt = time.Now().UTC()
	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], msg)
	if conv, ok := s.conversations[msg.ConversationID]; ok {
		conv.UpdatedAt = msg.CreatedAt
	}
	return msg
}

func (s *Store) MessagesFor(conversationID string) []*entity.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.messages[conversationID]
	out := make([]*entity.Message, len(stored))
	copy(out, stored)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *Store) CreateReview(review *entity.Review) (*entity.Review, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.reviews[review.OrderID]; exists {
		return nil, false
	}
	review.ID = uuid.NewString()
	review.CreatedAt = time.Now().UTC()
	s.reviews[review.OrderID] = review
	return review, true
}

func (s *Store) GetReviewByOrder(orderID string) (*entity.Review, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	review, ok := s.reviews[orderID]
	return review, ok
}

func (s *Store) ListReviewsByGig(gigID string, offset, limit int) ([]*entity.Review, int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*entity.Review, 0)
	for _, review := range s.reviews {
		if review.GigID == gigID {
			matched = append(matched, review)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	return window(matched, offset, limit), int64(len(matched))
}

func window[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
