package entity

import "time"

// OrderStatus values use the backend's wire strings, including the space in
// "In Progress".
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusInProgress OrderStatus = "In Progress"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCompleted  OrderStatus = "Completed"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// Actor roles relative to an order.
const (
	RoleClient     = "client"
	RoleFreelancer = "freelancer"
)

type Order struct {
	ID             string      `json:"id"`
	GigID          string      `json:"gig_id"`
	ClientID       string      `json:"client_id"`
	FreelancerID   string      `json:"freelancer_id"`
	ConversationID string      `json:"conversation_id,omitempty"` // set lazily on first message exchange
	Status         OrderStatus `json:"status"`
	Amount         float64     `json:"amount"`
	Requirements   string      `json:"requirements,omitempty"`
	DeliveryDate   time.Time   `json:"delivery_date"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// validTransitions is the order lifecycle: a single forward path
// Pending -> In Progress -> Delivered -> Completed, with Cancelled reachable
// from every non-terminal status. Completed and Cancelled are terminal.
// The roles are the actors allowed to request the transition; the backend
// performs the authoritative check, this table is the advisory client guard.
var validTransitions = map[OrderStatus]map[OrderStatus][]string{
	OrderStatusPending: {
		OrderStatusInProgress: {RoleFreelancer},
		OrderStatusCancelled:  {RoleClient, RoleFreelancer},
	},
	OrderStatusInProgress: {
		OrderStatusDelivered: {RoleFreelancer},
		OrderStatusCancelled: {RoleClient, RoleFreelancer},
	},
	OrderStatusDelivered: {
		OrderStatusCompleted: {RoleClient},
		OrderStatusCancelled: {RoleClient, RoleFreelancer},
	},
}

// IsValidStatus reports whether s is one of the five known statuses.
func IsValidStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusInProgress, OrderStatusDelivered,
		OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves the status.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// CanTransition reports whether the given actor role may move an order from
// s to next.
func (s OrderStatus) CanTransition(next OrderStatus, role string) bool {
	roles, ok := validTransitions[s][next]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// ChatLocked reports whether the order's conversation is closed to new
// messages: before the freelancer accepts the work and after cancellation.
// In Progress, Delivered and Completed all permit chat, so post-delivery
// discussion stays possible.
func (o *Order) ChatLocked() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusCancelled
}

// RoleOf returns the actor role userID plays on this order, or "" when the
// user is not a participant.
func (o *Order) RoleOf(userID string) string {
	switch userID {
	case o.ClientID:
		return RoleClient
	case o.FreelancerID:
		return RoleFreelancer
	}
	return ""
}
