package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var allStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusInProgress,
	OrderStatusDelivered,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

func TestCanTransition(t *testing.T) {
	allowed := map[[3]string]bool{
		{"Pending", "In Progress", RoleFreelancer}: true,
		{"Pending", "Cancelled", RoleClient}:       true,
		{"Pending", "Cancelled", RoleFreelancer}:   true,

		{"In Progress", "Delivered", RoleFreelancer}: true,
		{"In Progress", "Cancelled", RoleClient}:     true,
		{"In Progress", "Cancelled", RoleFreelancer}: true,

		{"Delivered", "Completed", RoleClient}:     true,
		{"Delivered", "Cancelled", RoleClient}:     true,
		{"Delivered", "Cancelled", RoleFreelancer}: true,
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			for _, role := range []string{RoleClient, RoleFreelancer} {
				want := allowed[[3]string{string(from), string(to), role}]
				got := from.CanTransition(to, role)
				assert.Equal(t, want, got, "%s -> %s as %s", from, to, role)
			}
		}
	}
}

func TestCanTransitionRejectsUnknownInput(t *testing.T) {
	assert.False(t, OrderStatusPending.CanTransition("Archived", RoleClient))
	assert.False(t, OrderStatus("Draft").CanTransition(OrderStatusInProgress, RoleFreelancer))
	assert.False(t, OrderStatusPending.CanTransition(OrderStatusInProgress, "admin"))
	assert.False(t, OrderStatusPending.CanTransition(OrderStatusInProgress, ""))
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	for _, from := range []OrderStatus{OrderStatusCompleted, OrderStatusCancelled} {
		assert.True(t, from.IsTerminal())
		for _, to := range allStatuses {
			for _, role := range []string{RoleClient, RoleFreelancer} {
				assert.False(t, from.CanTransition(to, role), "%s must be terminal", from)
			}
		}
	}
	assert.False(t, OrderStatusPending.IsTerminal())
	assert.False(t, OrderStatusInProgress.IsTerminal())
	assert.False(t, OrderStatusDelivered.IsTerminal())
}

func TestSelfTransitionsNeverAllowed(t *testing.T) {
	for _, s := range allStatuses {
		assert.False(t, s.CanTransition(s, RoleClient))
		assert.False(t, s.CanTransition(s, RoleFreelancer))
	}
}

func TestIsValidStatus(t *testing.T) {
	for _, s := range allStatuses {
		assert.True(t, IsValidStatus(s))
	}
	assert.False(t, IsValidStatus("pending"))
	assert.False(t, IsValidStatus("InProgress"))
	assert.False(t, IsValidStatus(""))
}

func TestChatLocked(t *testing.T) {
	locked := map[OrderStatus]bool{
		OrderStatusPending:    true,
		OrderStatusInProgress: false,
		OrderStatusDelivered:  false,
		OrderStatusCompleted:  false,
		OrderStatusCancelled:  true,
	}
	for status, want := range locked {
		order := &Order{Status: status}
		assert.Equal(t, want, order.ChatLocked(), "status %s", status)
	}
}

func TestRoleOf(t *testing.T) {
	order := &Order{ClientID: "user-1", FreelancerID: "user-2"}
	assert.Equal(t, RoleClient, order.RoleOf("user-1"))
	assert.Equal(t, RoleFreelancer, order.RoleOf("user-2"))
	assert.Equal(t, "", order.RoleOf("user-3"))
}
