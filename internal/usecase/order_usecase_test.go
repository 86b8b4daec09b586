package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigmarket/internal/domain/entity"
	"gigmarket/internal/domain/repository"
	"gigmarket/internal/infrastructure/session"
	"gigmarket/pkg/errors"
)

// newTestSession returns a session signed in as userID with the given role.
func newTestSession(t *testing.T, userID, role string) *session.Session {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID,
		"name": "Test User",
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	sess := session.New()
	require.NoError(t, sess.Set(signed))
	return sess
}

type fakeOrderRepo struct {
	updateCalls int
	updateFunc  func(id string, status entity.OrderStatus) (*entity.Order, error)
	getFunc     func(id string) (*entity.Order, error)
}

func (r *fakeOrderRepo) Create(ctx context.Context, input repository.CreateOrderInput) (*entity.Order, error) {
	return &entity.Order{ID: "order-1", GigID: input.GigID, Status: entity.OrderStatusPending}, nil
}

func (r *fakeOrderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	if r.getFunc != nil {
		return r.getFunc(id)
	}
	return nil, errors.NotFound("Order", nil)
}

func (r *fakeOrderRepo) ListByClient(ctx context.Context, page, pageSize int) ([]*entity.Order, int64, error) {
	return nil, 0, nil
}

func (r *fakeOrderRepo) ListByFreelancer(ctx context.Context, page, pageSize int) ([]*entity.Order, int64, error) {
	return nil, 0, nil
}

func (r *fakeOrderRepo) UpdateStatus(ctx context.Context, id string, status entity.OrderStatus) (*entity.Order, error) {
	r.updateCalls++
	if r.updateFunc != nil {
		return r.updateFunc(id, status)
	}
	return &entity.Order{ID: id, Status: status}, nil
}

func pendingOrder() *entity.Order {
	return &entity.Order{
		ID:           "order-1",
		ClientID:     "client-1",
		FreelancerID: "freelancer-1",
		Status:       entity.OrderStatusPending,
	}
}

func TestUpdateStatusAcceptFlipsChatLock(t *testing.T) {
	repo := &fakeOrderRepo{}
	uc := NewOrderUseCase(repo, newTestSession(t, "freelancer-1", entity.RoleFreelancer))

	order := pendingOrder()
	assert.True(t, order.ChatLocked())

	updated, err := uc.UpdateStatus(context.Background(), order, entity.OrderStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusInProgress, updated.Status)
	assert.False(t, updated.ChatLocked())
	assert.Equal(t, 1, repo.updateCalls)
}

func TestUpdateStatusIllegalTransitionSkipsNetwork(t *testing.T) {
	repo := &fakeOrderRepo{}
	uc := NewOrderUseCase(repo, newTestSession(t, "client-1", entity.RoleClient))

	// A client may not accept their own order.
	_, err := uc.UpdateStatus(context.Background(), pendingOrder(), entity.OrderStatusInProgress)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "ILLEGAL_TRANSITION"))
	assert.Equal(t, 0, repo.updateCalls, "a locally rejected transition must not reach the repository")

	// Completed is terminal for everyone.
	done := pendingOrder()
	done.Status = entity.OrderStatusCompleted
	_, err = uc.UpdateStatus(context.Background(), done, entity.OrderStatusCancelled)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "ILLEGAL_TRANSITION"))
	assert.Equal(t, 0, repo.updateCalls)
}

func TestUpdateStatusUnknownStatus(t *testing.T) {
	repo := &fakeOrderRepo{}
	uc := NewOrderUseCase(repo, newTestSession(t, "client-1", entity.RoleClient))

	_, err := uc.UpdateStatus(context.Background(), pendingOrder(), "Archived")
	require.Error(t, err)
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
	assert.Equal(t, 0, repo.updateCalls)
}

func TestUpdateStatusNonParticipant(t *testing.T) {
	repo := &fakeOrderRepo{}
	uc := NewOrderUseCase(repo, newTestSession(t, "stranger-1", entity.RoleClient))

	_, err := uc.UpdateStatus(context.Background(), pendingOrder(), entity.OrderStatusCancelled)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "FORBIDDEN"))
	assert.Equal(t, 0, repo.updateCalls)
}

func TestUpdateStatusSignedOut(t *testing.T) {
	repo := &fakeOrderRepo{}
	uc := NewOrderUseCase(repo, session.New())

	_, err := uc.UpdateStatus(context.Background(), pendingOrder(), entity.OrderStatusCancelled)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "UNAUTHORIZED"))
	assert.Equal(t, 0, repo.updateCalls)
}

func TestUpdateStatusBackendRefusalKeepsSnapshot(t *testing.T) {
	repo := &fakeOrderRepo{
		updateFunc: func(id string, status entity.OrderStatus) (*entity.Order, error) {
			// Stale client snapshot: the backend already moved the order on.
			return nil, errors.Conflict("Order is no longer Pending")
		},
	}
	uc := NewOrderUseCase(repo, newTestSession(t, "freelancer-1", entity.RoleFreelancer))

	order := pendingOrder()
	updated, err := uc.UpdateStatus(context.Background(), order, entity.OrderStatusInProgress)
	require.Error(t, err)
	assert.Nil(t, updated)
	assert.True(t, errors.Is(err, "TRANSITION_REJECTED"))
	// The caller's snapshot is untouched on failure.
	assert.Equal(t, entity.OrderStatusPending, order.Status)
}

func TestUpdateStatusPassesThroughBackendCodes(t *testing.T) {
	for _, code := range []string{"TRANSITION_REJECTED", "UNAUTHORIZED", "NOT_FOUND", "INTERNAL_ERROR"} {
		repo := &fakeOrderRepo{
			updateFunc: func(id string, status entity.OrderStatus) (*entity.Order, error) {
				return nil, errors.New(code, "backend said no", 400, nil)
			},
		}
		uc := NewOrderUseCase(repo, newTestSession(t, "freelancer-1", entity.RoleFreelancer))

		_, err := uc.UpdateStatus(context.Background(), pendingOrder(), entity.OrderStatusInProgress)
		require.Error(t, err)
		assert.True(t, errors.Is(err, code), "code %s must pass through unchanged", code)
	}
}

func TestPlaceOrderValidation(t *testing.T) {
	uc := NewOrderUseCase(&fakeOrderRepo{}, newTestSession(t, "client-1", entity.RoleClient))

	_, err := uc.PlaceOrder(context.Background(), PlaceOrderInput{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "BAD_REQUEST"))

	order, err := uc.PlaceOrder(context.Background(), PlaceOrderInput{GigID: "gig-1"})
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusPending, order.Status)
}
