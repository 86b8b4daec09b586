package usecase

import (
	"context"
	stderrors "errors"

	"github.com/go-playground/validator/v10"

	"gigmarket/internal/domain/entity"
	"gigmarket/internal/domain/repository"
	"gigmarket/internal/infrastructure/session"
	"gigmarket/pkg/errors"
	"gigmarket/pkg/logger"
)

type OrderUseCase struct {
	orderRepo repository.OrderRepository
	session   *session.Session
	validate  *validator.Validate
}

func NewOrderUseCase(orderRepo repository.OrderRepository, sess *session.Session) *OrderUseCase {
	return &OrderUseCase{
		orderRepo: orderRepo,
		session:   sess,
		validate:  validator.New(),
	}
}

type PlaceOrderInput struct {
	GigID        string `validate:"required"`
	Requirements string `validate:"max=2000"`
}

// PlaceOrder creates a new order for a gig. New orders always start Pending.
func (uc *OrderUseCase) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*entity.Order, error) {
	if uc.session.Identity() == nil {
		return nil, errors.Unauthorized("Sign in to place an order", nil)
	}

	if err := uc.validate.Struct(input); err != nil {
		return nil, errors.BadRequest("Invalid order input", err)
	}

	order, err := uc.orderRepo.Create(ctx, repository.CreateOrderInput{
		GigID:        input.GigID,
		Requirements: input.Requirements,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Order %s placed for gig %s", order.ID, order.GigID)
	return order, nil
}

func (uc *OrderUseCase) GetOrder(ctx context.Context, id string) (*entity.Order, error) {
	if id == "" {
		return nil, errors.BadRequest("Order id is required", nil)
	}
	return uc.orderRepo.GetByID(ctx, id)
}

func (uc *OrderUseCase) ListClientOrders(ctx context.Context, page, pageSize int) ([]*entity.Order, int64, error) {
	return uc.orderRepo.ListByClient(ctx, page, pageSize)
}

func (uc *OrderUseCase) ListFreelancerOrders(ctx context.Context, page, pageSize int) ([]*entity.Order, int64, error) {
	return uc.orderRepo.ListByFreelancer(ctx, page, pageSize)
}

// ChatLocked derives whether the order's conversation accepts new messages.
func (uc *OrderUseCase) ChatLocked(order *entity.Order) bool {
	return order.ChatLocked()
}

// UpdateStatus moves an order through its lifecycle. The transition table is
// checked locally first, as the signed-in participant's role, so a doomed
// request never reaches the network; the backend remains the authority and
// its refusals are surfaced as TRANSITION_REJECTED. On any failure the prior
// snapshot is left untouched.
func (uc *OrderUseCase) UpdateStatus(ctx context.Context, order *entity.Order, newStatus entity.OrderStatus) (*entity.Order, error) {
	identity := uc.session.Identity()
	if identity == nil {
		return nil, errors.Unauthorized("Sign in to update an order", nil)
	}
	if order == nil {
		return nil, errors.BadRequest("Order is required", nil)
	}

	if !entity.IsValidStatus(newStatus) {
		return nil, errors.BadRequest("Unknown order status", nil)
	}

	role := order.RoleOf(identity.UserID)
	if role == "" {
		return nil, errors.Forbidden("Only the order's participants can update it", nil)
	}

	if !order.Status.CanTransition(newStatus, role) {
		return nil, errors.IllegalTransition(string(order.Status), string(newStatus))
	}

	updated, err := uc.orderRepo.UpdateStatus(ctx, order.ID, newStatus)
	if err != nil {
		return nil, uc.classifyTransitionError(order, newStatus, err)
	}

	logger.Info("Order %s moved from %s to %s by %s", order.ID, order.Status, updated.Status, role)
	return updated, nil
}

// classifyTransitionError separates backend refusals (the authoritative check
// failing, e.g. a stale local snapshot) from transport-level failures.
func (uc *OrderUseCase) classifyTransitionError(order *entity.Order, newStatus entity.OrderStatus, err error) error {
	for _, passthrough := range []string{"TRANSITION_REJECTED", "UNAUTHORIZED", "NOT_FOUND", "INTERNAL_ERROR"} {
		if errors.Is(err, passthrough) {
			return err
		}
	}

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		logger.LogOrderError(order.ID, "transition to "+string(newStatus), err)
		return errors.TransitionRejected(appErr.Message, err)
	}
	return err
}
