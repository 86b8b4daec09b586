package usecase

import (
	"context"

	"github.com/go-playground/validator/v10"

	"gigmarket/internal/domain/entity"
	"gigmarket/internal/domain/repository"
	"gigmarket/internal/infrastructure/session"
	"gigmarket/pkg/errors"
)

type ReviewUseCase struct {
	reviewRepo repository.ReviewRepository
	session    *session.Session
	validate   *validator.Validate
}

func NewReviewUseCase(reviewRepo repository.ReviewRepository, sess *session.Session) *ReviewUseCase {
	return &ReviewUseCase{
		reviewRepo: reviewRepo,
		session:    sess,
		validate:   validator.New(),
	}
}

type SubmitReviewInput struct {
	Rating  int    `validate:"required,min=1,max=5"`
	Comment string `validate:"max=1000"`
}

// SubmitReview leaves a review on a completed order. Only the order's client
// may review, and only once the order is Completed.
func (uc *ReviewUseCase) SubmitReview(ctx context.Context, order *entity.Order, input SubmitReviewInput) (*entity.Review, error) {
	identity := uc.session.Identity()
	if identity == nil {
		return nil, errors.Unauthorized("Sign in to leave a review", nil)
	}
	if order == nil {
		return nil, errors.BadRequest("Review requires an order", nil)
	}
	if order.ClientID != identity.UserID {
		return nil, errors.Forbidden("Only the order's client can leave a review", nil)
	}
	if order.Status != entity.OrderStatusCompleted {
		return nil, errors.BadRequest("Reviews are only allowed on completed orders", nil)
	}

	if err := uc.validate.Struct(input); err != nil {
		return nil, errors.BadRequest("Invalid review input", err)
	}

	return uc.reviewRepo.Create(ctx, repository.CreateReviewInput{
		OrderID: order.ID,
		Rating:  input.Rating,
		Comment: input.Comment,
	})
}

func (uc *ReviewUseCase) GetOrderReview(ctx context.Context, orderID string) (*entity.Review, error) {
	if orderID == "" {
		return nil, errors.BadRequest("Order id is required", nil)
	}
	return uc.reviewRepo.GetByOrderID(ctx, orderID)
}

func (uc *ReviewUseCase) ListGigReviews(ctx context.Context, gigID string, page, pageSize int) ([]*entity.Review, int64, error) {
	return uc.reviewRepo.ListByGig(ctx, gigID, page, pageSize)
}
