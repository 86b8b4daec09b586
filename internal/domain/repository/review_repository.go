package repository

import (
	"context"

	"gigmarket/internal/domain/entity"
)

type CreateReviewInput struct {
	OrderID string
	Rating  int
	Comment string
}

type ReviewRepository interface {
	Create(ctx context.Context, input CreateReviewInput) (*entity.Review, error)
	GetByOrderID(ctx context.Context, orderID string) (*entity.Review, error)
	ListByGig(ctx context.Context, gigID string, page, pageSize int) ([]*entity.Review, int64, error)
}
