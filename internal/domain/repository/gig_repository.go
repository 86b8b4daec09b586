package repository

import (
	"context"

	"gigmarket/internal/domain/entity"
)

type GigFilter struct {
	Category string
	Search   string
	MinPrice float64
	MaxPrice float64
}

type CreateGigInput struct {
	Title        string
	Description  string
	Category     string
	Price        float64
	DeliveryDays int
	Images       []string
}

type GigRepository interface {
	List(ctx context.Context, filter GigFilter, page, pageSize int) ([]*entity.Gig, int64, error)
	GetByID(ctx context.Context, id string) (*entity.Gig, error)
	Create(ctx context.Context, input CreateGigInput) (*entity.Gig, error)
}
