package repository

import (
	"context"

	"gigmarket/internal/domain/entity"
)

type CreateOrderInput struct {
	GigID        string
	Requirements string
}

type OrderRepository interface {
	Create(ctx context.Context, input CreateOrderInput) (*entity.Order, error)
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	ListByClient(ctx context.Context, page, pageSize int) ([]*entity.Order, int64, error)
	ListByFreelancer(ctx context.Context, page, pageSize int) ([]*entity.Order, int64, error)

	// UpdateStatus is the constrained transition operation; the backend
	// performs the authoritative check and returns the new snapshot.
	UpdateStatus(ctx context.Context, id string, status entity.OrderStatus) (*entity.Order, error)
}
