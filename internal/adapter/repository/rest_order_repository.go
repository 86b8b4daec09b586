package repository

import (
	"context"
	"net/url"
	"strconv"

	"gigmarket/internal/domain/entity"
	"gigmarket/internal/domain/repository"
	"gigmarket/internal/infrastructure/rest"
)

type RestOrderRepository struct {
	client *rest.Client
}

func NewRestOrderRepository(client *rest.Client) *RestOrderRepository {
	return &RestOrderRepository{client: client}
}

type createOrderRequest struct {
	GigID        string `json:"gig_id"`
	Requirements string `json:"requirements,omitempty"`
}

type updateStatusRequest struct {
	Status entity.OrderStatus `json:"status"`
}

type pagedOrders struct {
	Items []*entity.Order `json:"items"`
	Total int64           `json:"total"`
}

func (r *RestOrderRepository) Create(ctx context.Context, input repository.CreateOrderInput) (*entity.Order, error) {
	var order entity.Order
	err := r.client.Post(ctx, "/orders", createOrderRequest{
		GigID:        input.GigID,
		Requirements: input.Requirements,
	}, &order)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *RestOrderRepository) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	var order entity.Order
	if err := r.client.Get(ctx, "/orders/"+id, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *RestOrderRepository) ListByClient(ctx context.Context, page, pageSize int) ([]*entity.Order, int64, error) {
	return r.list(ctx, "/orders/client", page, pageSize)
}

func (r *RestOrderRepository) ListByFreelancer(ctx context.Context, page, pageSize int) ([]*entity.Order, int64, error) {
	return r.list(ctx, "/orders/freelancer", page, pageSize)
}

func (r *RestOrderRepository) list(ctx context.Context, path string, page, pageSize int) ([]*entity.Order, int64, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(pageSize))

	var paged pagedOrders
	if err := r.client.Get(ctx, path, query, &paged); err != nil {
		return nil, 0, err
	}
	return paged.Items, paged.Total, nil
}

func (r *RestOrderRepository) UpdateStatus(ctx context.Context, id string, status entity.OrderStatus) (*entity.Order, error) {
	var order entity.Order
	err := r.client.Put(ctx, "/orders/"+id+"/status", updateStatusRequest{Status: status}, &order)
	if err != nil {
		return nil, err
	}
	return &order, nil
}
