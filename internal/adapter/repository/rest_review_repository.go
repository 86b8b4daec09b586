package repository

import (
	"context"
	"net/url"
	"strconv"

	"gigmarket/internal/domain/entity"
	"gigmarket/internal/domain/repository"
	"gigmarket/internal/infrastructure/rest"
)

type RestReviewRepository struct {
	client *rest.Client
}

func NewRestReviewRepository(client *rest.Client) *RestReviewRepository {
	return &RestReviewRepository{client: client}
}

type createReviewRequest struct {
	OrderID string `json:"order_id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type pagedReviews struct {
	Items []*entity.Review `json:"items"`
	Total int64            `json:"total"`
}

func (r *RestReviewRepository) Create(ctx context.Context, input repository.CreateReviewInput) (*entity.Review, error) {
	var review entity.Review
	err := r.client.Post(ctx, "/reviews", createReviewRequest{
		OrderID: input.OrderID,
		Rating:  input.Rating,
		Comment: input.Comment,
	}, &review)
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *RestReviewRepository) GetByOrderID(ctx context.Context, orderID string) (*entity.Review, error) {
	var review entity.Review
	if err := r.client.Get(ctx, "/reviews/order/"+orderID, nil, &review); err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *RestReviewRepository) ListByGig(ctx context.Context, gigID string, page, pageSize int) ([]*entity.Review, int64, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(pageSize))

	var paged pagedReviews
	if err := r.client.Get(ctx, "/reviews/gig/"+gigID, query, &paged); err != nil {
		return nil, 0, err
	}
	return paged.Items, paged.Total, nil
}
