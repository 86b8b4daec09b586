package repository

import (
	"context"
	"net/url"
	"strconv"

	"gigmarket/internal/domain/entity"
	"gigmarket/internal/domain/repository"
	"gigmarket/internal/infrastructure/rest"
)

type RestGigRepository struct {
	client *rest.Client
}

func NewRestGigRepository(client *rest.Client) *RestGigRepository {
	return &RestGigRepository{client: client}
}

type createGigRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	Price        float64  `json:"price"`
	DeliveryDays int      `json:"delivery_days"`
	Images       []string `json:"images,omitempty"`
}

type pagedGigs struct {
	Items []*entity.Gig `json:"items"`
	Total int64         `json:"total"`
}

func (r *RestGigRepository) List(ctx context.Context, filter repository.GigFilter, page, pageSize int) ([]*entity.Gig, int64, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(pageSize))
	if filter.Category != "" {
		query.Set("category", filter.Category)
	}
	if filter.Search != "" {
		query.Set("search", filter.Search)
	}
	if filter.MinPrice > 0 {
		query.Set("min_price", strconv.FormatFloat(filter.MinPrice, 'f', -1, 64))
	}
	if filter.MaxPrice > 0 {
		query.Set("max_price", strconv.FormatFloat(filter.MaxPrice, 'f', -1, 64))
	}

	var paged pagedGigs
	if err := r.client.Get(ctx, "/gigs", query, &paged); err != nil {
		return nil, 0, err
	}
	return paged.Items, paged.Total, nil
}

func (r *RestGigRepository) GetByID(ctx context.Context, id string) (*entity.Gig, error) {
	var gig entity.Gig
	if err := r.client.Get(ctx, "/gigs/"+id, nil, &gig); err != nil {
		return nil, err
	}
	return &gig, nil
}

func (r *RestGigRepository) Create(ctx context.Context, input repository.CreateGigInput) (*entity.Gig, error) {
	var gig entity.Gig
	err := r.client.Post(ctx, "/gigs", createGigRequest{
		Title:        input.Title,
		Description:  input.Description,
		Category:     input.Category,
		Price:        input.Price,
		DeliveryDays: input.DeliveryDays,
		Images:       input.Images,
	}, &gig)
	if err != nil {
		return nil, err
	}
	return &gig, nil
}
