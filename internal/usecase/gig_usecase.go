package usecase

import (
	"context"

	"github.com/go-playground/validator/v10"

	"gigmarket/internal/domain/entity"
	"gigmarket/internal/domain/repository"
	"gigmarket/internal/infrastructure/session"
	"gigmarket/pkg/errors"
	"gigmarket/pkg/logger"
)

type GigUseCase struct {
	gigRepo  repository.GigRepository
	session  *session.Session
	validate *validator.Validate
}

func NewGigUseCase(gigRepo repository.GigRepository, sess *session.Session) *GigUseCase {
	return &GigUseCase{
		gigRepo:  gigRepo,
		session:  sess,
		validate: validator.New(),
	}
}

type CreateGigInput struct {
	Title        string   `validate:"required,min=10,max=100"`
	Description  string   `validate:"required,min=30,max=2000"`
	Category     string   `validate:"required"`
	Price        float64  `validate:"required,min=5"`
	DeliveryDays int      `validate:"required,min=1,max=90"`
	Images       []string `validate:"omitempty,dive,url"`
}

func (uc *GigUseCase) BrowseGigs(ctx context.Context, filter repository.GigFilter, page, pageSize int) ([]*entity.Gig, int64, error) {
	if filter.Category != "" && !isKnownCategory(filter.Category) {
		return nil, 0, errors.BadRequest("Unknown gig category", nil)
	}
	return uc.gigRepo.List(ctx, filter, page, pageSize)
}

func (uc *GigUseCase) GetGig(ctx context.Context, id string) (*entity.Gig, error) {
	if id == "" {
		return nil, errors.BadRequest("Gig id is required", nil)
	}
	return uc.gigRepo.GetByID(ctx, id)
}

func (uc *GigUseCase) CreateGig(ctx context.Context, input CreateGigInput) (*entity.Gig, error) {
	identity := uc.session.Identity()
	if identity == nil {
		return nil, errors.Unauthorized("Sign in to create a gig", nil)
	}
	if identity.Role != entity.RoleFreelancer {
		return nil, errors.Forbidden("Only freelancers can create gigs", nil)
	}

	if err := uc.validate.Struct(input); err != nil {
		return nil, errors.BadRequest("Invalid gig input", err)
	}
	if !isKnownCategory(input.Category) {
		return nil, errors.BadRequest("Unknown gig category", nil)
	}

	gig, err := uc.gigRepo.Create(ctx, repository.CreateGigInput{
		Title:        input.Title,
		Description:  input.Description,
		Category:     input.Category,
		Price:        input.Price,
		DeliveryDays: input.DeliveryDays,
		Images:       input.Images,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Gig %s created by %s", gig.ID, identity.UserID)
	return gig, nil
}

func isKnownCategory(category string) bool {
	for _, c := range entity.GigCategories {
		if c == category {
			return true
		}
	}
	return false
}
