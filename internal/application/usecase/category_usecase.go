package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/rebanho-api/internal/application/dto"
	"github.com/jhoicas/rebanho-api/internal/domain"
	"github.com/jhoicas/rebanho-api/internal/domain/entity"
	"github.com/jhoicas/rebanho-api/internal/domain/repository"
)

// CategoryUseCase alta y consulta de categorías de animales.
type CategoryUseCase struct {
	repo repository.CategoryRepository
}

// NewCategoryUseCase construye el caso de uso.
func NewCategoryUseCase(repo repository.CategoryRepository) *CategoryUseCase {
	return &CategoryUseCase{repo: repo}
}

// Create crea una categoría. La sucesora, si se indica, debe existir y ser de la misma empresa.
func (uc *CategoryUseCase) Create(ctx context.Context, companyID string, in dto.CreateCategoryRequest) (*dto.CategoryResponse, error) {
	name, code := strings.TrimSpace(in.Name), strings.TrimSpace(in.Code)
	if companyID == "" || name == "" || code == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.MinAgeMonths < 0 || in.MaxAgeMonths < 0 || (in.MaxAgeMonths > 0 && in.MaxAgeMonths < in.MinAgeMonths) {
		return nil, domain.ErrInvalidInput
	}
	if in.SuccessorID != "" {
		succ, err := uc.repo.GetByID(ctx, in.SuccessorID)
		if err != nil {
			return nil, err
		}
		if succ == nil {
			return nil, domain.ErrUnknownCategory
		}
		if succ.CompanyID != companyID {
			return nil, domain.ErrForbidden
		}
	}
	now := time.Now()
	cat := &entity.Category{
		ID:           uuid.New().String(),
		CompanyID:    companyID,
		Code:         code,
		Name:         name,
		SuccessorID:  in.SuccessorID,
		MinAgeMonths: in.MinAgeMonths,
		MaxAgeMonths: in.MaxAgeMonths,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.repo.Create(ctx, cat); err != nil {
		return nil, err
	}
	return toCategoryResponse(cat), nil
}

// GetByID obtiene una categoría de la empresa; (nil, nil) si no existe.
func (uc *CategoryUseCase) GetByID(ctx context.Context, companyID, id string) (*dto.CategoryResponse, error) {
	cat, err := uc.repo.GetByID(ctx, id)
	if err != nil || cat == nil {
		return nil, err
	}
	if cat.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return toCategoryResponse(cat), nil
}

// List lista categorías por empresa con paginación.
func (uc *CategoryUseCase) List(ctx context.Context, companyID string, limit, offset int) (*dto.CategoryListResponse, error) {
	list, err := uc.repo.ListByCompany(ctx, companyID, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.CategoryResponse, 0, len(list))
	for _, c := range list {
		items = append(items, *toCategoryResponse(c))
	}
	return &dto.CategoryListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

func toCategoryResponse(c *entity.Category) *dto.CategoryResponse {
	return &dto.CategoryResponse{
		ID:           c.ID,
		CompanyID:    c.CompanyID,
		Code:         c.Code,
		Name:         c.Name,
		SuccessorID:  c.SuccessorID,
		MinAgeMonths: c.MinAgeMonths,
		MaxAgeMonths: c.MaxAgeMonths,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}
