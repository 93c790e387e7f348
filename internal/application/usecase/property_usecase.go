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

// PropertyUseCase alta y consulta de propiedades rurales.
type PropertyUseCase struct {
	repo repository.PropertyRepository
}

// NewPropertyUseCase construye el caso de uso.
func NewPropertyUseCase(repo repository.PropertyRepository) *PropertyUseCase {
	return &PropertyUseCase{repo: repo}
}

// Create crea una propiedad de la empresa. El código es único por empresa (domain.ErrDuplicate).
func (uc *PropertyUseCase) Create(ctx context.Context, companyID string, in dto.CreatePropertyRequest) (*dto.PropertyResponse, error) {
	name, code := strings.TrimSpace(in.Name), strings.TrimSpace(in.Code)
	if companyID == "" || name == "" || code == "" {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	p := &entity.Property{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		Name:      name,
		Code:      code,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return toPropertyResponse(p), nil
}

// GetByID obtiene una propiedad de la empresa. Devuelve (nil, nil) si no existe
// y domain.ErrForbidden si es de otra empresa.
func (uc *PropertyUseCase) GetByID(ctx context.Context, companyID, id string) (*dto.PropertyResponse, error) {
	p, err := uc.repo.GetByID(ctx, id)
	if err != nil || p == nil {
		return nil, err
	}
	if p.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return toPropertyResponse(p), nil
}

// List lista propiedades por empresa con paginación.
func (uc *PropertyUseCase) List(ctx context.Context, companyID string, limit, offset int) (*dto.PropertyListResponse, error) {
	list, err := uc.repo.ListByCompany(ctx, companyID, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.PropertyResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toPropertyResponse(p))
	}
	return &dto.PropertyListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

func toPropertyResponse(p *entity.Property) *dto.PropertyResponse {
	return &dto.PropertyResponse{
		ID:        p.ID,
		CompanyID: p.CompanyID,
		Name:      p.Name,
		Code:      p.Code,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
