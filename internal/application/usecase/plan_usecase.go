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

// PlanUseCase alta y consulta de planes (escenarios del libro).
type PlanUseCase struct {
	repo repository.PlanRepository
}

// NewPlanUseCase construye el caso de uso.
func NewPlanUseCase(repo repository.PlanRepository) *PlanUseCase {
	return &PlanUseCase{repo: repo}
}

// Create crea un plan. El horizonte, si se indica, no puede ser anterior al inicio.
func (uc *PlanUseCase) Create(ctx context.Context, companyID string, in dto.CreatePlanRequest) (*dto.PlanResponse, error) {
	name := strings.TrimSpace(in.Name)
	if companyID == "" || name == "" {
		return nil, domain.ErrInvalidInput
	}
	start, err := entity.ParseDate(in.StartDate)
	if err != nil {
		return nil, domain.ErrInvalidInput
	}
	var horizon *time.Time
	if in.HorizonDate != "" {
		h, err := entity.ParseDate(in.HorizonDate)
		if err != nil || h.Before(start) {
			return nil, domain.ErrInvalidInput
		}
		horizon = &h
	}
	now := time.Now()
	p := &entity.Plan{
		ID:          uuid.New().String(),
		CompanyID:   companyID,
		Name:        name,
		StartDate:   start,
		HorizonDate: horizon,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return toPlanResponse(p), nil
}

// GetByID obtiene un plan de la empresa; (nil, nil) si no existe.
func (uc *PlanUseCase) GetByID(ctx context.Context, companyID, id string) (*dto.PlanResponse, error) {
	p, err := uc.Owned(ctx, companyID, id)
	if err != nil || p == nil {
		return nil, err
	}
	return toPlanResponse(p), nil
}

// Owned devuelve la entidad del plan si pertenece a la empresa. Lo usan los handlers
// del libro antes de operar sobre un plan.
func (uc *PlanUseCase) Owned(ctx context.Context, companyID, id string) (*entity.Plan, error) {
	p, err := uc.repo.GetByID(ctx, id)
	if err != nil || p == nil {
		return nil, err
	}
	if p.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return p, nil
}

// List lista planes por empresa con paginación.
func (uc *PlanUseCase) List(ctx context.Context, companyID string, limit, offset int) (*dto.PlanListResponse, error) {
	list, err := uc.repo.ListByCompany(ctx, companyID, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.PlanResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toPlanResponse(p))
	}
	return &dto.PlanListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

func toPlanResponse(p *entity.Plan) *dto.PlanResponse {
	out := &dto.PlanResponse{
		ID:        p.ID,
		CompanyID: p.CompanyID,
		Name:      p.Name,
		StartDate: p.StartDate.Format(entity.DateLayout),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.HorizonDate != nil {
		out.HorizonDate = p.HorizonDate.Format(entity.DateLayout)
	}
	return out
}
