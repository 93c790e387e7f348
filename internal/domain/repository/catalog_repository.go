package repository

import (
	"context"

	"github.com/jhoicas/rebanho-api/internal/domain/entity"
)

// PropertyRepository define el puerto de persistencia para Property (DIP).
// GetByID devuelve (nil, nil) si no existe.
type PropertyRepository interface {
	Create(ctx context.Context, property *entity.Property) error
	GetByID(ctx context.Context, id string) (*entity.Property, error)
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Property, error)
}

// CategoryRepository define el puerto de persistencia para Category (DIP).
type CategoryRepository interface {
	Create(ctx context.Context, category *entity.Category) error
	GetByID(ctx context.Context, id string) (*entity.Category, error)
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Category, error)
}

// PlanRepository define el puerto de persistencia para Plan (DIP).
type PlanRepository interface {
	Create(ctx context.Context, plan *entity.Plan) error
	GetByID(ctx context.Context, id string) (*entity.Plan, error)
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Plan, error)
}
