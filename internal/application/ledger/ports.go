package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/rebanho-api/internal/domain"
	"github.com/jhoicas/rebanho-api/internal/domain/entity"
	"github.com/jhoicas/rebanho-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Una ejecución completa (borrar derivados + calcular + insertar) es todo o nada, y las
// ejecuciones sobre el mismo plan se serializan; planes distintos pueden correr en paralelo.
type TxRunner interface {
	Run(ctx context.Context, planID string, fn func(
		movRepo repository.MovementRepository,
		snapshotRepo repository.SnapshotRepository,
	) error) error
}

// SchedulePublisher notifica a los colaboradores de reportes el resultado de una planificación.
// Se invoca después del commit; un fallo de publicación no revierte la planificación.
type SchedulePublisher interface {
	PublishScheduleCompleted(ctx context.Context, result *ScheduleResult) error
}

// ConsolidationRenderer genera la representación imprimible de un consolidado.
type ConsolidationRenderer interface {
	RenderConsolidation(ctx context.Context, report *ConsolidationReport) ([]byte, error)
}

// ConsolidationReport datos de entrada del reporte consolidado (nombres ya resueltos).
type ConsolidationReport struct {
	Title         string
	PlanName      string
	Consolidation *Consolidation
	PropertyNames map[string]string
	CategoryNames map[string]string
	GeneratedAt   time.Time
}

// Catalog agrupa los repositorios de referencias (propiedades, categorías y planes).
type Catalog struct {
	Properties repository.PropertyRepository
	Categories repository.CategoryRepository
	Plans      repository.PlanRepository
}

func (c Catalog) property(ctx context.Context, id string) (*entity.Property, error) {
	if id == "" {
		return nil, domain.ErrUnknownEntity
	}
	p, err := c.Properties.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("obtener propiedad: %w", err)
	}
	if p == nil {
		return nil, domain.ErrUnknownEntity
	}
	return p, nil
}

func (c Catalog) category(ctx context.Context, id string) (*entity.Category, error) {
	if id == "" {
		return nil, domain.ErrUnknownCategory
	}
	cat, err := c.Categories.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("obtener categoría: %w", err)
	}
	if cat == nil {
		return nil, domain.ErrUnknownCategory
	}
	return cat, nil
}

func (c Catalog) plan(ctx context.Context, id string) (*entity.Plan, error) {
	if id == "" {
		return nil, domain.ErrUnknownPlan
	}
	p, err := c.Plans.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("obtener plan: %w", err)
	}
	if p == nil {
		return nil, domain.ErrUnknownPlan
	}
	return p, nil
}

// scope referencias resueltas de una partición (propiedad, categoría, plan).
type scope struct {
	Property *entity.Property
	Category *entity.Category
	Plan     *entity.Plan
}

// resolve valida que las tres referencias existan y pertenezcan a la empresa del plan.
func (c Catalog) resolve(ctx context.Context, propertyID, categoryID, planID string) (*scope, error) {
	plan, err := c.plan(ctx, planID)
	if err != nil {
		return nil, err
	}
	prop, err := c.property(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	cat, err := c.category(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if prop.CompanyID != plan.CompanyID || cat.CompanyID != plan.CompanyID {
		return nil, domain.ErrPlanMismatch
	}
	return &scope{Property: prop, Category: cat, Plan: plan}, nil
}
