package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/rebanho-api/internal/domain"
	"github.com/jhoicas/rebanho-api/internal/domain/entity"
	"github.com/jhoicas/rebanho-api/internal/domain/repository"
)

// CreateSnapshotInput existencia fechada de una (propiedad, categoría).
type CreateSnapshotInput struct {
	PropertyID string
	CategoryID string
	Quantity   int64
	UnitValue  decimal.Decimal
	AsOf       time.Time
	Initial    bool
}

// SnapshotUseCase alta y consulta de snapshots. No hay actualización: un snapshot
// posterior reemplaza al anterior para el replay.
type SnapshotUseCase struct {
	snapshots repository.SnapshotRepository
	catalog   Catalog
}

// NewSnapshotUseCase construye el caso de uso.
func NewSnapshotUseCase(snapshots repository.SnapshotRepository, catalog Catalog) *SnapshotUseCase {
	return &SnapshotUseCase{snapshots: snapshots, catalog: catalog}
}

// Create valida y registra el snapshot. Devuelve domain.ErrDuplicate si ya hay uno en esa fecha.
func (uc *SnapshotUseCase) Create(ctx context.Context, companyID string, in CreateSnapshotInput) (*entity.InventorySnapshot, error) {
	s := &entity.InventorySnapshot{
		ID:         uuid.New().String(),
		PropertyID: in.PropertyID,
		CategoryID: in.CategoryID,
		Quantity:   in.Quantity,
		UnitValue:  in.UnitValue,
		AsOf:       entity.DateOnly(in.AsOf),
		Initial:    in.Initial,
		CreatedAt:  time.Now(),
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if err := uc.checkOwnership(ctx, companyID, in.PropertyID, in.CategoryID); err != nil {
		return nil, err
	}
	if err := uc.snapshots.Create(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// List devuelve los snapshots de la (propiedad, categoría) por fecha ascendente.
func (uc *SnapshotUseCase) List(ctx context.Context, companyID, propertyID, categoryID string) ([]*entity.InventorySnapshot, error) {
	if err := uc.checkOwnership(ctx, companyID, propertyID, categoryID); err != nil {
		return nil, err
	}
	return uc.snapshots.ListByPropertyCategory(ctx, propertyID, categoryID)
}

func (uc *SnapshotUseCase) checkOwnership(ctx context.Context, companyID, propertyID, categoryID string) error {
	prop, err := uc.catalog.property(ctx, propertyID)
	if err != nil {
		return err
	}
	cat, err := uc.catalog.category(ctx, categoryID)
	if err != nil {
		return err
	}
	if prop.CompanyID != companyID || cat.CompanyID != companyID {
		return domain.ErrForbidden
	}
	return nil
}
