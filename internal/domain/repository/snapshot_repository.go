package repository

import (
	"context"
	"time"

	"github.com/jhoicas/rebanho-api/internal/domain/entity"
)

// SnapshotRepository define el puerto de lectura/alta de existencias iniciales.
// Los snapshots no se actualizan ni se borran.
type SnapshotRepository interface {
	// Create devuelve domain.ErrDuplicate si ya existe uno para (propiedad, categoría, fecha).
	Create(ctx context.Context, snapshot *entity.InventorySnapshot) error
	// ListByPropertyCategory devuelve los snapshots ordenados por fecha ascendente.
	ListByPropertyCategory(ctx context.Context, propertyID, categoryID string) ([]*entity.InventorySnapshot, error)
	// LatestAtOrBefore devuelve el snapshot más reciente con fecha <= asOf, o nil si no hay.
	LatestAtOrBefore(ctx context.Context, propertyID, categoryID string, asOf time.Time) (*entity.InventorySnapshot, error)
}
