package repository

import (
	"context"
	"time"

	"github.com/jhoicas/rebanho-api/internal/domain/entity"
)

// MovementFilter criterio de consulta/borrado del libro. PlanID es obligatorio:
// ninguna operación lee ni borra movimientos de otro plan.
type MovementFilter struct {
	PlanID           string
	PropertyID       string     // vacío = todas
	CategoryID       string     // vacío = todas
	After            *time.Time // exclusivo
	Until            *time.Time // inclusivo
	Kinds            []entity.MovementKind
	DerivedBy        string // regla que generó los eventos
	SourceMovementID *int64 // evento de entrada que originó los derivados
	IDs              []int64
	ManualOnly       bool // excluye los derivados de cualquier regla
	ExcludeDerivedBy string
}

// MovementRepository define el puerto de persistencia del libro de movimientos.
// List devuelve siempre en orden de replay: fecha ascendente y luego ID ascendente.
type MovementRepository interface {
	Create(ctx context.Context, movement *entity.Movement) error
	GetByID(ctx context.Context, id int64) (*entity.Movement, error)
	List(ctx context.Context, filter MovementFilter) ([]*entity.Movement, error)
	// Delete borra los movimientos que cumplen el filtro y devuelve cuántos borró.
	// Exige PlanID y al menos un criterio adicional (DerivedBy, SourceMovementID o IDs).
	Delete(ctx context.Context, filter MovementFilter) (int64, error)
}
