package memory

import (
	"context"
	"slices"

	"github.com/jhoicas/rebanho-api/internal/domain"
	"github.com/jhoicas/rebanho-api/internal/domain/entity"
	domledger "github.com/jhoicas/rebanho-api/internal/domain/ledger"
	"github.com/jhoicas/rebanho-api/internal/domain/repository"
)

// MovementRepo implementación en memoria de repository.MovementRepository.
type MovementRepo struct {
	a access
}

var _ repository.MovementRepository = (*MovementRepo)(nil)

// Create asigna el siguiente ID monotónico y guarda una copia del movimiento.
func (r *MovementRepo) Create(_ context.Context, m *entity.Movement) error {
	return r.a.update(func(st *state) error {
		st.nextID++
		m.ID = st.nextID
		st.movements[m.ID] = copyMovement(m)
		return nil
	})
}

// GetByID devuelve (nil, nil) si no existe.
func (r *MovementRepo) GetByID(_ context.Context, id int64) (*entity.Movement, error) {
	var out *entity.Movement
	r.a.view(func(st *state) {
		if m, ok := st.movements[id]; ok {
			out = copyMovement(m)
		}
	})
	return out, nil
}

// List devuelve los movimientos que cumplen el filtro en orden (fecha, id).
func (r *MovementRepo) List(_ context.Context, f repository.MovementFilter) ([]*entity.Movement, error) {
	if f.PlanID == "" {
		return nil, domain.ErrInvalidInput
	}
	out := make([]*entity.Movement, 0)
	r.a.view(func(st *state) {
		for _, m := range st.movements {
			if matches(m, f) {
				out = append(out, copyMovement(m))
			}
		}
	})
	domledger.SortMovements(out)
	return out, nil
}

// Delete borra los movimientos del plan que cumplen el filtro y, como el ON DELETE CASCADE
// de source_movement_id en PostgreSQL, todo lo derivado de ellos a cualquier profundidad.
// Igual que RowsAffected, el conteo solo incluye las filas que cumplen el filtro.
func (r *MovementRepo) Delete(_ context.Context, f repository.MovementFilter) (int64, error) {
	if f.PlanID == "" || (f.DerivedBy == "" && f.SourceMovementID == nil && len(f.IDs) == 0) {
		return 0, domain.ErrInvalidInput
	}
	var n int64
	err := r.a.update(func(st *state) error {
		removed := make(map[int64]bool)
		for id, m := range st.movements {
			if matches(m, f) {
				delete(st.movements, id)
				removed[id] = true
				n++
			}
		}
		cascade(st, removed)
		return nil
	})
	return n, err
}

// cascade borra hasta agotar los movimientos cuyo origen ya no existe.
func cascade(st *state, removed map[int64]bool) {
	for len(removed) > 0 {
		next := make(map[int64]bool)
		for id, m := range st.movements {
			if m.SourceMovementID != nil && removed[*m.SourceMovementID] {
				delete(st.movements, id)
				next[id] = true
			}
		}
		removed = next
	}
}

func matches(m *entity.Movement, f repository.MovementFilter) bool {
	if m.PlanID != f.PlanID {
		return false
	}
	if f.PropertyID != "" && m.PropertyID != f.PropertyID {
		return false
	}
	if f.CategoryID != "" && m.CategoryID != f.CategoryID {
		return false
	}
	if f.After != nil && !m.Date.After(*f.After) {
		return false
	}
	if f.Until != nil && m.Date.After(*f.Until) {
		return false
	}
	if len(f.Kinds) > 0 && !slices.Contains(f.Kinds, m.Kind) {
		return false
	}
	if f.DerivedBy != "" && m.DerivedBy != f.DerivedBy {
		return false
	}
	if f.SourceMovementID != nil && (m.SourceMovementID == nil || *m.SourceMovementID != *f.SourceMovementID) {
		return false
	}
	if len(f.IDs) > 0 && !slices.Contains(f.IDs, m.ID) {
		return false
	}
	if f.ManualOnly && m.Derived() {
		return false
	}
	if f.ExcludeDerivedBy != "" && m.DerivedBy == f.ExcludeDerivedBy {
		return false
	}
	return true
}

func copyMovement(m *entity.Movement) *entity.Movement {
	c := *m
	if m.SourceMovementID != nil {
		id := *m.SourceMovementID
		c.SourceMovementID = &id
	}
	return &c
}
