package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/rebanho-api/internal/domain"
	"github.com/jhoicas/rebanho-api/internal/domain/entity"
	"github.com/jhoicas/rebanho-api/internal/domain/repository"
)

// SnapshotRepo implementación en memoria de repository.SnapshotRepository.
type SnapshotRepo struct {
	a access
}

var _ repository.SnapshotRepository = (*SnapshotRepo)(nil)

// Create rechaza un segundo snapshot para la misma (propiedad, categoría, fecha).
func (r *SnapshotRepo) Create(_ context.Context, s *entity.InventorySnapshot) error {
	return r.a.update(func(st *state) error {
		if _, ok := st.snapshots[s.ID]; ok {
			return domain.ErrDuplicate
		}
		for _, e := range st.snapshots {
			if e.PropertyID == s.PropertyID && e.CategoryID == s.CategoryID && e.AsOf.Equal(s.AsOf) {
				return domain.ErrDuplicate
			}
		}
		c := *s
		st.snapshots[s.ID] = &c
		return nil
	})
}

// ListByPropertyCategory devuelve los snapshots por fecha ascendente.
func (r *SnapshotRepo) ListByPropertyCategory(_ context.Context, propertyID, categoryID string) ([]*entity.InventorySnapshot, error) {
	out := make([]*entity.InventorySnapshot, 0)
	r.a.view(func(st *state) {
		for _, s := range st.snapshots {
			if s.PropertyID == propertyID && s.CategoryID == categoryID {
				c := *s
				out = append(out, &c)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].AsOf.Before(out[j].AsOf) })
	return out, nil
}

// LatestAtOrBefore devuelve el snapshot vigente a asOf o nil.
func (r *SnapshotRepo) LatestAtOrBefore(ctx context.Context, propertyID, categoryID string, asOf time.Time) (*entity.InventorySnapshot, error) {
	all, err := r.ListByPropertyCategory(ctx, propertyID, categoryID)
	if err != nil {
		return nil, err
	}
	var out *entity.InventorySnapshot
	for _, s := range all {
		if s.AsOf.After(asOf) {
			break
		}
		out = s
	}
	return out, nil
}
