package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/rebanho-api/internal/domain"
	"github.com/jhoicas/rebanho-api/internal/domain/entity"
	"github.com/jhoicas/rebanho-api/internal/domain/repository"
)

var _ repository.SnapshotRepository = (*SnapshotRepo)(nil)

const snapshotColumns = `id, property_id, category_id, quantity, unit_value, as_of, initial, created_at`

// SnapshotRepo existencias fechadas sobre PostgreSQL. Solo inserción y lectura.
type SnapshotRepo struct {
	q Querier
}

// NewSnapshotRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSnapshotRepository(q Querier) *SnapshotRepo {
	return &SnapshotRepo{q: q}
}

// Create inserta el snapshot; (property_id, category_id, as_of) es único.
func (r *SnapshotRepo) Create(ctx context.Context, s *entity.InventorySnapshot) error {
	query := `
		INSERT INTO inventory_snapshots (id, property_id, category_id, quantity, unit_value, as_of, initial, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.PropertyID, s.CategoryID, s.Quantity, s.UnitValue, s.AsOf, s.Initial, s.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create snapshot: %w", err)
	}
	return nil
}

// ListByPropertyCategory devuelve los snapshots por fecha ascendente.
func (r *SnapshotRepo) ListByPropertyCategory(ctx context.Context, propertyID, categoryID string) ([]*entity.InventorySnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM inventory_snapshots
		WHERE property_id = $1 AND category_id = $2 ORDER BY as_of ASC`
	rows, err := r.q.Query(ctx, query, propertyID, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.InventorySnapshot, 0)
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// LatestAtOrBefore devuelve el snapshot vigente a asOf, o nil si no hay.
func (r *SnapshotRepo) LatestAtOrBefore(ctx context.Context, propertyID, categoryID string, asOf time.Time) (*entity.InventorySnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM inventory_snapshots
		WHERE property_id = $1 AND category_id = $2 AND as_of <= $3
		ORDER BY as_of DESC LIMIT 1`
	s, err := scanSnapshot(r.q.QueryRow(ctx, query, propertyID, categoryID, asOf))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	return s, nil
}

func scanSnapshot(row pgx.Row) (*entity.InventorySnapshot, error) {
	var s entity.InventorySnapshot
	if err := row.Scan(&s.ID, &s.PropertyID, &s.CategoryID, &s.Quantity, &s.UnitValue,
		&s.AsOf, &s.Initial, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.AsOf = entity.DateOnly(s.AsOf)
	return &s, nil
}
