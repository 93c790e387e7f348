package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/rebanho-api/internal/domain"
	"github.com/jhoicas/rebanho-api/internal/domain/entity"
	"github.com/jhoicas/rebanho-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `id, plan_id, property_id, category_id, date, kind, quantity, annotation, derived_by, source_movement_id, created_at`

// MovementRepo libro de movimientos sobre PostgreSQL (usable con pool o tx).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Create inserta el movimiento; el ID lo asigna la secuencia (monotónico).
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	query := `
		INSERT INTO movements (plan_id, property_id, category_id, date, kind, quantity, annotation, derived_by, source_movement_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		m.PlanID, m.PropertyID, m.CategoryID, m.Date, string(m.Kind), m.Quantity,
		m.Annotation, m.DerivedBy, m.SourceMovementID, m.CreatedAt,
	).Scan(&m.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: referencia inexistente", domain.ErrInvalidInput)
		}
		return fmt.Errorf("create movement: %w", err)
	}
	return nil
}

// GetByID devuelve (nil, nil) si no existe.
func (r *MovementRepo) GetByID(ctx context.Context, id int64) (*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM movements WHERE id = $1`
	m, err := scanMovement(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// List devuelve los movimientos del filtro en orden de replay (date, id).
func (r *MovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.Movement, error) {
	where, args, err := movementWhere(f)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + movementColumns + ` FROM movements WHERE ` + where + ` ORDER BY date ASC, id ASC`
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Movement, 0)
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// Delete borra los movimientos del filtro. Exige PlanID y un criterio de selección.
func (r *MovementRepo) Delete(ctx context.Context, f repository.MovementFilter) (int64, error) {
	if f.DerivedBy == "" && f.SourceMovementID == nil && len(f.IDs) == 0 {
		return 0, domain.ErrInvalidInput
	}
	where, args, err := movementWhere(f)
	if err != nil {
		return 0, err
	}
	cmd, err := r.q.Exec(ctx, `DELETE FROM movements WHERE `+where, args...)
	if err != nil {
		return 0, fmt.Errorf("delete movements: %w", err)
	}
	return cmd.RowsAffected(), nil
}

// movementWhere arma la cláusula WHERE con placeholders posicionales.
func movementWhere(f repository.MovementFilter) (string, []any, error) {
	if f.PlanID == "" {
		return "", nil, domain.ErrInvalidInput
	}
	conds := []string{"plan_id = $1"}
	args := []any{f.PlanID}
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.PropertyID != "" {
		add("property_id = $%d", f.PropertyID)
	}
	if f.CategoryID != "" {
		add("category_id = $%d", f.CategoryID)
	}
	if f.After != nil {
		add("date > $%d", *f.After)
	}
	if f.Until != nil {
		add("date <= $%d", *f.Until)
	}
	if len(f.Kinds) > 0 {
		kinds := make([]string, len(f.Kinds))
		for i, k := range f.Kinds {
			kinds[i] = string(k)
		}
		add("kind = ANY($%d)", kinds)
	}
	if f.DerivedBy != "" {
		add("derived_by = $%d", f.DerivedBy)
	}
	if f.SourceMovementID != nil {
		add("source_movement_id = $%d", *f.SourceMovementID)
	}
	if len(f.IDs) > 0 {
		add("id = ANY($%d)", f.IDs)
	}
	if f.ManualOnly {
		conds = append(conds, "derived_by = ''")
	}
	if f.ExcludeDerivedBy != "" {
		add("derived_by <> $%d", f.ExcludeDerivedBy)
	}
	return strings.Join(conds, " AND "), args, nil
}

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var m entity.Movement
	var kind string
	if err := row.Scan(&m.ID, &m.PlanID, &m.PropertyID, &m.CategoryID, &m.Date, &kind, &m.Quantity,
		&m.Annotation, &m.DerivedBy, &m.SourceMovementID, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Kind = entity.MovementKind(kind)
	m.Date = entity.DateOnly(m.Date)
	return &m, nil
}
