package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/rebanho-api/internal/domain"
	"github.com/jhoicas/rebanho-api/internal/domain/entity"
	"github.com/jhoicas/rebanho-api/internal/domain/repository"
)

var (
	_ repository.PropertyRepository = (*PropertyRepo)(nil)
	_ repository.CategoryRepository = (*CategoryRepo)(nil)
	_ repository.PlanRepository     = (*PlanRepo)(nil)
)

// PropertyRepo implementación del puerto PropertyRepository sobre PostgreSQL.
type PropertyRepo struct {
	q Querier
}

// NewPropertyRepository construye el adaptador de persistencia para propiedades.
func NewPropertyRepository(q Querier) *PropertyRepo {
	return &PropertyRepo{q: q}
}

// Create persiste una nueva propiedad.
func (r *PropertyRepo) Create(ctx context.Context, p *entity.Property) error {
	query := `
		INSERT INTO properties (id, company_id, name, code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query, p.ID, p.CompanyID, p.Name, nullString(p.Code), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert property: %w", err)
	}
	return nil
}

// GetByID obtiene una propiedad por ID.
func (r *PropertyRepo) GetByID(ctx context.Context, id string) (*entity.Property, error) {
	query := `SELECT id, company_id, name, COALESCE(code, ''), created_at, updated_at FROM properties WHERE id = $1`
	var p entity.Property
	err := r.q.QueryRow(ctx, query, id).Scan(&p.ID, &p.CompanyID, &p.Name, &p.Code, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get property: %w", err)
	}
	return &p, nil
}

// ListByCompany lista propiedades por empresa con paginación.
func (r *PropertyRepo) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Property, error) {
	query := `
		SELECT id, company_id, name, COALESCE(code, ''), created_at, updated_at
		FROM properties WHERE company_id = $1 ORDER BY name ASC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()
	var list []*entity.Property
	for rows.Next() {
		var p entity.Property
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.Name, &p.Code, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}

// CategoryRepo implementación del puerto CategoryRepository sobre PostgreSQL.
type CategoryRepo struct {
	q Querier
}

// NewCategoryRepository construye el adaptador de persistencia para categorías.
func NewCategoryRepository(q Querier) *CategoryRepo {
	return &CategoryRepo{q: q}
}

const categoryColumns = `id, company_id, code, name, COALESCE(successor_id::text, ''), min_age_months, max_age_months, created_at, updated_at`

// Create persiste una nueva categoría. (company_id, code) es único.
func (r *CategoryRepo) Create(ctx context.Context, c *entity.Category) error {
	query := `
		INSERT INTO categories (id, company_id, code, name, successor_id, min_age_months, max_age_months, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.CompanyID, c.Code, c.Name, nullString(c.SuccessorID),
		c.MinAgeMonths, c.MaxAgeMonths, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return domain.ErrUnknownCategory
		}
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// GetByID obtiene una categoría por ID.
func (r *CategoryRepo) GetByID(ctx context.Context, id string) (*entity.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`
	var c entity.Category
	err := r.q.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.CompanyID, &c.Code, &c.Name, &c.SuccessorID,
		&c.MinAgeMonths, &c.MaxAgeMonths, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &c, nil
}

// ListByCompany lista categorías por empresa ordenadas por código.
func (r *CategoryRepo) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE company_id = $1 ORDER BY code ASC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	var list []*entity.Category
	for rows.Next() {
		var c entity.Category
		if err := rows.Scan(&c.ID, &c.CompanyID, &c.Code, &c.Name, &c.SuccessorID,
			&c.MinAgeMonths, &c.MaxAgeMonths, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}

// PlanRepo implementación del puerto PlanRepository sobre PostgreSQL.
type PlanRepo struct {
	q Querier
}

// NewPlanRepository construye el adaptador de persistencia para planes.
func NewPlanRepository(q Querier) *PlanRepo {
	return &PlanRepo{q: q}
}

// Create persiste un nuevo plan.
func (r *PlanRepo) Create(ctx context.Context, p *entity.Plan) error {
	query := `
		INSERT INTO plans (id, company_id, name, start_date, horizon_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query, p.ID, p.CompanyID, p.Name, p.StartDate, p.HorizonDate, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert plan: %w", err)
	}
	return nil
}

// GetByID obtiene un plan por ID.
func (r *PlanRepo) GetByID(ctx context.Context, id string) (*entity.Plan, error) {
	query := `SELECT id, company_id, name, start_date, horizon_date, created_at, updated_at FROM plans WHERE id = $1`
	p, err := scanPlan(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get plan: %w", err)
	}
	return p, nil
}

// ListByCompany lista planes por empresa con paginación.
func (r *PlanRepo) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Plan, error) {
	query := `
		SELECT id, company_id, name, start_date, horizon_date, created_at, updated_at
		FROM plans WHERE company_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()
	var list []*entity.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func scanPlan(row pgx.Row) (*entity.Plan, error) {
	var p entity.Plan
	if err := row.Scan(&p.ID, &p.CompanyID, &p.Name, &p.StartDate, &p.HorizonDate, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.StartDate = entity.DateOnly(p.StartDate)
	if p.HorizonDate != nil {
		h := entity.DateOnly(*p.HorizonDate)
		p.HorizonDate = &h
	}
	return &p, nil
}
