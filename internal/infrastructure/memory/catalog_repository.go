package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/rebanho-api/internal/domain"
	"github.com/jhoicas/rebanho-api/internal/domain/entity"
	"github.com/jhoicas/rebanho-api/internal/domain/repository"
)

// PropertyRepo implementación en memoria de repository.PropertyRepository.
type PropertyRepo struct{ a access }

// CategoryRepo implementación en memoria de repository.CategoryRepository.
type CategoryRepo struct{ a access }

// PlanRepo implementación en memoria de repository.PlanRepository.
type PlanRepo struct{ a access }

var (
	_ repository.PropertyRepository = (*PropertyRepo)(nil)
	_ repository.CategoryRepository = (*CategoryRepo)(nil)
	_ repository.PlanRepository     = (*PlanRepo)(nil)
)

func (r *PropertyRepo) Create(_ context.Context, p *entity.Property) error {
	return r.a.update(func(st *state) error {
		if _, ok := st.properties[p.ID]; ok {
			return domain.ErrDuplicate
		}
		for _, e := range st.properties {
			if p.Code != "" && e.CompanyID == p.CompanyID && e.Code == p.Code {
				return domain.ErrDuplicate
			}
		}
		c := *p
		st.properties[p.ID] = &c
		return nil
	})
}

func (r *PropertyRepo) GetByID(_ context.Context, id string) (*entity.Property, error) {
	var out *entity.Property
	r.a.view(func(st *state) {
		if p, ok := st.properties[id]; ok {
			c := *p
			out = &c
		}
	})
	return out, nil
}

func (r *PropertyRepo) ListByCompany(_ context.Context, companyID string, limit, offset int) ([]*entity.Property, error) {
	out := make([]*entity.Property, 0)
	r.a.view(func(st *state) {
		for _, p := range st.properties {
			if p.CompanyID == companyID {
				c := *p
				out = append(out, &c)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, limit, offset), nil
}

func (r *CategoryRepo) Create(_ context.Context, cat *entity.Category) error {
	return r.a.update(func(st *state) error {
		if _, ok := st.categories[cat.ID]; ok {
			return domain.ErrDuplicate
		}
		for _, e := range st.categories {
			if e.CompanyID == cat.CompanyID && e.Code == cat.Code {
				return domain.ErrDuplicate
			}
		}
		c := *cat
		st.categories[cat.ID] = &c
		return nil
	})
}

func (r *CategoryRepo) GetByID(_ context.Context, id string) (*entity.Category, error) {
	var out *entity.Category
	r.a.view(func(st *state) {
		if cat, ok := st.categories[id]; ok {
			c := *cat
			out = &c
		}
	})
	return out, nil
}

func (r *CategoryRepo) ListByCompany(_ context.Context, companyID string, limit, offset int) ([]*entity.Category, error) {
	out := make([]*entity.Category, 0)
	r.a.view(func(st *state) {
		for _, cat := range st.categories {
			if cat.CompanyID == companyID {
				c := *cat
				out = append(out, &c)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return page(out, limit, offset), nil
}

func (r *PlanRepo) Create(_ context.Context, p *entity.Plan) error {
	return r.a.update(func(st *state) error {
		if _, ok := st.plans[p.ID]; ok {
			return domain.ErrDuplicate
		}
		c := *p
		st.plans[p.ID] = &c
		return nil
	})
}

func (r *PlanRepo) GetByID(_ context.Context, id string) (*entity.Plan, error) {
	var out *entity.Plan
	r.a.view(func(st *state) {
		if p, ok := st.plans[id]; ok {
			c := *p
			out = &c
		}
	})
	return out, nil
}

func (r *PlanRepo) ListByCompany(_ context.Context, companyID string, limit, offset int) ([]*entity.Plan, error) {
	out := make([]*entity.Plan, 0)
	r.a.view(func(st *state) {
		for _, p := range st.plans {
			if p.CompanyID == companyID {
				c := *p
				out = append(out, &c)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, limit, offset), nil
}

// page aplica limit/offset; limit 0 devuelve todo desde offset.
func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset > len(items) {
		offset = len(items)
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
