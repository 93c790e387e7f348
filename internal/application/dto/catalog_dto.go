package dto

import "time"

// CreatePropertyRequest entrada para crear una propiedad.
type CreatePropertyRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
	Code string `json:"code" validate:"required,min=1,max=50"`
}

// PropertyResponse salida de una propiedad.
type PropertyResponse struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PropertyListResponse lista paginada de propiedades.
type PropertyListResponse struct {
	Items []PropertyResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// CreateCategoryRequest entrada para crear una categoría de animales.
type CreateCategoryRequest struct {
	Code         string `json:"code" validate:"required,min=1,max=50"`
	Name         string `json:"name" validate:"required,min=1,max=200"`
	SuccessorID  string `json:"successor_id"`
	MinAgeMonths int    `json:"min_age_months"`
	MaxAgeMonths int    `json:"max_age_months"`
}

// CategoryResponse salida de una categoría.
type CategoryResponse struct {
	ID           string    `json:"id"`
	CompanyID    string    `json:"company_id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	SuccessorID  string    `json:"successor_id,omitempty"`
	MinAgeMonths int       `json:"min_age_months"`
	MaxAgeMonths int       `json:"max_age_months"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CategoryListResponse lista paginada de categorías.
type CategoryListResponse struct {
	Items []CategoryResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// CreatePlanRequest entrada para crear un plan (escenario). Fechas AAAA-MM-DD.
type CreatePlanRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	StartDate   string `json:"start_date" validate:"required"`
	HorizonDate string `json:"horizon_date"`
}

// PlanResponse salida de un plan.
type PlanResponse struct {
	ID          string    `json:"id"`
	CompanyID   string    `json:"company_id"`
	Name        string    `json:"name"`
	StartDate   string    `json:"start_date"`
	HorizonDate string    `json:"horizon_date,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PlanListResponse lista paginada de planes.
type PlanListResponse struct {
	Items []PlanResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}
