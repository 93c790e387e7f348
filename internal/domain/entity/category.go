package entity

import "time"

// Category representa una categoría de animales (franja de edad/sexo), ej. "Garrote", "Novilha".
// Los saldos siempre se indexan por (propiedad, categoría, plan).
type Category struct {
	ID           string
	CompanyID    string
	Code         string // código único por empresa
	Name         string
	SuccessorID  string // categoría a la que evoluciona por edad; vacío si es terminal
	MinAgeMonths int
	MaxAgeMonths int // 0 = sin límite superior
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasSuccessor indica si la categoría tiene evolución natural configurada.
func (c *Category) HasSuccessor() bool { return c.SuccessorID != "" && c.SuccessorID != c.ID }
