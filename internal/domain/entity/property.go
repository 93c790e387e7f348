package entity

import "time"

// Property representa una propiedad rural (unidad administrativa dueña de un rebaño).
// Toda existencia y todo movimiento referencian una propiedad.
type Property struct {
	ID        string
	CompanyID string
	Name      string
	Code      string // código único por empresa (ej. registro sanitario)
	CreatedAt time.Time
	UpdatedAt time.Time
}
