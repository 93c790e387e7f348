package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/rebanho-api/internal/domain"
)

// InventorySnapshot es el punto de partida fechado de una (propiedad, categoría):
// cantidad de cabezas y valor por cabeza. No se modifica nunca; un snapshot posterior lo reemplaza
// para el replay de fechas a partir de la suya.
type InventorySnapshot struct {
	ID         string
	PropertyID string
	CategoryID string
	Quantity   int64
	UnitValue  decimal.Decimal // valor por cabeza
	AsOf       time.Time
	Initial    bool // snapshot inicial del libro (único escribible por el motor)
	CreatedAt  time.Time
}

// Validate verifica cantidad y valor no negativos y referencias presentes.
func (s *InventorySnapshot) Validate() error {
	if s.PropertyID == "" || s.CategoryID == "" || s.AsOf.IsZero() {
		return domain.ErrInvalidInput
	}
	if s.Quantity < 0 || s.UnitValue.IsNegative() {
		return domain.ErrInvalidInput
	}
	return nil
}

// TotalValue valor del snapshot (cantidad × valor por cabeza).
func (s *InventorySnapshot) TotalValue() decimal.Decimal {
	return s.UnitValue.Mul(decimal.NewFromInt(s.Quantity))
}
