package entity

import (
	"time"

	"github.com/jhoicas/rebanho-api/internal/domain"
)

// MovementKind tipo de movimiento del libro de rebaño.
type MovementKind string

// Tipos de movimiento. Los ENTRY_* suman al saldo y los EXIT_* restan.
const (
	KindEntryBirth     MovementKind = "ENTRY_BIRTH"     // nacimiento
	KindEntryPurchase  MovementKind = "ENTRY_PURCHASE"  // compra
	KindEntryTransfer  MovementKind = "ENTRY_TRANSFER"  // traslado recibido de otra propiedad
	KindEntryPromotion MovementKind = "ENTRY_PROMOTION" // reclasificación entrante
	KindExitSale       MovementKind = "EXIT_SALE"       // venta
	KindExitDeath      MovementKind = "EXIT_DEATH"      // muerte
	KindExitTransfer   MovementKind = "EXIT_TRANSFER"   // traslado enviado a otra propiedad
	KindExitPromotion  MovementKind = "EXIT_PROMOTION"  // reclasificación saliente
)

// IsEntry indica si el tipo suma al saldo.
func (k MovementKind) IsEntry() bool {
	switch k {
	case KindEntryBirth, KindEntryPurchase, KindEntryTransfer, KindEntryPromotion:
		return true
	}
	return false
}

// IsExit indica si el tipo resta del saldo.
func (k MovementKind) IsExit() bool {
	switch k {
	case KindExitSale, KindExitDeath, KindExitTransfer, KindExitPromotion:
		return true
	}
	return false
}

// Valid indica si el tipo es uno de los ocho reconocidos.
func (k MovementKind) Valid() bool { return k.IsEntry() || k.IsExit() }

// Movement es un evento tipado, fechado y cuantificado del libro de un plan.
// ID es monotónico y desempata eventos con la misma fecha.
// DerivedBy y SourceMovementID marcan los eventos generados por una regla de planificación,
// de modo que una nueva ejecución de la misma regla pueda encontrarlos y borrarlos.
type Movement struct {
	ID               int64
	PropertyID       string
	CategoryID       string
	PlanID           string
	Date             time.Time
	Kind             MovementKind
	Quantity         int64
	Annotation       string
	DerivedBy        string
	SourceMovementID *int64
	CreatedAt        time.Time
}

// Validate aplica las reglas de creación: tipo reconocido, cantidad positiva y referencias presentes.
// Las cantidades cero o negativas se rechazan, nunca se ajustan.
func (m *Movement) Validate() error {
	if !m.Kind.Valid() {
		return domain.ErrInvalidMovementKind
	}
	if m.Quantity <= 0 {
		return domain.ErrNonPositiveQuantity
	}
	if m.PropertyID == "" || m.CategoryID == "" || m.PlanID == "" || m.Date.IsZero() {
		return domain.ErrInvalidInput
	}
	return nil
}

// Delta devuelve la contribución con signo del movimiento al saldo.
func (m *Movement) Delta() int64 {
	if m.Kind.IsExit() {
		return -m.Quantity
	}
	return m.Quantity
}

// Derived indica si el movimiento fue generado por una regla de planificación.
func (m *Movement) Derived() bool { return m.DerivedBy != "" }
