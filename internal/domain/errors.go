package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")

	// Validación del libro de rebaño: no reintentables, el llamador debe corregir la entrada.
	ErrNonPositiveQuantity = errors.New("la cantidad debe ser mayor que cero")
	ErrInvalidMovementKind = errors.New("tipo de movimiento inválido")
	ErrNotEntryMovement    = errors.New("el movimiento origen no es una entrada")
	ErrInvalidOffset       = errors.New("el desfase en días debe ser mayor que cero")
	ErrCategoryCycle       = errors.New("categoría origen y destino son la misma")
	ErrUnknownEntity       = errors.New("propiedad desconocida")
	ErrUnknownCategory     = errors.New("categoría desconocida")
	ErrUnknownPlan         = errors.New("plan desconocido")
	ErrPlanMismatch        = errors.New("las referencias no pertenecen al mismo plan")

	ErrInsufficientBalance = errors.New("saldo insuficiente")
	ErrDerivedMovement     = errors.New("movimiento derivado: lo administra su regla de planificación")
)
