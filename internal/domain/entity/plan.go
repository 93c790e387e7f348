package entity

import "time"

// Plan es un escenario de planificación: una partición independiente del libro.
// Los planes nunca comparten movimientos.
type Plan struct {
	ID          string
	CompanyID   string
	Name        string
	StartDate   time.Time
	HorizonDate *time.Time // límite de las programaciones por lotes; nil = sin límite
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
