// Package ledger contiene los casos de uso del libro de rebaño: proyección de saldos,
// programación de salidas, evolución de categorías y consolidación para reportes.
//
// Todos los puntos que necesitan un saldo pasan por BalanceProjector; ningún caso de uso
// reimplementa el replay snapshot + movimientos.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/rebanho-api/internal/domain/entity"
	domledger "github.com/jhoicas/rebanho-api/internal/domain/ledger"
	"github.com/jhoicas/rebanho-api/internal/domain/repository"
	"github.com/jhoicas/rebanho-api/pkg/logger"
)

// Projection detalle de un saldo proyectado.
type Projection struct {
	PropertyID string
	CategoryID string
	PlanID     string
	AsOf       time.Time
	Quantity   int64
	// Snapshot que sembró el saldo; nil si no hay ninguno anterior a AsOf (semilla 0).
	Snapshot  *entity.InventorySnapshot
	FloorHits []domledger.FloorHit
}

// BalanceProjector reconstruye el saldo de (propiedad, categoría, plan) a una fecha
// a partir del snapshot vigente y los movimientos posteriores. Solo lectura.
type BalanceProjector struct {
	snapshots repository.SnapshotRepository
	movements repository.MovementRepository
	catalog   Catalog
	log       *logger.Logger
}

// NewBalanceProjector construye el proyector.
func NewBalanceProjector(
	snapshots repository.SnapshotRepository,
	movements repository.MovementRepository,
	catalog Catalog,
	log *logger.Logger,
) *BalanceProjector {
	if log == nil {
		log = logger.Nop()
	}
	return &BalanceProjector{
		snapshots: snapshots,
		movements: movements,
		catalog:   catalog,
		log:       log.Component("balance_projector"),
	}
}

// bind devuelve una copia que lee a través de los repositorios de una transacción,
// para que el planificador vea sus propios borrados e inserciones antes del commit.
func (p *BalanceProjector) bind(movements repository.MovementRepository, snapshots repository.SnapshotRepository) *BalanceProjector {
	cp := *p
	cp.movements = movements
	cp.snapshots = snapshots
	return &cp
}

// ComputeBalance devuelve la cantidad (>= 0) de cabezas de la categoría en la propiedad
// para el plan, a la fecha asOf inclusive.
func (p *BalanceProjector) ComputeBalance(ctx context.Context, propertyID, categoryID, planID string, asOf time.Time) (int64, error) {
	pr, err := p.Project(ctx, propertyID, categoryID, planID, asOf)
	if err != nil {
		return 0, err
	}
	return pr.Quantity, nil
}

// Project es ComputeBalance con el detalle del snapshot semilla y las violaciones del piso.
func (p *BalanceProjector) Project(ctx context.Context, propertyID, categoryID, planID string, asOf time.Time) (*Projection, error) {
	if _, err := p.catalog.resolve(ctx, propertyID, categoryID, planID); err != nil {
		return nil, err
	}
	return p.project(ctx, propertyID, categoryID, planID, asOf)
}

// Available devuelve cuántas cabezas pueden salir en la fecha indicada sin que el saldo
// quede negativo en esa fecha ni en ninguna posterior.
func (p *BalanceProjector) Available(ctx context.Context, propertyID, categoryID, planID string, date time.Time) (int64, error) {
	if _, err := p.catalog.resolve(ctx, propertyID, categoryID, planID); err != nil {
		return 0, err
	}
	return p.available(ctx, propertyID, categoryID, planID, date)
}

func (p *BalanceProjector) project(ctx context.Context, propertyID, categoryID, planID string, asOf time.Time) (*Projection, error) {
	asOf = entity.DateOnly(asOf)

	snap, err := p.snapshots.LatestAtOrBefore(ctx, propertyID, categoryID, asOf)
	if err != nil {
		return nil, fmt.Errorf("snapshot vigente: %w", err)
	}
	filter := repository.MovementFilter{
		PlanID:     planID,
		PropertyID: propertyID,
		CategoryID: categoryID,
		Until:      &asOf,
	}
	var seed int64
	if snap != nil {
		seed = snap.Quantity
		after := snap.AsOf
		filter.After = &after
	}
	ms, err := p.movements.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("movimientos del plan: %w", err)
	}
	// El orden de replay no depende del adaptador de persistencia.
	domledger.SortMovements(ms)

	res := domledger.Replay(seed, ms)
	if len(res.FloorHits) > 0 {
		p.reportFloorHits(propertyID, categoryID, planID, res.FloorHits)
	}
	return &Projection{
		PropertyID: propertyID,
		CategoryID: categoryID,
		PlanID:     planID,
		AsOf:       asOf,
		Quantity:   res.Balance,
		Snapshot:   snap,
		FloorHits:  res.FloorHits,
	}, nil
}

func (p *BalanceProjector) available(ctx context.Context, propertyID, categoryID, planID string, date time.Time) (int64, error) {
	date = entity.DateOnly(date)
	seed, ms, err := p.window(ctx, propertyID, categoryID, planID, date)
	if err != nil {
		return 0, err
	}
	return domledger.MinBalanceFrom(seed, ms, date), nil
}

// shortfall suma lo que las salidas desde date no alcanzan a cubrir dentro de la misma ventana.
func (p *BalanceProjector) shortfall(ctx context.Context, propertyID, categoryID, planID string, date time.Time) (int64, error) {
	date = entity.DateOnly(date)
	seed, ms, err := p.window(ctx, propertyID, categoryID, planID, date)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, h := range domledger.Replay(seed, ms).FloorHits {
		if !h.Date.Before(date) {
			total += h.Shortfall
		}
	}
	return total, nil
}

// window devuelve la semilla y los movimientos que cuentan para date: desde el snapshot
// vigente hasta el día anterior al siguiente, donde el saldo se vuelve a sembrar.
func (p *BalanceProjector) window(ctx context.Context, propertyID, categoryID, planID string, date time.Time) (int64, []*entity.Movement, error) {
	snaps, err := p.snapshots.ListByPropertyCategory(ctx, propertyID, categoryID)
	if err != nil {
		return 0, nil, fmt.Errorf("snapshots: %w", err)
	}
	var seed int64
	filter := repository.MovementFilter{PlanID: planID, PropertyID: propertyID, CategoryID: categoryID}
	for _, s := range snaps {
		if !s.AsOf.After(date) {
			seed = s.Quantity
			after := s.AsOf
			filter.After = &after
			continue
		}
		until := s.AsOf.AddDate(0, 0, -1)
		filter.Until = &until
		break
	}
	ms, err := p.movements.List(ctx, filter)
	if err != nil {
		return 0, nil, fmt.Errorf("movimientos del plan: %w", err)
	}
	domledger.SortMovements(ms)
	return seed, ms, nil
}

// reportFloorHits registra con severidad alta cada salida que dejó el saldo negativo.
// El proyector no falla: devuelve el valor recortado para que los reportes sigan disponibles.
func (p *BalanceProjector) reportFloorHits(propertyID, categoryID, planID string, hits []domledger.FloorHit) {
	log := p.log.Ledger(planID, propertyID, categoryID)
	for _, h := range hits {
		log.Error().
			Str("invariant", "saldo_negativo").
			Int64("movement_id", h.MovementID).
			Str("date", h.Date.Format(entity.DateLayout)).
			Int64("shortfall", h.Shortfall).
			Msg("saldo recortado a cero: salida registrada sin ajuste al saldo disponible")
	}
}
