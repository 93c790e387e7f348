package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/rebanho-api/internal/domain"
	"github.com/jhoicas/rebanho-api/internal/domain/entity"
	"github.com/jhoicas/rebanho-api/internal/domain/repository"
	"github.com/jhoicas/rebanho-api/pkg/logger"
)

// RegisterMovementInput alta manual de un movimiento (nacimiento, compra, muerte, venta...).
// Los campos de derivación no se exponen: solo los escribe el planificador.
type RegisterMovementInput struct {
	PlanID     string
	PropertyID string
	CategoryID string
	Date       time.Time
	Kind       entity.MovementKind
	Quantity   int64
	Annotation string
	// Force registra una salida aunque deje el saldo negativo (importación de históricos).
	Force bool
}

// MovementUseCase alta, consulta y baja de movimientos manuales del libro.
type MovementUseCase struct {
	txRunner  TxRunner
	projector *BalanceProjector
	movements repository.MovementRepository
	log       *logger.Logger
}

// NewMovementUseCase construye el caso de uso.
func NewMovementUseCase(txRunner TxRunner, projector *BalanceProjector, movements repository.MovementRepository, log *logger.Logger) *MovementUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &MovementUseCase{
		txRunner:  txRunner,
		projector: projector,
		movements: movements,
		log:       log.Component("movement_usecase"),
	}
}

// Register valida y crea el movimiento. Una salida que supere el saldo disponible en su fecha
// (o en cualquier fecha posterior) se rechaza con ErrInsufficientBalance salvo Force.
func (uc *MovementUseCase) Register(ctx context.Context, in RegisterMovementInput) (*entity.Movement, error) {
	m := &entity.Movement{
		PropertyID: in.PropertyID,
		CategoryID: in.CategoryID,
		PlanID:     in.PlanID,
		Date:       entity.DateOnly(in.Date),
		Kind:       in.Kind,
		Quantity:   in.Quantity,
		Annotation: in.Annotation,
		CreatedAt:  time.Now(),
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	err := uc.txRunner.Run(ctx, in.PlanID, func(movRepo repository.MovementRepository, snapRepo repository.SnapshotRepository) error {
		proj := uc.projector.bind(movRepo, snapRepo)
		if _, err := proj.catalog.resolve(ctx, m.PropertyID, m.CategoryID, m.PlanID); err != nil {
			return err
		}
		if m.Kind.IsExit() {
			avail, err := proj.available(ctx, m.PropertyID, m.CategoryID, m.PlanID, m.Date)
			if err != nil {
				return err
			}
			if avail < m.Quantity {
				if !in.Force {
					return fmt.Errorf("%w: disponible %d, solicitado %d en %s",
						domain.ErrInsufficientBalance, avail, m.Quantity, m.Date.Format(entity.DateLayout))
				}
				uc.log.Ledger(m.PlanID, m.PropertyID, m.CategoryID).Warn().
					Int64("available", avail).
					Int64("quantity", m.Quantity).
					Msg("salida forzada por encima del saldo disponible")
			}
		}
		return movRepo.Create(ctx, m)
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// List devuelve los movimientos del plan en orden de replay.
func (uc *MovementUseCase) List(ctx context.Context, filter repository.MovementFilter) ([]*entity.Movement, error) {
	if filter.PlanID == "" {
		return nil, domain.ErrUnknownPlan
	}
	return uc.movements.List(ctx, filter)
}

// Delete borra un movimiento manual junto con los eventos que las reglas derivaron de él.
// Los movimientos derivados no se borran sueltos: se regeneran re-ejecutando su regla.
// Si al quitar la entrada alguna salida posterior queda sin saldo, el borrado se rechaza
// con ErrInsufficientBalance.
func (uc *MovementUseCase) Delete(ctx context.Context, planID string, id int64) (int64, error) {
	var deleted int64
	err := uc.txRunner.Run(ctx, planID, func(movRepo repository.MovementRepository, snapRepo repository.SnapshotRepository) error {
		m, err := movRepo.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("obtener movimiento: %w", err)
		}
		if m == nil || m.PlanID != planID {
			return domain.ErrNotFound
		}
		if m.Derived() {
			return domain.ErrDerivedMovement
		}
		descendants, err := derivedFrom(ctx, movRepo, m)
		if err != nil {
			return err
		}
		proj := uc.projector.bind(movRepo, snapRepo)
		affected := ledgerKeys(append([]*entity.Movement{m}, descendants...))
		before := make(map[ledgerKey]int64, len(affected))
		for k, from := range affected {
			if before[k], err = proj.shortfall(ctx, k.propertyID, k.categoryID, planID, from); err != nil {
				return err
			}
		}

		sourceID := m.ID
		if _, err := movRepo.Delete(ctx, repository.MovementFilter{PlanID: planID, SourceMovementID: &sourceID}); err != nil {
			return fmt.Errorf("borrar derivados: %w", err)
		}
		if _, err := movRepo.Delete(ctx, repository.MovementFilter{PlanID: planID, IDs: []int64{m.ID}}); err != nil {
			return fmt.Errorf("borrar movimiento: %w", err)
		}

		for k, from := range affected {
			after, err := proj.shortfall(ctx, k.propertyID, k.categoryID, planID, from)
			if err != nil {
				return err
			}
			if after > before[k] {
				return fmt.Errorf("%w: sin el movimiento %d faltan %d cabezas en %s/%s desde %s",
					domain.ErrInsufficientBalance, m.ID, after-before[k], k.propertyID, k.categoryID, from.Format(entity.DateLayout))
			}
		}
		deleted = int64(1 + len(descendants))
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

type ledgerKey struct {
	propertyID string
	categoryID string
}

// ledgerKeys agrupa los movimientos por (propiedad, categoría) con la fecha más temprana de cada grupo.
func ledgerKeys(ms []*entity.Movement) map[ledgerKey]time.Time {
	out := make(map[ledgerKey]time.Time, len(ms))
	for _, m := range ms {
		k := ledgerKey{propertyID: m.PropertyID, categoryID: m.CategoryID}
		if from, ok := out[k]; !ok || m.Date.Before(from) {
			out[k] = m.Date
		}
	}
	return out
}

// derivedFrom recorre la cadena de derivación de m: lo que borra la cascada.
func derivedFrom(ctx context.Context, movRepo repository.MovementRepository, m *entity.Movement) ([]*entity.Movement, error) {
	var out []*entity.Movement
	queue := []int64{m.ID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		children, err := movRepo.List(ctx, repository.MovementFilter{PlanID: m.PlanID, SourceMovementID: &id})
		if err != nil {
			return nil, fmt.Errorf("listar derivados de %d: %w", id, err)
		}
		for _, c := range children {
			out = append(out, c)
			queue = append(queue, c.ID)
		}
	}
	return out, nil
}
