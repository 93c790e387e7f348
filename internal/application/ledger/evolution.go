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

// PromotionInput reclasificación de cabezas de una categoría a otra en una fecha.
// DerivedBy y SourceMovementID solo los completa el planificador.
type PromotionInput struct {
	PlanID           string
	PropertyID       string
	SourceCategoryID string
	DestCategoryID   string
	Quantity         int64
	Date             time.Time
	Annotation       string
	DerivedBy        string
	SourceMovementID *int64
}

// PromotionPair par de eventos de una promoción: salida de la categoría origen y entrada
// en la destino, con la misma fecha.
type PromotionPair struct {
	Exit  *entity.Movement
	Entry *entity.Movement
}

// CategoryEvolution inserta promociones de categoría como pares atómicos.
type CategoryEvolution struct {
	txRunner  TxRunner
	projector *BalanceProjector
	log       *logger.Logger
}

// NewCategoryEvolution construye el motor de evolución de categorías.
func NewCategoryEvolution(txRunner TxRunner, projector *BalanceProjector, log *logger.Logger) *CategoryEvolution {
	if log == nil {
		log = logger.Nop()
	}
	return &CategoryEvolution{txRunner: txRunner, projector: projector, log: log.Component("category_evolution")}
}

// InsertPromotion crea el par (EXIT_PROMOTION, ENTRY_PROMOTION) en una sola transacción:
// se crean los dos o ninguno.
func (e *CategoryEvolution) InsertPromotion(ctx context.Context, in PromotionInput) (*PromotionPair, error) {
	if err := validatePromotion(in); err != nil {
		return nil, err
	}
	var pair *PromotionPair
	err := e.txRunner.Run(ctx, in.PlanID, func(movRepo repository.MovementRepository, snapRepo repository.SnapshotRepository) error {
		var err error
		pair, err = e.insertTx(ctx, e.projector.bind(movRepo, snapRepo), movRepo, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// InsertPromotionTx variante de InsertPromotion que reutiliza los repositorios de una
// transacción externa; el commit queda a cargo del llamador.
func (e *CategoryEvolution) InsertPromotionTx(
	ctx context.Context,
	movRepo repository.MovementRepository,
	snapRepo repository.SnapshotRepository,
	in PromotionInput,
) (*PromotionPair, error) {
	return e.insertTx(ctx, e.projector.bind(movRepo, snapRepo), movRepo, in)
}

// PromoteByAge pasa todo el saldo disponible de la categoría a su sucesora configurada.
// Devuelve (nil, nil) cuando no hay cabezas que promover.
func (e *CategoryEvolution) PromoteByAge(ctx context.Context, planID, propertyID, categoryID string, date time.Time) (*PromotionPair, error) {
	var pair *PromotionPair
	err := e.txRunner.Run(ctx, planID, func(movRepo repository.MovementRepository, snapRepo repository.SnapshotRepository) error {
		proj := e.projector.bind(movRepo, snapRepo)
		sc, err := proj.catalog.resolve(ctx, propertyID, categoryID, planID)
		if err != nil {
			return err
		}
		if !sc.Category.HasSuccessor() {
			return fmt.Errorf("%w: la categoría %s no tiene sucesora", domain.ErrInvalidInput, sc.Category.Code)
		}
		qty, err := proj.available(ctx, propertyID, categoryID, planID, date)
		if err != nil {
			return err
		}
		if qty == 0 {
			e.log.Info().
				Str("plan_id", planID).
				Str("property_id", propertyID).
				Str("category_id", categoryID).
				Msg("evolución por edad sin cabezas disponibles")
			return nil
		}
		pair, err = e.insertTx(ctx, proj, movRepo, PromotionInput{
			PlanID:           planID,
			PropertyID:       propertyID,
			SourceCategoryID: categoryID,
			DestCategoryID:   sc.Category.SuccessorID,
			Quantity:         qty,
			Date:             date,
			Annotation:       "evolución por edad",
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

func validatePromotion(in PromotionInput) error {
	if in.SourceCategoryID != "" && in.SourceCategoryID == in.DestCategoryID {
		return domain.ErrCategoryCycle
	}
	if in.Quantity <= 0 {
		return domain.ErrNonPositiveQuantity
	}
	if in.PlanID == "" || in.PropertyID == "" || in.Date.IsZero() {
		return domain.ErrInvalidInput
	}
	return nil
}

// insertTx crea el par con los repositorios de la transacción del llamador.
func (e *CategoryEvolution) insertTx(
	ctx context.Context,
	proj *BalanceProjector,
	movRepo repository.MovementRepository,
	in PromotionInput,
) (*PromotionPair, error) {
	if err := validatePromotion(in); err != nil {
		return nil, err
	}
	sc, err := proj.catalog.resolve(ctx, in.PropertyID, in.SourceCategoryID, in.PlanID)
	if err != nil {
		return nil, err
	}
	dest, err := proj.catalog.category(ctx, in.DestCategoryID)
	if err != nil {
		return nil, err
	}
	if dest.ID == sc.Category.ID {
		return nil, domain.ErrCategoryCycle
	}
	if dest.CompanyID != sc.Plan.CompanyID {
		return nil, domain.ErrPlanMismatch
	}

	date := entity.DateOnly(in.Date)
	avail, err := proj.available(ctx, in.PropertyID, in.SourceCategoryID, in.PlanID, date)
	if err != nil {
		return nil, err
	}
	if avail < in.Quantity {
		return nil, fmt.Errorf("%w: disponible %d, solicitado %d en %s",
			domain.ErrInsufficientBalance, avail, in.Quantity, date.Format(entity.DateLayout))
	}

	annotation := in.Annotation
	if annotation == "" {
		annotation = fmt.Sprintf("promoción %s → %s", sc.Category.Code, dest.Code)
	}
	now := time.Now()
	exit := &entity.Movement{
		PropertyID:       in.PropertyID,
		CategoryID:       sc.Category.ID,
		PlanID:           in.PlanID,
		Date:             date,
		Kind:             entity.KindExitPromotion,
		Quantity:         in.Quantity,
		Annotation:       annotation,
		DerivedBy:        in.DerivedBy,
		SourceMovementID: in.SourceMovementID,
		CreatedAt:        now,
	}
	entry := &entity.Movement{
		PropertyID:       in.PropertyID,
		CategoryID:       dest.ID,
		PlanID:           in.PlanID,
		Date:             date,
		Kind:             entity.KindEntryPromotion,
		Quantity:         in.Quantity,
		Annotation:       annotation,
		DerivedBy:        in.DerivedBy,
		SourceMovementID: in.SourceMovementID,
		CreatedAt:        now,
	}
	if err := movRepo.Create(ctx, exit); err != nil {
		return nil, err
	}
	if err := movRepo.Create(ctx, entry); err != nil {
		return nil, err
	}
	e.log.Debug().
		Str("plan_id", in.PlanID).
		Str("property_id", in.PropertyID).
		Str("from", sc.Category.Code).
		Str("to", dest.Code).
		Int64("quantity", in.Quantity).
		Msg("promoción registrada")
	return &PromotionPair{Exit: exit, Entry: entry}, nil
}
