package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/rebanho-api/internal/domain"
	"github.com/jhoicas/rebanho-api/internal/domain/entity"
	domledger "github.com/jhoicas/rebanho-api/internal/domain/ledger"
	"github.com/jhoicas/rebanho-api/internal/domain/repository"
	"github.com/jhoicas/rebanho-api/pkg/logger"
)

// PolicyKind política de cantidad de una programación.
type PolicyKind string

const (
	// PolicySellAll una sola salida por todo lo disponible (hasta la cantidad de la entrada).
	PolicySellAll PolicyKind = "sell_all"
	// PolicyFixedLots salidas en lotes de tamaño fijo cada CadenceDays.
	PolicyFixedLots PolicyKind = "fixed_lots"
)

// QuantityPolicy parámetros de cantidad. LotSize y CadenceDays en cero toman los valores por defecto.
type QuantityPolicy struct {
	Kind        PolicyKind
	LotSize     int64
	CadenceDays int
	// Horizon última fecha en la que se programa un lote; nil usa el horizonte del plan.
	Horizon *time.Time
}

// Defaults valores de configuración del planificador.
type Defaults struct {
	OffsetDays  int
	LotSize     int64
	CadenceDays int
}

// ScheduleInput programación de salidas derivadas de un movimiento de entrada.
type ScheduleInput struct {
	PlanID                string
	EntryMovementID       int64
	RuleID                string
	OffsetDays            int
	DestinationKind       entity.MovementKind // EXIT_SALE o EXIT_TRANSFER
	DestinationPropertyID string              // solo para EXIT_TRANSFER
	SaleCategoryID        string              // reclasificación previa a la salida (opcional)
	Policy                QuantityPolicy
	Annotation            string
}

// RuleInput aplica una regla a todas las entradas de (propiedad, categoría, plan).
// EntryKinds vacío equivale a todos los tipos ENTRY_*.
type RuleInput struct {
	PlanID                string
	PropertyID            string
	CategoryID            string
	RuleID                string
	EntryKinds            []entity.MovementKind
	OffsetDays            int
	DestinationKind       entity.MovementKind
	DestinationPropertyID string
	SaleCategoryID        string
	Policy                QuantityPolicy
	Annotation            string
}

// ScheduleResult resultado de una ejecución del planificador.
type ScheduleResult struct {
	RunID          string
	PlanID         string
	RuleID         string
	Created        int   // eventos creados (incluye pares de promoción y de traslado)
	Deleted        int64 // eventos derivados de la ejecución anterior
	Requested      int64 // suma de cantidades de las entradas procesadas
	Scheduled      int64 // suma de cantidades de las salidas creadas
	SkippedEntries int
	Warnings       []string
	Events         []*entity.Movement
	FinishedAt     time.Time
}

func (r *ScheduleResult) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// TransferScheduler deriva salidas futuras (venta o traslado) a partir de entradas,
// recortadas al saldo disponible en la fecha de ejecución.
type TransferScheduler struct {
	txRunner  TxRunner
	projector *BalanceProjector
	evolution *CategoryEvolution
	publisher SchedulePublisher
	defaults  Defaults
	log       *logger.Logger
	now       func() time.Time
}

// NewTransferScheduler construye el planificador. publisher puede ser nil.
func NewTransferScheduler(
	txRunner TxRunner,
	projector *BalanceProjector,
	evolution *CategoryEvolution,
	publisher SchedulePublisher,
	defaults Defaults,
	log *logger.Logger,
) *TransferScheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &TransferScheduler{
		txRunner:  txRunner,
		projector: projector,
		evolution: evolution,
		publisher: publisher,
		defaults:  defaults,
		log:       log.Component("transfer_scheduler"),
		now:       time.Now,
	}
}

// Defaults devuelve la configuración por defecto del planificador.
func (s *TransferScheduler) Defaults() Defaults { return s.defaults }

// scheduleParams parámetros comunes a ScheduleAfterEntry y ScheduleRule.
type scheduleParams struct {
	planID                string
	ruleID                string
	offsetDays            int
	destinationKind       entity.MovementKind
	destinationPropertyID string
	saleCategoryID        string
	policy                QuantityPolicy
	annotation            string
}

func (s *TransferScheduler) normalize(p *scheduleParams) error {
	if p.offsetDays <= 0 {
		return domain.ErrInvalidOffset
	}
	if p.ruleID == "" {
		return fmt.Errorf("%w: rule_id requerido", domain.ErrInvalidInput)
	}
	switch p.destinationKind {
	case entity.KindExitSale:
		if p.destinationPropertyID != "" {
			return fmt.Errorf("%w: destination_property_id solo aplica a traslados", domain.ErrInvalidInput)
		}
	case entity.KindExitTransfer:
		if p.destinationPropertyID == "" {
			return fmt.Errorf("%w: destination_property_id requerido para traslados", domain.ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: destino %q no soportado", domain.ErrInvalidInput, p.destinationKind)
	}
	switch p.policy.Kind {
	case "":
		p.policy.Kind = PolicySellAll
	case PolicySellAll, PolicyFixedLots:
	default:
		return fmt.Errorf("%w: política %q no soportada", domain.ErrInvalidInput, p.policy.Kind)
	}
	if p.policy.LotSize < 0 || p.policy.CadenceDays < 0 {
		return fmt.Errorf("%w: lote y cadencia no pueden ser negativos", domain.ErrInvalidInput)
	}
	if p.policy.LotSize == 0 {
		p.policy.LotSize = s.defaults.LotSize
	}
	if p.policy.CadenceDays == 0 {
		p.policy.CadenceDays = s.defaults.CadenceDays
	}
	if p.policy.Kind == PolicyFixedLots && (p.policy.LotSize <= 0 || p.policy.CadenceDays <= 0) {
		return fmt.Errorf("%w: lote y cadencia deben ser positivos", domain.ErrInvalidInput)
	}
	return nil
}

var entryKinds = []entity.MovementKind{
	entity.KindEntryBirth, entity.KindEntryPurchase, entity.KindEntryTransfer, entity.KindEntryPromotion,
}

// scheduleRun estado de una ejecución dentro de la transacción.
type scheduleRun struct {
	params  scheduleParams
	plan    *entity.Plan
	horizon *time.Time
	proj    *BalanceProjector
	movRepo repository.MovementRepository
	result  *ScheduleResult
}

// ScheduleAfterEntry borra las salidas que la regla derivó antes de esta entrada y las
// regenera con los parámetros actuales. Borrado, cálculo e inserción son una sola transacción.
func (s *TransferScheduler) ScheduleAfterEntry(ctx context.Context, in ScheduleInput) (*ScheduleResult, error) {
	params := scheduleParams{
		planID:                in.PlanID,
		ruleID:                in.RuleID,
		offsetDays:            in.OffsetDays,
		destinationKind:       in.DestinationKind,
		destinationPropertyID: in.DestinationPropertyID,
		saleCategoryID:        in.SaleCategoryID,
		policy:                in.Policy,
		annotation:            in.Annotation,
	}
	if err := s.normalize(&params); err != nil {
		return nil, err
	}

	result := s.newResult(params)
	err := s.txRunner.Run(ctx, in.PlanID, func(movRepo repository.MovementRepository, snapRepo repository.SnapshotRepository) error {
		result = s.newResult(params)
		run, err := s.begin(ctx, params, movRepo, snapRepo, result)
		if err != nil {
			return err
		}
		entry, err := movRepo.GetByID(ctx, in.EntryMovementID)
		if err != nil {
			return fmt.Errorf("obtener movimiento de entrada: %w", err)
		}
		if entry == nil {
			return domain.ErrNotFound
		}
		if entry.PlanID != in.PlanID {
			return domain.ErrPlanMismatch
		}
		if !entry.Kind.IsEntry() {
			return domain.ErrNotEntryMovement
		}
		if entry.DerivedBy == params.ruleID {
			return fmt.Errorf("%w: la entrada %d fue generada por la misma regla", domain.ErrInvalidInput, entry.ID)
		}
		if err := s.checkEntryScope(ctx, run, entry); err != nil {
			return err
		}
		if err := s.clear(ctx, run, entry); err != nil {
			return err
		}
		return s.planEntry(ctx, run, entry)
	})
	if err != nil {
		return nil, err
	}
	s.finish(ctx, result)
	return result, nil
}

// ScheduleRule aplica la regla a todas las entradas del alcance (propiedad, categoría, plan)
// en orden (fecha, id). Primero borra la salida previa de la regla para cualquier entrada
// del alcance y luego regenera, de modo que cada entrada ve el saldo sin derivados obsoletos.
func (s *TransferScheduler) ScheduleRule(ctx context.Context, in RuleInput) (*ScheduleResult, error) {
	params := scheduleParams{
		planID:                in.PlanID,
		ruleID:                in.RuleID,
		offsetDays:            in.OffsetDays,
		destinationKind:       in.DestinationKind,
		destinationPropertyID: in.DestinationPropertyID,
		saleCategoryID:        in.SaleCategoryID,
		policy:                in.Policy,
		annotation:            in.Annotation,
	}
	if err := s.normalize(&params); err != nil {
		return nil, err
	}
	kinds := in.EntryKinds
	if len(kinds) == 0 {
		kinds = entryKinds
	}
	for _, k := range kinds {
		if !k.IsEntry() {
			return nil, domain.ErrNotEntryMovement
		}
	}

	result := s.newResult(params)
	err := s.txRunner.Run(ctx, in.PlanID, func(movRepo repository.MovementRepository, snapRepo repository.SnapshotRepository) error {
		result = s.newResult(params)
		run, err := s.begin(ctx, params, movRepo, snapRepo, result)
		if err != nil {
			return err
		}
		if _, err := run.proj.catalog.resolve(ctx, in.PropertyID, in.CategoryID, in.PlanID); err != nil {
			return err
		}
		scope := repository.MovementFilter{
			PlanID:           in.PlanID,
			PropertyID:       in.PropertyID,
			CategoryID:       in.CategoryID,
			Kinds:            entryKinds,
			ExcludeDerivedBy: params.ruleID,
		}
		// La salida previa se borra para toda entrada del alcance, aunque una ejecución
		// anterior haya usado otros tipos de entrada.
		sources, err := movRepo.List(ctx, scope)
		if err != nil {
			return fmt.Errorf("listar entradas: %w", err)
		}
		for _, entry := range sources {
			if err := s.clear(ctx, run, entry); err != nil {
				return err
			}
		}
		scope.Kinds = kinds
		entries, err := movRepo.List(ctx, scope)
		if err != nil {
			return fmt.Errorf("listar entradas: %w", err)
		}
		domledger.SortMovements(entries)
		for _, entry := range entries {
			if err := s.planEntry(ctx, run, entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.finish(ctx, result)
	return result, nil
}

func (s *TransferScheduler) newResult(p scheduleParams) *ScheduleResult {
	return &ScheduleResult{RunID: uuid.New().String(), PlanID: p.planID, RuleID: p.ruleID}
}

// begin resuelve el plan y las referencias de destino, comunes a toda la ejecución.
func (s *TransferScheduler) begin(
	ctx context.Context,
	p scheduleParams,
	movRepo repository.MovementRepository,
	snapRepo repository.SnapshotRepository,
	result *ScheduleResult,
) (*scheduleRun, error) {
	proj := s.projector.bind(movRepo, snapRepo)
	plan, err := proj.catalog.plan(ctx, p.planID)
	if err != nil {
		return nil, err
	}
	if p.destinationPropertyID != "" {
		dest, err := proj.catalog.property(ctx, p.destinationPropertyID)
		if err != nil {
			return nil, err
		}
		if dest.CompanyID != plan.CompanyID {
			return nil, domain.ErrPlanMismatch
		}
	}
	if p.saleCategoryID != "" {
		cat, err := proj.catalog.category(ctx, p.saleCategoryID)
		if err != nil {
			return nil, err
		}
		if cat.CompanyID != plan.CompanyID {
			return nil, domain.ErrPlanMismatch
		}
	}
	horizon := p.policy.Horizon
	if horizon == nil {
		horizon = plan.HorizonDate
	}
	if horizon != nil {
		h := entity.DateOnly(*horizon)
		horizon = &h
	}
	return &scheduleRun{params: p, plan: plan, horizon: horizon, proj: proj, movRepo: movRepo, result: result}, nil
}

func (s *TransferScheduler) checkEntryScope(ctx context.Context, run *scheduleRun, entry *entity.Movement) error {
	_, err := run.proj.catalog.resolve(ctx, entry.PropertyID, entry.CategoryID, run.plan.ID)
	return err
}

// clear borra lo que la regla derivó antes de la entrada.
func (s *TransferScheduler) clear(ctx context.Context, run *scheduleRun, entry *entity.Movement) error {
	id := entry.ID
	n, err := run.movRepo.Delete(ctx, repository.MovementFilter{
		PlanID:           run.plan.ID,
		DerivedBy:        run.params.ruleID,
		SourceMovementID: &id,
	})
	if err != nil {
		return fmt.Errorf("borrar derivados de %d: %w", entry.ID, err)
	}
	run.result.Deleted += n
	return nil
}

func (s *TransferScheduler) planEntry(ctx context.Context, run *scheduleRun, entry *entity.Movement) error {
	if run.params.destinationPropertyID == entry.PropertyID {
		return fmt.Errorf("%w: el traslado debe ir a otra propiedad", domain.ErrInvalidInput)
	}
	res := run.result
	res.Requested += entry.Quantity
	execDate := entity.DateOnly(entry.Date).AddDate(0, 0, run.params.offsetDays)

	if run.params.policy.Kind == PolicySellAll {
		avail, err := run.proj.available(ctx, entry.PropertyID, entry.CategoryID, run.plan.ID, execDate)
		if err != nil {
			return err
		}
		qty := min(entry.Quantity, avail)
		if qty == 0 {
			res.SkippedEntries++
			res.warn("entrada %d: sin saldo disponible el %s, no se programa salida",
				entry.ID, execDate.Format(entity.DateLayout))
			return nil
		}
		if qty < entry.Quantity {
			res.warn("entrada %d: salida recortada de %d a %d el %s",
				entry.ID, entry.Quantity, qty, execDate.Format(entity.DateLayout))
		}
		return s.emit(ctx, run, entry, execDate, qty)
	}

	remaining := entry.Quantity
	emitted := false
	for date := execDate; remaining > 0; date = date.AddDate(0, 0, run.params.policy.CadenceDays) {
		if run.horizon != nil && date.After(*run.horizon) {
			res.warn("entrada %d: %d cabezas sin programar al llegar al horizonte %s",
				entry.ID, remaining, run.horizon.Format(entity.DateLayout))
			break
		}
		avail, err := run.proj.available(ctx, entry.PropertyID, entry.CategoryID, run.plan.ID, date)
		if err != nil {
			return err
		}
		if avail == 0 {
			res.warn("entrada %d: sin saldo disponible el %s, %d cabezas sin programar",
				entry.ID, date.Format(entity.DateLayout), remaining)
			break
		}
		lot := min(run.params.policy.LotSize, remaining, avail)
		if err := s.emit(ctx, run, entry, date, lot); err != nil {
			return err
		}
		emitted = true
		remaining -= lot
	}
	if !emitted {
		res.SkippedEntries++
	}
	return nil
}

// emit crea una salida derivada con su promoción previa y su entrada de traslado, según corresponda.
func (s *TransferScheduler) emit(ctx context.Context, run *scheduleRun, entry *entity.Movement, date time.Time, qty int64) error {
	p := run.params
	sourceID := entry.ID
	annotation := p.annotation
	if annotation == "" {
		annotation = fmt.Sprintf("programado por %s desde movimiento %d", p.ruleID, entry.ID)
	}

	categoryID := entry.CategoryID
	if p.saleCategoryID != "" && p.saleCategoryID != entry.CategoryID {
		pair, err := s.evolution.insertTx(ctx, run.proj, run.movRepo, PromotionInput{
			PlanID:           run.plan.ID,
			PropertyID:       entry.PropertyID,
			SourceCategoryID: entry.CategoryID,
			DestCategoryID:   p.saleCategoryID,
			Quantity:         qty,
			Date:             date,
			Annotation:       annotation,
			DerivedBy:        p.ruleID,
			SourceMovementID: &sourceID,
		})
		if err != nil {
			return fmt.Errorf("reclasificar antes de la salida: %w", err)
		}
		run.result.Created += 2
		run.result.Events = append(run.result.Events, pair.Exit, pair.Entry)
		categoryID = p.saleCategoryID
	}

	now := s.now()
	exit := &entity.Movement{
		PropertyID:       entry.PropertyID,
		CategoryID:       categoryID,
		PlanID:           run.plan.ID,
		Date:             date,
		Kind:             p.destinationKind,
		Quantity:         qty,
		Annotation:       annotation,
		DerivedBy:        p.ruleID,
		SourceMovementID: &sourceID,
		CreatedAt:        now,
	}
	if err := run.movRepo.Create(ctx, exit); err != nil {
		return fmt.Errorf("crear salida programada: %w", err)
	}
	run.result.Created++
	run.result.Events = append(run.result.Events, exit)

	if p.destinationKind == entity.KindExitTransfer {
		in := &entity.Movement{
			PropertyID:       p.destinationPropertyID,
			CategoryID:       categoryID,
			PlanID:           run.plan.ID,
			Date:             date,
			Kind:             entity.KindEntryTransfer,
			Quantity:         qty,
			Annotation:       annotation,
			DerivedBy:        p.ruleID,
			SourceMovementID: &sourceID,
			CreatedAt:        now,
		}
		if err := run.movRepo.Create(ctx, in); err != nil {
			return fmt.Errorf("crear entrada de traslado: %w", err)
		}
		run.result.Created++
		run.result.Events = append(run.result.Events, in)
	}
	run.result.Scheduled += qty
	return nil
}

// finish registra y publica el resultado; solo se llama después del commit.
func (s *TransferScheduler) finish(ctx context.Context, result *ScheduleResult) {
	result.FinishedAt = s.now()
	s.log.Info().
		Str("run_id", result.RunID).
		Str("plan_id", result.PlanID).
		Str("rule_id", result.RuleID).
		Int("created", result.Created).
		Int64("deleted", result.Deleted).
		Int64("requested", result.Requested).
		Int64("scheduled", result.Scheduled).
		Int("skipped", result.SkippedEntries).
		Msg("programación completada")
	for _, w := range result.Warnings {
		s.log.Warn().Str("run_id", result.RunID).Msg(w)
	}
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishScheduleCompleted(ctx, result); err != nil {
		s.log.Warn().Err(err).Str("run_id", result.RunID).Msg("no se pudo publicar el resultado de la programación")
	}
}
