package ledger_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/rebanho-api/internal/application/ledger"
	"github.com/jhoicas/rebanho-api/internal/domain/entity"
	"github.com/jhoicas/rebanho-api/internal/domain/repository"
	"github.com/jhoicas/rebanho-api/internal/infrastructure/memory"
	"github.com/jhoicas/rebanho-api/pkg/logger"
)

const (
	company      = "co-1"
	otherCompany = "co-2"
	propA        = "prop-a"
	propB        = "prop-b"
	propForeign  = "prop-x"
	catGarrote   = "cat-garrote"
	catNovilho   = "cat-novilho"
	catForeign   = "cat-x"
	plan1        = "plan-1"
	plan2        = "plan-2"
)

func day(s string) time.Time {
	t, err := entity.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

// recordingPublisher guarda los resultados publicados; err simula un broker caído.
type recordingPublisher struct {
	mu      sync.Mutex
	results []*ledger.ScheduleResult
	err     error
}

func (p *recordingPublisher) PublishScheduleCompleted(_ context.Context, r *ledger.ScheduleResult) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.results = append(p.results, r)
	return nil
}

type fixture struct {
	ctx        context.Context
	store      *memory.Store
	runner     ledger.TxRunner
	log        *logger.Logger
	logs       *bytes.Buffer
	projector  *ledger.BalanceProjector
	evolution  *ledger.CategoryEvolution
	scheduler  *ledger.TransferScheduler
	aggregator *ledger.ConsolidationAggregator
	movements  *ledger.MovementUseCase
	snapshots  *ledger.SnapshotUseCase
	publisher  *recordingPublisher
}

var testDefaults = ledger.Defaults{OffsetDays: 90, LotSize: 100, CadenceDays: 30}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	logs := &bytes.Buffer{}
	log := logger.NewWithWriter(logs, "debug")

	for _, p := range []*entity.Property{
		{ID: propA, CompanyID: company, Name: "Fazenda Aurora", Code: "AUR"},
		{ID: propB, CompanyID: company, Name: "Fazenda Boa Vista", Code: "BVI"},
		{ID: propForeign, CompanyID: otherCompany, Name: "Estancia Ajena", Code: "AJE"},
	} {
		require.NoError(t, store.Properties().Create(ctx, p))
	}
	for _, c := range []*entity.Category{
		{ID: catGarrote, CompanyID: company, Code: "GAR", Name: "Garrote", SuccessorID: catNovilho, MinAgeMonths: 12, MaxAgeMonths: 24},
		{ID: catNovilho, CompanyID: company, Code: "NOV", Name: "Novilho", MinAgeMonths: 24},
		{ID: catForeign, CompanyID: otherCompany, Code: "GAR", Name: "Garrote"},
	} {
		require.NoError(t, store.Categories().Create(ctx, c))
	}
	for _, p := range []*entity.Plan{
		{ID: plan1, CompanyID: company, Name: "Plan base", StartDate: day("2022-01-01")},
		{ID: plan2, CompanyID: company, Name: "Plan alternativo", StartDate: day("2022-01-01")},
	} {
		require.NoError(t, store.Plans().Create(ctx, p))
	}

	f := &fixture{ctx: ctx, store: store, log: log, logs: logs, publisher: &recordingPublisher{}}
	f.wire(memory.NewTxRunner(store))
	return f
}

// wire construye los casos de uso sobre el runner indicado.
func (f *fixture) wire(runner ledger.TxRunner) {
	f.runner = runner
	f.projector = ledger.NewBalanceProjector(f.store.Snapshots(), f.store.Movements(), f.store.Catalog(), f.log)
	f.evolution = ledger.NewCategoryEvolution(runner, f.projector, f.log)
	f.scheduler = ledger.NewTransferScheduler(runner, f.projector, f.evolution, f.publisher, testDefaults, f.log)
	f.aggregator = ledger.NewConsolidationAggregator(f.projector)
	f.movements = ledger.NewMovementUseCase(runner, f.projector, f.store.Movements(), f.log)
	f.snapshots = ledger.NewSnapshotUseCase(f.store.Snapshots(), f.store.Catalog())
}

func (f *fixture) snapshot(t *testing.T, property, category, date string, qty int64, unitValue int64) {
	t.Helper()
	_, err := f.snapshots.Create(f.ctx, company, ledger.CreateSnapshotInput{
		PropertyID: property,
		CategoryID: category,
		Quantity:   qty,
		UnitValue:  decimal.NewFromInt(unitValue),
		AsOf:       day(date),
		Initial:    true,
	})
	require.NoError(t, err)
}

func (f *fixture) register(t *testing.T, plan, property, category, date string, kind entity.MovementKind, qty int64) *entity.Movement {
	t.Helper()
	m, err := f.movements.Register(f.ctx, ledger.RegisterMovementInput{
		PlanID:     plan,
		PropertyID: property,
		CategoryID: category,
		Date:       day(date),
		Kind:       kind,
		Quantity:   qty,
	})
	require.NoError(t, err)
	return m
}

func (f *fixture) balance(t *testing.T, plan, property, category, date string) int64 {
	t.Helper()
	q, err := f.projector.ComputeBalance(f.ctx, property, category, plan, day(date))
	require.NoError(t, err)
	return q
}

func (f *fixture) list(t *testing.T, filter repository.MovementFilter) []*entity.Movement {
	t.Helper()
	ms, err := f.store.Movements().List(f.ctx, filter)
	require.NoError(t, err)
	return ms
}

// garroteEntry escenario base: snapshot 0 el 01/01 y traslado recibido de 480 el 01/04.
func (f *fixture) garroteEntry(t *testing.T) *entity.Movement {
	t.Helper()
	f.snapshot(t, propA, catGarrote, "2022-01-01", 0, 2500)
	return f.register(t, plan1, propA, catGarrote, "2022-04-01", entity.KindEntryTransfer, 480)
}

func sellAll(entry *entity.Movement) ledger.ScheduleInput {
	return ledger.ScheduleInput{
		PlanID:          entry.PlanID,
		EntryMovementID: entry.ID,
		RuleID:          "venta-90",
		OffsetDays:      90,
		DestinationKind: entity.KindExitSale,
		Policy:          ledger.QuantityPolicy{Kind: ledger.PolicySellAll},
	}
}

var errBoom = errors.New("falla de escritura simulada")

// failingRunner envuelve un runner real y hace fallar la creación de un tipo de movimiento,
// para verificar que la ejecución completa se revierte.
type failingRunner struct {
	inner  ledger.TxRunner
	failOn entity.MovementKind
}

func (r failingRunner) Run(ctx context.Context, planID string, fn func(repository.MovementRepository, repository.SnapshotRepository) error) error {
	return r.inner.Run(ctx, planID, func(movRepo repository.MovementRepository, snapRepo repository.SnapshotRepository) error {
		return fn(failingMovements{MovementRepository: movRepo, failOn: r.failOn}, snapRepo)
	})
}

type failingMovements struct {
	repository.MovementRepository
	failOn entity.MovementKind
}

func (m failingMovements) Create(ctx context.Context, mv *entity.Movement) error {
	if mv.Kind == m.failOn {
		return errBoom
	}
	return m.MovementRepository.Create(ctx, mv)
}
