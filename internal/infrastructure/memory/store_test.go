package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/rebanho-api/internal/domain"
	"github.com/jhoicas/rebanho-api/internal/domain/entity"
	"github.com/jhoicas/rebanho-api/internal/domain/repository"
	"github.com/jhoicas/rebanho-api/internal/infrastructure/memory"
)

func day(s string) time.Time {
	t, err := entity.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func movement(plan, date string, kind entity.MovementKind, qty int64) *entity.Movement {
	return &entity.Movement{PropertyID: "prop-a", CategoryID: "cat-g", PlanID: plan, Date: day(date), Kind: kind, Quantity: qty}
}

func TestMovementRepo_IDsMonotonicosYOrdenDeReplay(t *testing.T) {
	ctx := context.Background()
	repo := memory.New().Movements()

	late := movement("plan-1", "2022-05-01", entity.KindExitSale, 10)
	early := movement("plan-1", "2022-04-01", entity.KindEntryBirth, 20)
	same := movement("plan-1", "2022-05-01", entity.KindEntryPurchase, 5)
	require.NoError(t, repo.Create(ctx, late))
	require.NoError(t, repo.Create(ctx, early))
	require.NoError(t, repo.Create(ctx, same))
	assert.Less(t, late.ID, early.ID)
	assert.Less(t, early.ID, same.ID)

	ms, err := repo.List(ctx, repository.MovementFilter{PlanID: "plan-1"})
	require.NoError(t, err)
	require.Len(t, ms, 3)
	assert.Equal(t, []int64{early.ID, late.ID, same.ID}, []int64{ms[0].ID, ms[1].ID, ms[2].ID})
}

func TestMovementRepo_PlanesAislados(t *testing.T) {
	ctx := context.Background()
	repo := memory.New().Movements()
	require.NoError(t, repo.Create(ctx, movement("plan-1", "2022-04-01", entity.KindEntryBirth, 20)))
	require.NoError(t, repo.Create(ctx, movement("plan-2", "2022-04-01", entity.KindEntryBirth, 30)))

	ms, err := repo.List(ctx, repository.MovementFilter{PlanID: "plan-2"})
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, int64(30), ms[0].Quantity)

	_, err = repo.List(ctx, repository.MovementFilter{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "sin plan no se lee el libro")
}

func TestMovementRepo_FiltroDeFechas(t *testing.T) {
	ctx := context.Background()
	repo := memory.New().Movements()
	for _, d := range []string{"2022-01-01", "2022-02-01", "2022-03-01"} {
		require.NoError(t, repo.Create(ctx, movement("plan-1", d, entity.KindEntryBirth, 1)))
	}
	after, until := day("2022-01-01"), day("2022-02-01")

	ms, err := repo.List(ctx, repository.MovementFilter{PlanID: "plan-1", After: &after, Until: &until})
	require.NoError(t, err)
	require.Len(t, ms, 1, "After es exclusivo y Until inclusivo")
	assert.Equal(t, day("2022-02-01"), ms[0].Date)
}

func TestMovementRepo_DeleteExigeCriterio(t *testing.T) {
	ctx := context.Background()
	repo := memory.New().Movements()
	src := int64(1)
	derived := movement("plan-1", "2022-06-30", entity.KindExitSale, 10)
	derived.DerivedBy = "venta-90"
	derived.SourceMovementID = &src
	require.NoError(t, repo.Create(ctx, movement("plan-1", "2022-04-01", entity.KindEntryBirth, 10)))
	require.NoError(t, repo.Create(ctx, derived))

	_, err := repo.Delete(ctx, repository.MovementFilter{PlanID: "plan-1"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	n, err := repo.Delete(ctx, repository.MovementFilter{PlanID: "plan-1", DerivedBy: "venta-90", SourceMovementID: &src})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ms, _ := repo.List(ctx, repository.MovementFilter{PlanID: "plan-1"})
	assert.Len(t, ms, 1)
}

func TestSnapshotRepo_DuplicadoYVigente(t *testing.T) {
	ctx := context.Background()
	repo := memory.New().Snapshots()
	snap := func(id, date string, qty int64) *entity.InventorySnapshot {
		return &entity.InventorySnapshot{ID: id, PropertyID: "prop-a", CategoryID: "cat-g", Quantity: qty, UnitValue: decimal.NewFromInt(2500), AsOf: day(date)}
	}
	require.NoError(t, repo.Create(ctx, snap("s1", "2022-01-01", 10)))
	require.NoError(t, repo.Create(ctx, snap("s2", "2022-06-01", 40)))
	assert.ErrorIs(t, repo.Create(ctx, snap("s3", "2022-06-01", 50)), domain.ErrDuplicate)

	got, err := repo.LatestAtOrBefore(ctx, "prop-a", "cat-g", day("2022-05-31"))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "s1", got.ID)

	got, err = repo.LatestAtOrBefore(ctx, "prop-a", "cat-g", day("2021-12-31"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTxRunner_RollbackDescartaCambios(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	runner := memory.NewTxRunner(store)
	boom := errors.New("falla a mitad de la ejecución")

	err := runner.Run(ctx, "plan-1", func(movRepo repository.MovementRepository, _ repository.SnapshotRepository) error {
		if err := movRepo.Create(ctx, movement("plan-1", "2022-04-01", entity.KindEntryBirth, 10)); err != nil {
			return err
		}
		inTx, err := movRepo.List(ctx, repository.MovementFilter{PlanID: "plan-1"})
		if err != nil {
			return err
		}
		assert.Len(t, inTx, 1, "la transacción ve sus propias escrituras")

		outside, _ := store.Movements().List(ctx, repository.MovementFilter{PlanID: "plan-1"})
		assert.Empty(t, outside, "fuera de la transacción no se ve nada antes del commit")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	ms, err := store.Movements().List(ctx, repository.MovementFilter{PlanID: "plan-1"})
	require.NoError(t, err)
	assert.Empty(t, ms)
}

func TestTxRunner_CommitPublicaCambios(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	runner := memory.NewTxRunner(store)

	err := runner.Run(ctx, "plan-1", func(movRepo repository.MovementRepository, _ repository.SnapshotRepository) error {
		return movRepo.Create(ctx, movement("plan-1", "2022-04-01", entity.KindEntryBirth, 10))
	})
	require.NoError(t, err)

	ms, err := store.Movements().List(ctx, repository.MovementFilter{PlanID: "plan-1"})
	require.NoError(t, err)
	assert.Len(t, ms, 1)
}

func TestCatalog_ListByCompanyPagina(t *testing.T) {
	ctx := context.Background()
	repo := memory.New().Properties()
	for _, name := range []string{"Charqueada", "Aurora", "Boa Vista"} {
		require.NoError(t, repo.Create(ctx, &entity.Property{ID: name, CompanyID: "co-1", Name: name}))
	}
	require.NoError(t, repo.Create(ctx, &entity.Property{ID: "otra", CompanyID: "co-2", Name: "Otra"}))

	got, err := repo.ListByCompany(ctx, "co-1", 2, 1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Boa Vista", got[0].Name)
	assert.Equal(t, "Charqueada", got[1].Name)

	missing, err := repo.GetByID(ctx, "no-existe")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMovementRepo_DeleteEnCascadaTransitiva(t *testing.T) {
	ctx := context.Background()
	repo := memory.New().Movements()

	entry := movement("plan-1", "2022-04-01", entity.KindEntryPurchase, 100)
	require.NoError(t, repo.Create(ctx, entry))

	traslado := movement("plan-1", "2022-06-30", entity.KindEntryTransfer, 100)
	traslado.PropertyID = "prop-b"
	traslado.DerivedBy = "traslado-90"
	traslado.SourceMovementID = &entry.ID
	require.NoError(t, repo.Create(ctx, traslado))

	venta := movement("plan-1", "2022-09-28", entity.KindExitSale, 100)
	venta.PropertyID = "prop-b"
	venta.DerivedBy = "venta-90"
	venta.SourceMovementID = &traslado.ID
	require.NoError(t, repo.Create(ctx, venta))

	otro := movement("plan-1", "2022-05-01", entity.KindEntryBirth, 5)
	require.NoError(t, repo.Create(ctx, otro))

	n, err := repo.Delete(ctx, repository.MovementFilter{PlanID: "plan-1", DerivedBy: "traslado-90", SourceMovementID: &entry.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "el conteo no incluye lo borrado en cascada")

	ms, err := repo.List(ctx, repository.MovementFilter{PlanID: "plan-1"})
	require.NoError(t, err)
	require.Len(t, ms, 2, "la venta derivada del traslado borrado tampoco queda")
	assert.Equal(t, entry.ID, ms[0].ID)
	assert.Equal(t, otro.ID, ms[1].ID)
}
