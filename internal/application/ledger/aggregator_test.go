package ledger_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/rebanho-api/internal/application/ledger"
	"github.com/jhoicas/rebanho-api/internal/domain"
	"github.com/jhoicas/rebanho-api/internal/domain/entity"
)

func TestAggregate_DosPropiedades(t *testing.T) {
	f := newFixture(t)
	f.snapshot(t, propA, catGarrote, "2022-01-01", 100, 2500)
	f.snapshot(t, propB, catGarrote, "2022-01-01", 100, 2500)

	c, err := f.aggregator.Aggregate(f.ctx, ledger.AggregateInput{
		PropertyIDs: []string{propA, propB},
		CategoryIDs: []string{catGarrote},
		PlanID:      plan1,
		AsOf:        day("2022-06-30"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(200), c.GrandTotal.Quantity)
	assert.True(t, decimal.NewFromInt(500000).Equal(c.GrandTotal.TotalValue), c.GrandTotal.TotalValue.String())
	assert.True(t, decimal.NewFromInt(2500).Equal(c.GrandTotal.AvgValue))
	assert.Len(t, c.Lines, 2)
	assert.Equal(t, int64(200), c.ByCategory[catGarrote].Quantity)
	assert.Equal(t, int64(100), c.ByProperty[propA].Quantity)
}

func TestAggregate_UsaElSaldoProyectado(t *testing.T) {
	f := newFixture(t)
	f.snapshot(t, propA, catGarrote, "2022-01-01", 100, 2500)
	f.snapshot(t, propA, catNovilho, "2022-01-01", 10, 3100)
	f.register(t, plan1, propA, catGarrote, "2022-03-01", entity.KindExitSale, 40)

	c, err := f.aggregator.Aggregate(f.ctx, ledger.AggregateInput{
		PropertyIDs: []string{propA},
		CategoryIDs: []string{catGarrote, catNovilho, catGarrote},
		PlanID:      plan1,
		AsOf:        day("2022-06-30"),
	})
	require.NoError(t, err)
	require.Len(t, c.Lines, 2, "las categorías repetidas se consolidan una sola vez")
	assert.Equal(t, int64(70), c.GrandTotal.Quantity)
	assert.True(t, decimal.NewFromInt(181000).Equal(c.GrandTotal.TotalValue))
	assert.True(t, decimal.RequireFromString("2585.71").Equal(c.GrandTotal.AvgValue), c.GrandTotal.AvgValue.String())
}

func TestAggregate_SinCabezasPromedioCero(t *testing.T) {
	f := newFixture(t)

	c, err := f.aggregator.Aggregate(f.ctx, ledger.AggregateInput{
		PropertyIDs: []string{propA},
		CategoryIDs: []string{catGarrote},
		PlanID:      plan1,
		AsOf:        day("2022-06-30"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), c.GrandTotal.Quantity)
	assert.True(t, c.GrandTotal.AvgValue.IsZero())
	assert.Nil(t, c.Lines[0].SnapshotDate)
}

func TestAggregate_Validaciones(t *testing.T) {
	f := newFixture(t)

	_, err := f.aggregator.Aggregate(f.ctx, ledger.AggregateInput{PlanID: plan1, AsOf: day("2022-06-30")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.aggregator.Aggregate(f.ctx, ledger.AggregateInput{
		PropertyIDs: []string{propA, propForeign},
		CategoryIDs: []string{catGarrote},
		PlanID:      plan1,
		AsOf:        day("2022-06-30"),
	})
	assert.ErrorIs(t, err, domain.ErrPlanMismatch)
}

func TestAggregatePlans_ComparaEscenarios(t *testing.T) {
	f := newFixture(t)
	f.snapshot(t, propA, catGarrote, "2022-01-01", 100, 2500)
	f.register(t, plan2, propA, catGarrote, "2022-02-01", entity.KindExitSale, 100)

	out, err := f.aggregator.AggregatePlans(f.ctx, ledger.AggregateInput{
		PropertyIDs: []string{propA},
		CategoryIDs: []string{catGarrote},
		AsOf:        day("2022-06-30"),
	}, []string{plan1, plan2})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, plan1, out[0].PlanID)
	assert.Equal(t, int64(100), out[0].GrandTotal.Quantity)
	assert.Equal(t, int64(0), out[1].GrandTotal.Quantity)
}
