package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/rebanho-api/internal/domain/entity"
	"github.com/jhoicas/rebanho-api/internal/domain/ledger"
)

func day(s string) time.Time {
	t, err := entity.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func mov(id int64, date string, kind entity.MovementKind, qty int64) *entity.Movement {
	return &entity.Movement{ID: id, Date: day(date), Kind: kind, Quantity: qty}
}

func TestSortMovements_FechaYLuegoID(t *testing.T) {
	ms := []*entity.Movement{
		mov(3, "2022-05-01", entity.KindExitSale, 10),
		mov(2, "2022-04-01", entity.KindEntryBirth, 10),
		mov(1, "2022-05-01", entity.KindEntryPurchase, 10),
	}
	ledger.SortMovements(ms)

	assert.Equal(t, []int64{2, 1, 3}, []int64{ms[0].ID, ms[1].ID, ms[2].ID},
		"el ID desempata eventos del mismo día")
}

func TestReplay_SumaEntradasRestaSalidas(t *testing.T) {
	ms := []*entity.Movement{
		mov(1, "2022-04-01", entity.KindEntryTransfer, 480),
		mov(2, "2022-05-01", entity.KindExitTransfer, 200),
		mov(3, "2022-05-10", entity.KindEntryBirth, 15),
		mov(4, "2022-05-20", entity.KindExitDeath, 5),
	}
	res := ledger.Replay(100, ms)

	assert.Equal(t, int64(390), res.Balance)
	assert.Empty(t, res.FloorHits)
	assert.Equal(t, ledger.Conservation(100, ms), res.Balance,
		"sin violaciones el replay coincide con la conservación")
}

func TestReplay_PisoEnCeroRegistraViolacion(t *testing.T) {
	ms := []*entity.Movement{
		mov(1, "2022-04-01", entity.KindEntryPurchase, 10),
		mov(2, "2022-04-02", entity.KindExitSale, 25),
		mov(3, "2022-04-03", entity.KindEntryBirth, 4),
	}
	res := ledger.Replay(0, ms)

	assert.Equal(t, int64(4), res.Balance, "tras el piso el replay continúa desde cero")
	require.Len(t, res.FloorHits, 1)
	assert.Equal(t, int64(2), res.FloorHits[0].MovementID)
	assert.Equal(t, int64(15), res.FloorHits[0].Shortfall)
}

func TestReplay_NuncaNegativo(t *testing.T) {
	kinds := []entity.MovementKind{
		entity.KindEntryBirth, entity.KindExitSale, entity.KindExitDeath,
		entity.KindEntryPromotion, entity.KindExitPromotion, entity.KindExitTransfer,
	}
	var ms []*entity.Movement
	for i := 0; i < 60; i++ {
		ms = append(ms, &entity.Movement{
			ID:       int64(i + 1),
			Date:     day("2022-01-01").AddDate(0, 0, i/3),
			Kind:     kinds[i%len(kinds)],
			Quantity: int64((i*37)%50 + 1),
		})
	}
	for n := 0; n <= len(ms); n++ {
		res := ledger.Replay(7, ms[:n])
		assert.GreaterOrEqual(t, res.Balance, int64(0))
	}
}

func TestMinBalanceFrom_ConsideraSalidasFuturas(t *testing.T) {
	ms := []*entity.Movement{
		mov(1, "2022-04-01", entity.KindEntryTransfer, 480),
		mov(2, "2022-08-01", entity.KindExitSale, 300),
		mov(3, "2022-09-01", entity.KindEntryBirth, 50),
	}

	assert.Equal(t, int64(180), ledger.MinBalanceFrom(0, ms, day("2022-06-30")),
		"solo 180 cabezas pueden salir el 30/06 sin dejar negativo el 01/08")
	assert.Equal(t, int64(180), ledger.MinBalanceFrom(0, ms, day("2022-08-01")))
	assert.Equal(t, int64(230), ledger.MinBalanceFrom(0, ms, day("2022-09-01")))
	assert.Equal(t, int64(0), ledger.MinBalanceFrom(0, ms, day("2022-03-01")),
		"antes de la entrada no hay saldo")
}

func TestMinBalanceFrom_MismoDiaUsaSaldoAlCierre(t *testing.T) {
	ms := []*entity.Movement{
		mov(1, "2022-06-30", entity.KindExitDeath, 10),
		mov(2, "2022-06-30", entity.KindEntryBirth, 30),
	}

	assert.Equal(t, int64(120), ledger.MinBalanceFrom(100, ms, day("2022-06-30")),
		"una salida nueva se aplica tras los eventos existentes del día")
}

func TestMovementKind_Clasificacion(t *testing.T) {
	assert.True(t, entity.KindEntryPromotion.IsEntry())
	assert.False(t, entity.KindEntryPromotion.IsExit())
	assert.True(t, entity.KindExitDeath.IsExit())
	assert.False(t, entity.MovementKind("ADJUSTMENT").Valid())
}
