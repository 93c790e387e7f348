// Package ledger contiene las primitivas puras de replay del libro de rebaño
// (servicio de dominio sin acceso a persistencia).
package ledger

import (
	"sort"
	"time"

	"github.com/jhoicas/rebanho-api/internal/domain/entity"
)

// FloorHit registra una salida que habría dejado el saldo negativo.
// Un planificador correcto nunca lo provoca: indica una salida registrada sin ajuste al saldo.
type FloorHit struct {
	MovementID int64
	Date       time.Time
	Shortfall  int64 // cabezas que faltaban
}

// ReplayResult saldo final y violaciones del piso en cero encontradas durante el replay.
type ReplayResult struct {
	Balance   int64
	FloorHits []FloorHit
}

// SortMovements ordena en orden de replay: fecha ascendente, ID ascendente como desempate.
func SortMovements(ms []*entity.Movement) {
	sort.SliceStable(ms, func(i, j int) bool {
		if !ms[i].Date.Equal(ms[j].Date) {
			return ms[i].Date.Before(ms[j].Date)
		}
		return ms[i].ID < ms[j].ID
	})
}

// apply suma entradas y resta salidas; después de cada resta el saldo no baja de cero.
func apply(balance int64, m *entity.Movement) (int64, *FloorHit) {
	balance += m.Delta()
	if balance < 0 {
		hit := &FloorHit{MovementID: m.ID, Date: m.Date, Shortfall: -balance}
		return 0, hit
	}
	return balance, nil
}

// Replay combina el saldo semilla (cantidad del snapshot) con los movimientos ya ordenados.
func Replay(seed int64, ms []*entity.Movement) ReplayResult {
	res := ReplayResult{Balance: seed}
	for _, m := range ms {
		var hit *FloorHit
		res.Balance, hit = apply(res.Balance, m)
		if hit != nil {
			res.FloorHits = append(res.FloorHits, *hit)
		}
	}
	return res
}

// MinBalanceFrom devuelve el menor saldo que el libro alcanza en cualquier punto con fecha >= from:
// el saldo al cierre de from y el saldo después de cada evento posterior.
// Es la cantidad que se puede retirar en from sin dejar ninguna fecha futura en negativo,
// porque una salida nueva en from se aplica después de todos los eventos existentes de ese día.
func MinBalanceFrom(seed int64, ms []*entity.Movement, from time.Time) int64 {
	balance := seed
	i := 0
	for ; i < len(ms) && !ms[i].Date.After(from); i++ {
		balance, _ = apply(balance, ms[i])
	}
	low := balance
	for ; i < len(ms); i++ {
		balance, _ = apply(balance, ms[i])
		if balance < low {
			low = balance
		}
	}
	return low
}

// Conservation calcula snapshot + Σentradas − Σsalidas sin piso.
// Coincide con Replay cuando ninguna salida excede el saldo disponible.
func Conservation(seed int64, ms []*entity.Movement) int64 {
	total := seed
	for _, m := range ms {
		total += m.Delta()
	}
	return total
}
