package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/rebanho-api/internal/domain"
	"github.com/jhoicas/rebanho-api/internal/domain/entity"
)

// AggregateInput selección a consolidar. Todas las combinaciones (propiedad, categoría) se proyectan.
type AggregateInput struct {
	PropertyIDs []string
	CategoryIDs []string
	PlanID      string
	AsOf        time.Time
}

// Totals cantidad y valor acumulados de un grupo.
type Totals struct {
	Quantity   int64
	TotalValue decimal.Decimal
	AvgValue   decimal.Decimal // valor promedio por cabeza; 0 si no hay cabezas
}

func (t *Totals) add(qty int64, value decimal.Decimal) {
	t.Quantity += qty
	t.TotalValue = t.TotalValue.Add(value)
}

func (t *Totals) close() {
	if t.Quantity == 0 {
		t.AvgValue = decimal.Zero
		return
	}
	t.AvgValue = t.TotalValue.Div(decimal.NewFromInt(t.Quantity)).Round(2)
}

// ConsolidationLine saldo valorizado de una (propiedad, categoría).
type ConsolidationLine struct {
	PropertyID string
	CategoryID string
	Quantity   int64
	UnitValue  decimal.Decimal
	TotalValue decimal.Decimal
	// SnapshotDate fecha del snapshot que aporta el valor por cabeza; nil si no hay.
	SnapshotDate *time.Time
}

// Consolidation consolidado de un plan a una fecha.
type Consolidation struct {
	PlanID     string
	AsOf       time.Time
	Lines      []ConsolidationLine
	ByCategory map[string]*Totals
	ByProperty map[string]*Totals
	GrandTotal Totals
}

// ConsolidationAggregator suma saldos y valores de varias propiedades y categorías usando
// el mismo replay que el proyector. Solo lectura.
type ConsolidationAggregator struct {
	projector *BalanceProjector
}

// NewConsolidationAggregator construye el agregador.
func NewConsolidationAggregator(projector *BalanceProjector) *ConsolidationAggregator {
	return &ConsolidationAggregator{projector: projector}
}

// Aggregate consolida la selección para un plan.
func (a *ConsolidationAggregator) Aggregate(ctx context.Context, in AggregateInput) (*Consolidation, error) {
	if len(in.PropertyIDs) == 0 || len(in.CategoryIDs) == 0 || in.AsOf.IsZero() {
		return nil, fmt.Errorf("%w: se requieren propiedades, categorías y fecha", domain.ErrInvalidInput)
	}
	asOf := entity.DateOnly(in.AsOf)
	out := &Consolidation{
		PlanID:     in.PlanID,
		AsOf:       asOf,
		ByCategory: make(map[string]*Totals),
		ByProperty: make(map[string]*Totals),
		GrandTotal: Totals{TotalValue: decimal.Zero, AvgValue: decimal.Zero},
	}

	for _, propertyID := range dedupe(in.PropertyIDs) {
		for _, categoryID := range dedupe(in.CategoryIDs) {
			pr, err := a.projector.Project(ctx, propertyID, categoryID, in.PlanID, asOf)
			if err != nil {
				return nil, err
			}
			line := ConsolidationLine{
				PropertyID: propertyID,
				CategoryID: categoryID,
				Quantity:   pr.Quantity,
				UnitValue:  decimal.Zero,
			}
			if pr.Snapshot != nil {
				line.UnitValue = pr.Snapshot.UnitValue
				d := pr.Snapshot.AsOf
				line.SnapshotDate = &d
			}
			line.TotalValue = line.UnitValue.Mul(decimal.NewFromInt(line.Quantity))
			out.Lines = append(out.Lines, line)

			group(out.ByCategory, categoryID).add(line.Quantity, line.TotalValue)
			group(out.ByProperty, propertyID).add(line.Quantity, line.TotalValue)
			out.GrandTotal.add(line.Quantity, line.TotalValue)
		}
	}
	for _, t := range out.ByCategory {
		t.close()
	}
	for _, t := range out.ByProperty {
		t.close()
	}
	out.GrandTotal.close()
	return out, nil
}

// AggregatePlans consolida la misma selección en varios planes, cada uno por separado,
// para comparar escenarios. El resultado sigue el orden de planIDs.
func (a *ConsolidationAggregator) AggregatePlans(ctx context.Context, in AggregateInput, planIDs []string) ([]*Consolidation, error) {
	if len(planIDs) == 0 {
		return nil, fmt.Errorf("%w: se requiere al menos un plan", domain.ErrInvalidInput)
	}
	out := make([]*Consolidation, 0, len(planIDs))
	for _, planID := range planIDs {
		sel := in
		sel.PlanID = planID
		c, err := a.Aggregate(ctx, sel)
		if err != nil {
			return nil, fmt.Errorf("plan %s: %w", planID, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// SortedKeys devuelve las claves de un grupo en orden estable (para reportes).
func SortedKeys(m map[string]*Totals) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func group(m map[string]*Totals, key string) *Totals {
	t, ok := m[key]
	if !ok {
		t = &Totals{TotalValue: decimal.Zero, AvgValue: decimal.Zero}
		m[key] = t
	}
	return t
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
