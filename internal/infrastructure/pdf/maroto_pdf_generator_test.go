package pdf_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/rebanho-api/internal/application/ledger"
	"github.com/jhoicas/rebanho-api/internal/infrastructure/pdf"
)

func TestRenderConsolidation(t *testing.T) {
	asOf := time.Date(2022, 6, 30, 0, 0, 0, 0, time.UTC)
	unit := decimal.NewFromInt(2500)
	c := &ledger.Consolidation{
		PlanID: "plan-1",
		AsOf:   asOf,
		Lines: []ledger.ConsolidationLine{
			{PropertyID: "prop-a", CategoryID: "cat-g", Quantity: 100, UnitValue: unit, TotalValue: decimal.NewFromInt(250000)},
			{PropertyID: "prop-b", CategoryID: "cat-g", Quantity: 100, UnitValue: unit, TotalValue: decimal.NewFromInt(250000)},
		},
		ByCategory: map[string]*ledger.Totals{
			"cat-g": {Quantity: 200, TotalValue: decimal.NewFromInt(500000), AvgValue: unit},
		},
		ByProperty: map[string]*ledger.Totals{
			"prop-a": {Quantity: 100, TotalValue: decimal.NewFromInt(250000), AvgValue: unit},
			"prop-b": {Quantity: 100, TotalValue: decimal.NewFromInt(250000), AvgValue: unit},
		},
		GrandTotal: ledger.Totals{Quantity: 200, TotalValue: decimal.NewFromInt(500000), AvgValue: unit},
	}

	out, err := pdf.NewMarotoPDFGenerator().RenderConsolidation(context.Background(), &ledger.ConsolidationReport{
		PlanName:      "Plan base",
		Consolidation: c,
		PropertyNames: map[string]string{"prop-a": "Fazenda Aurora", "prop-b": "Fazenda Boa Vista"},
		CategoryNames: map[string]string{"cat-g": "Garrote"},
		GeneratedAt:   asOf,
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")), "la salida debe ser un PDF")
}

func TestRenderConsolidation_SinDatos(t *testing.T) {
	_, err := pdf.NewMarotoPDFGenerator().RenderConsolidation(context.Background(), &ledger.ConsolidationReport{})
	assert.Error(t, err)
}
