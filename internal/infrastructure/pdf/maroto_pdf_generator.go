// Package pdf genera el reporte consolidado del rebaño (saldos valorizados por
// propiedad y categoría a una fecha) con Maroto v2.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Título + Plan       │  Fecha de corte + emisión     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Propiedad | Categoría | Cabezas | Valor/cab | Total  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN POR CATEGORÍA / POR PROPIEDAD                       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTAL GENERAL + QR de verificación                          │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/rebanho-api/internal/application/ledger"
	"github.com/jhoicas/rebanho-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 34, Green: 94, Blue: 52}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa ledger.ConsolidationRenderer usando Maroto v2.
type MarotoPDFGenerator struct{}

var _ ledger.ConsolidationRenderer = (*MarotoPDFGenerator)(nil)

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// RenderConsolidation genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) RenderConsolidation(_ context.Context, report *ledger.ConsolidationReport) ([]byte, error) {
	if report == nil || report.Consolidation == nil {
		return nil, fmt.Errorf("pdf: consolidado vacío")
	}
	title := nonEmpty(report.Title, "Consolidado de rebaño")
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(title, true).
		Build()

	m := maroto.New(cfg)
	c := report.Consolidation

	m.AddRows(headerRow(title, report))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeaderRow("Propiedad", "Categoría", "Cabezas", "Valor/cab.", "Total"))
	m.AddRows(lineRows(c.Lines, report.PropertyNames, report.CategoryNames)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(sectionRow("RESUMEN POR CATEGORÍA"))
	m.AddRows(summaryRows(c.ByCategory, report.CategoryNames)...)
	m.AddRows(sectionRow("RESUMEN POR PROPIEDAD"))
	m.AddRows(summaryRows(c.ByProperty, report.PropertyNames)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalRow(c))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(title string, report *ledger.ConsolidationReport) core.Row {
	c := report.Consolidation
	return row.New(18).Add(
		col.New(7).Add(
			text.New(title, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Plan: "+nonEmpty(report.PlanName, c.PlanID), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("FECHA DE CORTE", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(c.AsOf.Format("02/01/2006"), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Emitido: "+report.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func tableHeaderRow(labels ...string) core.Row {
	sizes := []int{4, 3, 1, 2, 2}
	aligns := []align.Type{align.Left, align.Left, align.Right, align.Right, align.Right}
	cols := make([]core.Col, 0, len(labels))
	for i, l := range labels {
		cols = append(cols, col.New(sizes[i]).Add(text.New(l, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: aligns[i], Color: colorWhite, Top: 2, Left: 1, Right: 1,
		})))
	}
	return row.New(8).Add(cols...).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

func lineRows(lines []ledger.ConsolidationLine, propertyNames, categoryNames map[string]string) []core.Row {
	rows := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, row.New(7).Add(
			col.New(4).Add(text.New(nameOf(propertyNames, l.PropertyID), props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(3).Add(text.New(nameOf(categoryNames, l.CategoryID), props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(1).Add(text.New(formatMoney(fmt.Sprint(l.Quantity)), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(money(l.UnitValue), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(money(l.TotalValue), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return rows
}

func sectionRow(title string) core.Row {
	return row.New(7).Add(col.New(12).Add(text.New(title, props.Text{
		Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 2,
	})))
}

func summaryRows(groups map[string]*ledger.Totals, names map[string]string) []core.Row {
	keys := ledger.SortedKeys(groups)
	rows := make([]core.Row, 0, len(keys))
	for _, k := range keys {
		t := groups[k]
		rows = append(rows, row.New(6).Add(
			col.New(7).Add(text.New(nameOf(names, k), props.Text{Size: 8, Top: 1, Left: 2})),
			col.New(1).Add(text.New(formatMoney(fmt.Sprint(t.Quantity)), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New("prom. "+money(t.AvgValue), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1, Color: colorGray})),
			col.New(2).Add(text.New(money(t.TotalValue), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return rows
}

// totalRow total general con un QR que resume el corte (plan, fecha, cabezas, valor).
func totalRow(c *ledger.Consolidation) core.Row {
	qr := strings.Join([]string{
		c.PlanID,
		c.AsOf.Format(entity.DateLayout),
		fmt.Sprint(c.GrandTotal.Quantity),
		c.GrandTotal.TotalValue.StringFixed(2),
	}, "|")
	return row.New(36).Add(
		col.New(3).Add(code.NewQr(qr, props.Rect{Percent: 90, Center: true})),
		col.New(4),
		col.New(5).Add(
			text.New("TOTAL CABEZAS: "+formatMoney(fmt.Sprint(c.GrandTotal.Quantity)), props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Top: 4, Right: 1,
			}),
			text.New("VALOR PROMEDIO: "+money(c.GrandTotal.AvgValue), props.Text{
				Size: 9, Align: align.Right, Top: 11, Right: 1, Color: colorGray,
			}),
			text.New("VALOR TOTAL: "+money(c.GrandTotal.TotalValue), props.Text{
				Style: fontstyle.Bold, Size: 11, Align: align.Right, Top: 18, Right: 1, Color: colorPrimary,
			}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func nameOf(names map[string]string, id string) string {
	if n, ok := names[id]; ok && n != "" {
		return n
	}
	return id
}

func money(d decimal.Decimal) string {
	return "$" + formatMoney(d.StringFixed(0))
}

// formatMoney inserta puntos de miles en un string numérico sin decimales.
// Ej: "25000" → "25.000", "1000000" → "1.000.000"
func formatMoney(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return string(buf)
}
