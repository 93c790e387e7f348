// Package importer lee existencias iniciales de planillas legadas (CSV separado por ';',
// codificado en ISO-8859-1) y las convierte en snapshots o en un script SQL de carga.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/rebanho-api/internal/domain/entity"
)

// Columnas esperadas, en este orden.
var header = []string{"property_id", "category_id", "quantity", "unit_value", "as_of"}

// RowError fila rechazada con su número de línea (1 = cabecera).
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string { return fmt.Sprintf("línea %d: %v", e.Line, e.Err) }

// Options opciones de lectura.
type Options struct {
	Latin1  bool      // decodificar ISO-8859-1 (planillas exportadas de Excel)
	Initial bool      // marcar los snapshots como iniciales
	Now     time.Time // CreatedAt de los snapshots; cero usa time.Now
}

// ParseSnapshots lee el CSV y devuelve los snapshots válidos y las filas rechazadas.
// Un error de lectura del archivo (no de una fila) se devuelve como error.
func ParseSnapshots(r io.Reader, opts Options) ([]*entity.InventorySnapshot, []RowError, error) {
	if opts.Latin1 {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	var (
		snaps   []*entity.InventorySnapshot
		rejects []RowError
		line    int
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				rejects = append(rejects, RowError{Line: line, Err: err})
				continue
			}
			return nil, nil, fmt.Errorf("leer CSV: %w", err)
		}
		if line == 1 && isHeader(rec) {
			continue
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		s, err := parseRow(rec)
		if err != nil {
			rejects = append(rejects, RowError{Line: line, Err: err})
			continue
		}
		s.Initial = opts.Initial
		s.CreatedAt = now
		snaps = append(snaps, s)
	}
	return snaps, rejects, nil
}

func isHeader(rec []string) bool {
	return len(rec) > 0 && strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(rec[0], "\uFEFF")), header[0])
}

func parseRow(rec []string) (*entity.InventorySnapshot, error) {
	if len(rec) != len(header) {
		return nil, fmt.Errorf("se esperaban %d columnas, hay %d", len(header), len(rec))
	}
	for i := range rec {
		rec[i] = strings.TrimSpace(rec[i])
	}
	qty, err := strconv.ParseInt(rec[2], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("cantidad %q: %w", rec[2], err)
	}
	unit, err := parseDecimal(rec[3])
	if err != nil {
		return nil, fmt.Errorf("valor por cabeza %q: %w", rec[3], err)
	}
	asOf, err := parseDate(rec[4])
	if err != nil {
		return nil, fmt.Errorf("fecha %q: %w", rec[4], err)
	}
	s := &entity.InventorySnapshot{
		ID:         uuid.New().String(),
		PropertyID: rec[0],
		CategoryID: rec[1],
		Quantity:   qty,
		UnitValue:  unit,
		AsOf:       asOf,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// parseDecimal acepta "2500.50", "2500,50" y "2.500,50".
func parseDecimal(s string) (decimal.Decimal, error) {
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	return decimal.NewFromString(s)
}

// parseDate acepta AAAA-MM-DD y DD/MM/AAAA.
func parseDate(s string) (time.Time, error) {
	if t, err := entity.ParseDate(s); err == nil {
		return t, nil
	}
	t, err := time.Parse("02/01/2006", s)
	if err != nil {
		return time.Time{}, err
	}
	return entity.DateOnly(t), nil
}

// WriteSeedSQL escribe un INSERT por snapshot. Los duplicados por (propiedad, categoría, fecha)
// se ignoran al cargar.
func WriteSeedSQL(w io.Writer, snaps []*entity.InventorySnapshot) error {
	if _, err := fmt.Fprintf(w, "-- Existencias iniciales importadas (%d filas)\n\n", len(snaps)); err != nil {
		return err
	}
	for _, s := range snaps {
		_, err := fmt.Fprintf(w,
			"INSERT INTO inventory_snapshots (id, property_id, category_id, quantity, unit_value, as_of, initial, created_at)\n"+
				"VALUES ('%s', '%s', '%s', %d, %s, '%s', %t, '%s')\n"+
				"ON CONFLICT (property_id, category_id, as_of) DO NOTHING;\n",
			s.ID, escapeSQL(s.PropertyID), escapeSQL(s.CategoryID), s.Quantity, s.UnitValue.StringFixed(2),
			s.AsOf.Format(entity.DateLayout), s.Initial, s.CreatedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
