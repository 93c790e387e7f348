package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/rebanho-api/internal/application/dto"
	"github.com/jhoicas/rebanho-api/internal/application/ledger"
	"github.com/jhoicas/rebanho-api/internal/domain/entity"
)

func toMovementResponse(m *entity.Movement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:               m.ID,
		PlanID:           m.PlanID,
		PropertyID:       m.PropertyID,
		CategoryID:       m.CategoryID,
		Date:             m.Date.Format(entity.DateLayout),
		Kind:             string(m.Kind),
		Quantity:         m.Quantity,
		Annotation:       m.Annotation,
		DerivedBy:        m.DerivedBy,
		SourceMovementID: m.SourceMovementID,
		CreatedAt:        m.CreatedAt,
	}
}

func toMovementResponses(list []*entity.Movement) []dto.MovementResponse {
	out := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, toMovementResponse(m))
	}
	return out
}

func toSnapshotResponse(s *entity.InventorySnapshot) dto.SnapshotResponse {
	return dto.SnapshotResponse{
		ID:         s.ID,
		PropertyID: s.PropertyID,
		CategoryID: s.CategoryID,
		Quantity:   s.Quantity,
		UnitValue:  s.UnitValue,
		TotalValue: s.TotalValue(),
		AsOf:       s.AsOf.Format(entity.DateLayout),
		Initial:    s.Initial,
		CreatedAt:  s.CreatedAt,
	}
}

func toBalanceResponse(p *ledger.Projection) dto.BalanceResponse {
	out := dto.BalanceResponse{
		PlanID:     p.PlanID,
		PropertyID: p.PropertyID,
		CategoryID: p.CategoryID,
		AsOf:       p.AsOf.Format(entity.DateLayout),
		Quantity:   p.Quantity,
	}
	if p.Snapshot != nil {
		out.SnapshotID = p.Snapshot.ID
		out.SnapshotDate = p.Snapshot.AsOf.Format(entity.DateLayout)
	}
	for _, h := range p.FloorHits {
		out.FloorHits = append(out.FloorHits, dto.FloorHitResponse{
			MovementID: h.MovementID,
			Date:       h.Date.Format(entity.DateLayout),
			Shortfall:  h.Shortfall,
		})
	}
	return out
}

func toScheduleResponse(r *ledger.ScheduleResult) dto.ScheduleResponse {
	warnings := r.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return dto.ScheduleResponse{
		RunID:          r.RunID,
		PlanID:         r.PlanID,
		RuleID:         r.RuleID,
		Created:        r.Created,
		Deleted:        r.Deleted,
		Requested:      r.Requested,
		Scheduled:      r.Scheduled,
		SkippedEntries: r.SkippedEntries,
		Warnings:       warnings,
		Events:         toMovementResponses(r.Events),
	}
}

func toTotalsResponse(t *ledger.Totals) dto.TotalsResponse {
	return dto.TotalsResponse{Quantity: t.Quantity, TotalValue: t.TotalValue, AvgValue: t.AvgValue}
}

func toConsolidationResponse(c *ledger.Consolidation) dto.ConsolidationResponse {
	out := dto.ConsolidationResponse{
		PlanID:     c.PlanID,
		AsOf:       c.AsOf.Format(entity.DateLayout),
		Lines:      make([]dto.ConsolidationLineResponse, 0, len(c.Lines)),
		ByCategory: make(map[string]dto.TotalsResponse, len(c.ByCategory)),
		ByProperty: make(map[string]dto.TotalsResponse, len(c.ByProperty)),
		GrandTotal: toTotalsResponse(&c.GrandTotal),
	}
	for _, l := range c.Lines {
		line := dto.ConsolidationLineResponse{
			PropertyID: l.PropertyID,
			CategoryID: l.CategoryID,
			Quantity:   l.Quantity,
			UnitValue:  l.UnitValue,
			TotalValue: l.TotalValue,
		}
		if l.SnapshotDate != nil {
			line.SnapshotDate = l.SnapshotDate.Format(entity.DateLayout)
		}
		out.Lines = append(out.Lines, line)
	}
	for k, t := range c.ByCategory {
		out.ByCategory[k] = toTotalsResponse(t)
	}
	for k, t := range c.ByProperty {
		out.ByProperty[k] = toTotalsResponse(t)
	}
	return out
}

// parseDay interpreta AAAA-MM-DD; vacío devuelve fallback.
func parseDay(s string, fallback time.Time) (time.Time, bool) {
	if s == "" {
		return entity.DateOnly(fallback), true
	}
	t, err := entity.ParseDate(s)
	return t, err == nil
}

// queryDate lee un parámetro de fecha opcional; nil si no viene.
func queryDate(c *fiber.Ctx, key string) (*time.Time, bool) {
	s := c.Query(key)
	if s == "" {
		return nil, true
	}
	t, err := entity.ParseDate(s)
	if err != nil {
		return nil, false
	}
	return &t, true
}

// splitList separa una lista por comas descartando vacíos.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
