package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateSnapshotRequest existencia inicial de (propiedad, categoría) a una fecha.
type CreateSnapshotRequest struct {
	PropertyID string          `json:"property_id" validate:"required"`
	CategoryID string          `json:"category_id" validate:"required"`
	Quantity   int64           `json:"quantity" validate:"min=0"`
	UnitValue  decimal.Decimal `json:"unit_value"`
	AsOf       string          `json:"as_of" validate:"required"`
	Initial    bool            `json:"initial"`
}

// SnapshotResponse salida de un snapshot.
type SnapshotResponse struct {
	ID         string          `json:"id"`
	PropertyID string          `json:"property_id"`
	CategoryID string          `json:"category_id"`
	Quantity   int64           `json:"quantity"`
	UnitValue  decimal.Decimal `json:"unit_value"`
	TotalValue decimal.Decimal `json:"total_value"`
	AsOf       string          `json:"as_of"`
	Initial    bool            `json:"initial"`
	CreatedAt  time.Time       `json:"created_at"`
}

// RegisterMovementRequest alta manual de un movimiento del libro.
// Force permite registrar una salida por encima del saldo disponible (queda en el log).
type RegisterMovementRequest struct {
	PropertyID string `json:"property_id" validate:"required"`
	CategoryID string `json:"category_id" validate:"required"`
	Date       string `json:"date" validate:"required"`
	Kind       string `json:"kind" validate:"required"`
	Quantity   int64  `json:"quantity" validate:"required,gt=0"`
	Annotation string `json:"annotation"`
	Force      bool   `json:"force"`
}

// MovementResponse salida de un movimiento.
type MovementResponse struct {
	ID               int64     `json:"id"`
	PlanID           string    `json:"plan_id"`
	PropertyID       string    `json:"property_id"`
	CategoryID       string    `json:"category_id"`
	Date             string    `json:"date"`
	Kind             string    `json:"kind"`
	Quantity         int64     `json:"quantity"`
	Annotation       string    `json:"annotation,omitempty"`
	DerivedBy        string    `json:"derived_by,omitempty"`
	SourceMovementID *int64    `json:"source_movement_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// MovementListResponse movimientos en orden de replay.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
}

// FloorHitResponse salida que habría dejado el saldo negativo.
type FloorHitResponse struct {
	MovementID int64  `json:"movement_id"`
	Date       string `json:"date"`
	Shortfall  int64  `json:"shortfall"`
}

// BalanceResponse saldo proyectado de (propiedad, categoría, plan).
type BalanceResponse struct {
	PlanID       string             `json:"plan_id"`
	PropertyID   string             `json:"property_id"`
	CategoryID   string             `json:"category_id"`
	AsOf         string             `json:"as_of"`
	Quantity     int64              `json:"quantity"`
	Available    *int64             `json:"available,omitempty"`
	SnapshotID   string             `json:"snapshot_id,omitempty"`
	SnapshotDate string             `json:"snapshot_date,omitempty"`
	FloorHits    []FloorHitResponse `json:"floor_hits,omitempty"`
}

// QuantityPolicyRequest política de cantidad. Vacío = sell_all.
type QuantityPolicyRequest struct {
	Kind        string `json:"kind"`
	LotSize     int64  `json:"lot_size"`
	CadenceDays int    `json:"cadence_days"`
	Horizon     string `json:"horizon"`
}

// ScheduleRequest programación de salidas a partir de una entrada.
// OffsetDays nil toma el desfase configurado.
type ScheduleRequest struct {
	EntryMovementID       int64                 `json:"entry_movement_id" validate:"required"`
	RuleID                string                `json:"rule_id" validate:"required"`
	OffsetDays            *int                  `json:"offset_days"`
	DestinationKind       string                `json:"destination_kind" validate:"required"`
	DestinationPropertyID string                `json:"destination_property_id"`
	SaleCategoryID        string                `json:"sale_category_id"`
	Policy                QuantityPolicyRequest `json:"policy"`
	Annotation            string                `json:"annotation"`
}

// ScheduleRuleRequest aplica una regla a todas las entradas de (propiedad, categoría).
type ScheduleRuleRequest struct {
	PropertyID            string                `json:"property_id" validate:"required"`
	CategoryID            string                `json:"category_id" validate:"required"`
	RuleID                string                `json:"rule_id" validate:"required"`
	EntryKinds            []string              `json:"entry_kinds"`
	OffsetDays            *int                  `json:"offset_days"`
	DestinationKind       string                `json:"destination_kind" validate:"required"`
	DestinationPropertyID string                `json:"destination_property_id"`
	SaleCategoryID        string                `json:"sale_category_id"`
	Policy                QuantityPolicyRequest `json:"policy"`
	Annotation            string                `json:"annotation"`
}

// ScheduleResponse resumen de una ejecución del planificador.
type ScheduleResponse struct {
	RunID          string             `json:"run_id"`
	PlanID         string             `json:"plan_id"`
	RuleID         string             `json:"rule_id"`
	Created        int                `json:"created"`
	Deleted        int64              `json:"deleted"`
	Requested      int64              `json:"requested"`
	Scheduled      int64              `json:"scheduled"`
	SkippedEntries int                `json:"skipped_entries"`
	Warnings       []string           `json:"warnings"`
	Events         []MovementResponse `json:"events"`
}

// PromotionRequest reclasificación manual entre categorías.
type PromotionRequest struct {
	PropertyID       string `json:"property_id" validate:"required"`
	SourceCategoryID string `json:"source_category_id" validate:"required"`
	DestCategoryID   string `json:"dest_category_id"`
	Quantity         int64  `json:"quantity"`
	Date             string `json:"date" validate:"required"`
	Annotation       string `json:"annotation"`
	// ByAge promueve todo el saldo disponible a la categoría sucesora configurada.
	ByAge bool `json:"by_age"`
}

// PromotionResponse par de eventos creado; vacío si no había saldo para promover.
type PromotionResponse struct {
	Exit  *MovementResponse `json:"exit,omitempty"`
	Entry *MovementResponse `json:"entry,omitempty"`
}

// TotalsResponse subtotal de un grupo.
type TotalsResponse struct {
	Quantity   int64           `json:"quantity"`
	TotalValue decimal.Decimal `json:"total_value"`
	AvgValue   decimal.Decimal `json:"avg_value"`
}

// ConsolidationLineResponse saldo valorizado de una (propiedad, categoría).
type ConsolidationLineResponse struct {
	PropertyID   string          `json:"property_id"`
	CategoryID   string          `json:"category_id"`
	Quantity     int64           `json:"quantity"`
	UnitValue    decimal.Decimal `json:"unit_value"`
	TotalValue   decimal.Decimal `json:"total_value"`
	SnapshotDate string          `json:"snapshot_date,omitempty"`
}

// ConsolidationResponse consolidado de un plan a una fecha.
type ConsolidationResponse struct {
	PlanID     string                      `json:"plan_id"`
	AsOf       string                      `json:"as_of"`
	Lines      []ConsolidationLineResponse `json:"lines"`
	ByCategory map[string]TotalsResponse   `json:"by_category"`
	ByProperty map[string]TotalsResponse   `json:"by_property"`
	GrandTotal TotalsResponse              `json:"grand_total"`
}
