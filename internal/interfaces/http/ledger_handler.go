package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/rebanho-api/internal/application/dto"
	"github.com/jhoicas/rebanho-api/internal/application/ledger"
	"github.com/jhoicas/rebanho-api/internal/domain/entity"
	"github.com/jhoicas/rebanho-api/internal/domain/repository"
	"github.com/jhoicas/rebanho-api/pkg/logger"
)

// LedgerHandler maneja snapshots, movimientos y saldos del libro (protegido).
type LedgerHandler struct {
	snapshots *ledger.SnapshotUseCase
	movements *ledger.MovementUseCase
	projector *ledger.BalanceProjector
	log       *logger.Logger
}

// NewLedgerHandler construye el handler.
func NewLedgerHandler(snapshots *ledger.SnapshotUseCase, movements *ledger.MovementUseCase, projector *ledger.BalanceProjector, log *logger.Logger) *LedgerHandler {
	return &LedgerHandler{snapshots: snapshots, movements: movements, projector: projector, log: log}
}

// CreateSnapshot godoc
// @Summary      Registrar existencia inicial
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSnapshotRequest  true  "Propiedad, categoría, cabezas, valor por cabeza y fecha"
// @Success      201   {object}  dto.SnapshotResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/snapshots [post]
func (h *LedgerHandler) CreateSnapshot(c *fiber.Ctx) error {
	var in dto.CreateSnapshotRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	asOf, err := entity.ParseDate(in.AsOf)
	if err != nil {
		return badRequest(c, "INVALID_DATE", "as_of debe ser AAAA-MM-DD")
	}
	s, err := h.snapshots.Create(c.Context(), GetCompanyID(c), ledger.CreateSnapshotInput{
		PropertyID: in.PropertyID,
		CategoryID: in.CategoryID,
		Quantity:   in.Quantity,
		UnitValue:  in.UnitValue,
		AsOf:       asOf,
		Initial:    in.Initial,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toSnapshotResponse(s))
}

// ListSnapshots godoc
// @Summary      Listar snapshots de una propiedad y categoría
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        property_id  query  string  true  "Propiedad"
// @Param        category_id  query  string  true  "Categoría"
// @Success      200  {array}   dto.SnapshotResponse
// @Router       /api/snapshots [get]
func (h *LedgerHandler) ListSnapshots(c *fiber.Ctx) error {
	propertyID, categoryID := c.Query("property_id"), c.Query("category_id")
	if propertyID == "" || categoryID == "" {
		return badRequest(c, "VALIDATION", "property_id y category_id son requeridos")
	}
	list, err := h.snapshots.List(c.Context(), GetCompanyID(c), propertyID, categoryID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.SnapshotResponse, 0, len(list))
	for _, s := range list {
		out = append(out, toSnapshotResponse(s))
	}
	return c.JSON(out)
}

// RegisterMovement godoc
// @Summary      Registrar movimiento manual
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        planID  path  string                       true  "Plan"
// @Param        body    body  dto.RegisterMovementRequest  true  "Movimiento"
// @Success      201     {object}  dto.MovementResponse
// @Failure      400     {object}  dto.ErrorResponse
// @Failure      409     {object}  dto.ErrorResponse
// @Failure      422     {object}  dto.ErrorResponse
// @Router       /api/plans/{planID}/movements [post]
func (h *LedgerHandler) RegisterMovement(c *fiber.Ctx) error {
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	date, err := entity.ParseDate(in.Date)
	if err != nil {
		return badRequest(c, "INVALID_DATE", "date debe ser AAAA-MM-DD")
	}
	m, err := h.movements.Register(c.Context(), ledger.RegisterMovementInput{
		PlanID:     GetPlan(c).ID,
		PropertyID: in.PropertyID,
		CategoryID: in.CategoryID,
		Date:       date,
		Kind:       entity.MovementKind(in.Kind),
		Quantity:   in.Quantity,
		Annotation: in.Annotation,
		Force:      in.Force,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(m))
}

// ListMovements godoc
// @Summary      Listar movimientos del plan en orden de replay
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        planID       path   string  true   "Plan"
// @Param        property_id  query  string  false  "Propiedad"
// @Param        category_id  query  string  false  "Categoría"
// @Param        after        query  string  false  "Fecha exclusiva AAAA-MM-DD"
// @Param        until        query  string  false  "Fecha inclusiva AAAA-MM-DD"
// @Param        kinds        query  string  false  "Tipos separados por coma"
// @Param        derived_by   query  string  false  "Regla que generó los eventos"
// @Param        manual_only  query  bool    false  "Solo movimientos manuales"
// @Success      200  {object}  dto.MovementListResponse
// @Router       /api/plans/{planID}/movements [get]
func (h *LedgerHandler) ListMovements(c *fiber.Ctx) error {
	after, ok := queryDate(c, "after")
	if !ok {
		return badRequest(c, "INVALID_DATE", "after debe ser AAAA-MM-DD")
	}
	until, ok := queryDate(c, "until")
	if !ok {
		return badRequest(c, "INVALID_DATE", "until debe ser AAAA-MM-DD")
	}
	filter := repository.MovementFilter{
		PlanID:     GetPlan(c).ID,
		PropertyID: c.Query("property_id"),
		CategoryID: c.Query("category_id"),
		After:      after,
		Until:      until,
		DerivedBy:  c.Query("derived_by"),
		ManualOnly: c.QueryBool("manual_only", false),
	}
	for _, k := range splitList(c.Query("kinds")) {
		kind := entity.MovementKind(k)
		if !kind.Valid() {
			return badRequest(c, "INVALID_MOVEMENT_KIND", "tipo desconocido: "+k)
		}
		filter.Kinds = append(filter.Kinds, kind)
	}
	list, err := h.movements.List(c.Context(), filter)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.MovementListResponse{Items: toMovementResponses(list)})
}

// DeleteMovement godoc
// @Summary      Borrar movimiento manual (y sus derivados)
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        planID  path  string  true  "Plan"
// @Param        id      path  int     true  "ID del movimiento"
// @Success      200     {object}  map[string]int64
// @Failure      404     {object}  dto.ErrorResponse
// @Failure      409     {object}  dto.ErrorResponse
// @Router       /api/plans/{planID}/movements/{id} [delete]
func (h *LedgerHandler) DeleteMovement(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "MISSING_ID", "id inválido")
	}
	n, err := h.movements.Delete(c.Context(), GetPlan(c).ID, int64(id))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"deleted": n})
}

// Balance godoc
// @Summary      Saldo proyectado de una propiedad y categoría
// @Description  Replay del snapshot vigente más los movimientos hasta as_of (inclusive).
//
//	Con available=true incluye además el mínimo saldo futuro disponible desde as_of.
//
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        planID       path   string  true   "Plan"
// @Param        property_id  query  string  true   "Propiedad"
// @Param        category_id  query  string  true   "Categoría"
// @Param        as_of        query  string  false  "Fecha AAAA-MM-DD (hoy por defecto)"
// @Param        available    query  bool    false  "Incluir saldo disponible"
// @Success      200  {object}  dto.BalanceResponse
// @Router       /api/plans/{planID}/balance [get]
func (h *LedgerHandler) Balance(c *fiber.Ctx) error {
	propertyID, categoryID := c.Query("property_id"), c.Query("category_id")
	if propertyID == "" || categoryID == "" {
		return badRequest(c, "VALIDATION", "property_id y category_id son requeridos")
	}
	asOf, ok := parseDay(c.Query("as_of"), time.Now())
	if !ok {
		return badRequest(c, "INVALID_DATE", "as_of debe ser AAAA-MM-DD")
	}
	planID := GetPlan(c).ID
	p, err := h.projector.Project(c.Context(), propertyID, categoryID, planID, asOf)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := toBalanceResponse(p)
	if c.QueryBool("available", false) {
		avail, err := h.projector.Available(c.Context(), propertyID, categoryID, planID, asOf)
		if err != nil {
			return writeError(c, h.log, err)
		}
		out.Available = &avail
	}
	return c.JSON(out)
}
