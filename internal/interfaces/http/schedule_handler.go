package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/rebanho-api/internal/application/dto"
	"github.com/jhoicas/rebanho-api/internal/application/ledger"
	"github.com/jhoicas/rebanho-api/internal/domain/entity"
	"github.com/jhoicas/rebanho-api/pkg/logger"
)

// ScheduleHandler maneja la planificación de salidas y las promociones de categoría (protegido).
type ScheduleHandler struct {
	scheduler *ledger.TransferScheduler
	evolution *ledger.CategoryEvolution
	log       *logger.Logger
}

// NewScheduleHandler construye el handler.
func NewScheduleHandler(scheduler *ledger.TransferScheduler, evolution *ledger.CategoryEvolution, log *logger.Logger) *ScheduleHandler {
	return &ScheduleHandler{scheduler: scheduler, evolution: evolution, log: log}
}

// Schedule godoc
// @Summary      Programar salidas a partir de una entrada
// @Description  Borra los eventos que la misma regla derivó antes de la entrada y los vuelve a calcular,
//
//	recortados al saldo disponible. Repetir la llamada con los mismos parámetros no cambia el libro.
//
// @Tags         schedules
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        planID  path  string               true  "Plan"
// @Param        body    body  dto.ScheduleRequest  true  "Entrada, regla, desfase, destino y política"
// @Success      200     {object}  dto.ScheduleResponse
// @Failure      400     {object}  dto.ErrorResponse
// @Failure      404     {object}  dto.ErrorResponse
// @Failure      422     {object}  dto.ErrorResponse
// @Router       /api/plans/{planID}/schedules [post]
func (h *ScheduleHandler) Schedule(c *fiber.Ctx) error {
	var in dto.ScheduleRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	policy, ok := toPolicy(in.Policy)
	if !ok {
		return badRequest(c, "INVALID_DATE", "policy.horizon debe ser AAAA-MM-DD")
	}
	res, err := h.scheduler.ScheduleAfterEntry(c.Context(), ledger.ScheduleInput{
		PlanID:                GetPlan(c).ID,
		EntryMovementID:       in.EntryMovementID,
		RuleID:                in.RuleID,
		OffsetDays:            h.offset(in.OffsetDays),
		DestinationKind:       entity.MovementKind(in.DestinationKind),
		DestinationPropertyID: in.DestinationPropertyID,
		SaleCategoryID:        in.SaleCategoryID,
		Policy:                policy,
		Annotation:            in.Annotation,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toScheduleResponse(res))
}

// ScheduleRule godoc
// @Summary      Aplicar una regla a todas las entradas de una propiedad y categoría
// @Tags         schedules
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        planID  path  string                   true  "Plan"
// @Param        body    body  dto.ScheduleRuleRequest  true  "Regla"
// @Success      200     {object}  dto.ScheduleResponse
// @Failure      400     {object}  dto.ErrorResponse
// @Router       /api/plans/{planID}/schedules/rule [post]
func (h *ScheduleHandler) ScheduleRule(c *fiber.Ctx) error {
	var in dto.ScheduleRuleRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	policy, ok := toPolicy(in.Policy)
	if !ok {
		return badRequest(c, "INVALID_DATE", "policy.horizon debe ser AAAA-MM-DD")
	}
	kinds := make([]entity.MovementKind, 0, len(in.EntryKinds))
	for _, k := range in.EntryKinds {
		kinds = append(kinds, entity.MovementKind(k))
	}
	res, err := h.scheduler.ScheduleRule(c.Context(), ledger.RuleInput{
		PlanID:                GetPlan(c).ID,
		PropertyID:            in.PropertyID,
		CategoryID:            in.CategoryID,
		RuleID:                in.RuleID,
		EntryKinds:            kinds,
		OffsetDays:            h.offset(in.OffsetDays),
		DestinationKind:       entity.MovementKind(in.DestinationKind),
		DestinationPropertyID: in.DestinationPropertyID,
		SaleCategoryID:        in.SaleCategoryID,
		Policy:                policy,
		Annotation:            in.Annotation,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toScheduleResponse(res))
}

// Promote godoc
// @Summary      Reclasificar cabezas entre categorías
// @Description  Crea el par EXIT_PROMOTION / ENTRY_PROMOTION en la misma fecha. Con by_age=true
//
//	promueve todo el saldo disponible a la categoría sucesora configurada.
//
// @Tags         schedules
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        planID  path  string                true  "Plan"
// @Param        body    body  dto.PromotionRequest  true  "Promoción"
// @Success      201     {object}  dto.PromotionResponse
// @Failure      400     {object}  dto.ErrorResponse
// @Failure      409     {object}  dto.ErrorResponse
// @Router       /api/plans/{planID}/promotions [post]
func (h *ScheduleHandler) Promote(c *fiber.Ctx) error {
	var in dto.PromotionRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	date, err := entity.ParseDate(in.Date)
	if err != nil {
		return badRequest(c, "INVALID_DATE", "date debe ser AAAA-MM-DD")
	}
	planID := GetPlan(c).ID

	var pair *ledger.PromotionPair
	if in.ByAge {
		pair, err = h.evolution.PromoteByAge(c.Context(), planID, in.PropertyID, in.SourceCategoryID, date)
	} else {
		pair, err = h.evolution.InsertPromotion(c.Context(), ledger.PromotionInput{
			PlanID:           planID,
			PropertyID:       in.PropertyID,
			SourceCategoryID: in.SourceCategoryID,
			DestCategoryID:   in.DestCategoryID,
			Quantity:         in.Quantity,
			Date:             date,
			Annotation:       in.Annotation,
		})
	}
	if err != nil {
		return writeError(c, h.log, err)
	}
	if pair == nil {
		return c.JSON(dto.PromotionResponse{})
	}
	exit, entry := toMovementResponse(pair.Exit), toMovementResponse(pair.Entry)
	return c.Status(fiber.StatusCreated).JSON(dto.PromotionResponse{Exit: &exit, Entry: &entry})
}

// offset aplica el desfase configurado cuando la petición no lo trae.
// Un valor explícito (incluido 0) se pasa tal cual y lo valida el planificador.
func (h *ScheduleHandler) offset(v *int) int {
	if v == nil {
		return h.scheduler.Defaults().OffsetDays
	}
	return *v
}

func toPolicy(in dto.QuantityPolicyRequest) (ledger.QuantityPolicy, bool) {
	p := ledger.QuantityPolicy{
		Kind:        ledger.PolicyKind(in.Kind),
		LotSize:     in.LotSize,
		CadenceDays: in.CadenceDays,
	}
	if in.Horizon != "" {
		h, err := entity.ParseDate(in.Horizon)
		if err != nil {
			return p, false
		}
		p.Horizon = &h
	}
	return p, true
}
