package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/rebanho-api/internal/application/dto"
	"github.com/jhoicas/rebanho-api/internal/application/ledger"
	"github.com/jhoicas/rebanho-api/internal/application/usecase"
	"github.com/jhoicas/rebanho-api/internal/domain"
	"github.com/jhoicas/rebanho-api/pkg/logger"
)

// ConsolidationHandler expone el consolidado valorizado en JSON o PDF (protegido).
type ConsolidationHandler struct {
	aggregator *ledger.ConsolidationAggregator
	renderer   ledger.ConsolidationRenderer
	properties *usecase.PropertyUseCase
	categories *usecase.CategoryUseCase
	plans      *usecase.PlanUseCase
	log        *logger.Logger
}

// NewConsolidationHandler construye el handler. renderer puede ser nil (sin salida PDF).
func NewConsolidationHandler(
	aggregator *ledger.ConsolidationAggregator,
	renderer ledger.ConsolidationRenderer,
	properties *usecase.PropertyUseCase,
	categories *usecase.CategoryUseCase,
	plans *usecase.PlanUseCase,
	log *logger.Logger,
) *ConsolidationHandler {
	return &ConsolidationHandler{
		aggregator: aggregator,
		renderer:   renderer,
		properties: properties,
		categories: categories,
		plans:      plans,
		log:        log,
	}
}

// Consolidate godoc
// @Summary      Consolidado de saldos valorizados
// @Description  Suma cabezas y valor (cantidad × valor por cabeza del snapshot vigente) por categoría,
//
//	por propiedad y en total. Con format=pdf devuelve el reporte imprimible.
//
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Produce      application/pdf
// @Param        planID        path   string  true   "Plan"
// @Param        property_ids  query  string  true   "Propiedades separadas por coma"
// @Param        category_ids  query  string  true   "Categorías separadas por coma"
// @Param        as_of         query  string  false  "Fecha AAAA-MM-DD (hoy por defecto)"
// @Param        format        query  string  false  "json | pdf"
// @Success      200  {object}  dto.ConsolidationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/plans/{planID}/consolidation [get]
func (h *ConsolidationHandler) Consolidate(c *fiber.Ctx) error {
	in, ok := h.selection(c)
	if !ok {
		return badRequest(c, "INVALID_DATE", "as_of debe ser AAAA-MM-DD")
	}
	plan := GetPlan(c)
	in.PlanID = plan.ID
	cons, err := h.aggregator.Aggregate(c.Context(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	if c.Query("format") != "pdf" {
		return c.JSON(toConsolidationResponse(cons))
	}
	if h.renderer == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(dto.ErrorResponse{Code: "PDF_DISABLED", Message: "generación de PDF no disponible"})
	}
	report, err := h.report(c.Context(), GetCompanyID(c), plan.Name, cons)
	if err != nil {
		return writeError(c, h.log, err)
	}
	pdf, err := h.renderer.RenderConsolidation(c.Context(), report)
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="consolidado-`+cons.AsOf.Format("20060102")+`.pdf"`)
	return c.Send(pdf)
}

// Compare godoc
// @Summary      Comparar el consolidado de varios planes
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        plan_ids      query  string  true   "Planes separados por coma"
// @Param        property_ids  query  string  true   "Propiedades separadas por coma"
// @Param        category_ids  query  string  true   "Categorías separadas por coma"
// @Param        as_of         query  string  false  "Fecha AAAA-MM-DD"
// @Success      200  {array}   dto.ConsolidationResponse
// @Router       /api/consolidation/compare [get]
func (h *ConsolidationHandler) Compare(c *fiber.Ctx) error {
	in, ok := h.selection(c)
	if !ok {
		return badRequest(c, "INVALID_DATE", "as_of debe ser AAAA-MM-DD")
	}
	planIDs := splitList(c.Query("plan_ids"))
	companyID := GetCompanyID(c)
	for _, id := range planIDs {
		p, err := h.plans.Owned(c.Context(), companyID, id)
		if err != nil {
			return writeError(c, h.log, err)
		}
		if p == nil {
			return writeError(c, h.log, domain.ErrUnknownPlan)
		}
	}
	list, err := h.aggregator.AggregatePlans(c.Context(), in, planIDs)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.ConsolidationResponse, 0, len(list))
	for _, cons := range list {
		out = append(out, toConsolidationResponse(cons))
	}
	return c.JSON(out)
}

func (h *ConsolidationHandler) selection(c *fiber.Ctx) (ledger.AggregateInput, bool) {
	asOf, ok := parseDay(c.Query("as_of"), time.Now())
	return ledger.AggregateInput{
		PropertyIDs: splitList(c.Query("property_ids")),
		CategoryIDs: splitList(c.Query("category_ids")),
		AsOf:        asOf,
	}, ok
}

// report resuelve los nombres de propiedades y categorías para el PDF.
func (h *ConsolidationHandler) report(ctx context.Context, companyID, planName string, cons *ledger.Consolidation) (*ledger.ConsolidationReport, error) {
	report := &ledger.ConsolidationReport{
		PlanName:      planName,
		Consolidation: cons,
		PropertyNames: make(map[string]string, len(cons.ByProperty)),
		CategoryNames: make(map[string]string, len(cons.ByCategory)),
		GeneratedAt:   time.Now(),
	}
	for id := range cons.ByProperty {
		p, err := h.properties.GetByID(ctx, companyID, id)
		if err != nil {
			return nil, err
		}
		if p != nil {
			report.PropertyNames[id] = p.Name
		}
	}
	for id := range cons.ByCategory {
		cat, err := h.categories.GetByID(ctx, companyID, id)
		if err != nil {
			return nil, err
		}
		if cat != nil {
			report.CategoryNames[id] = cat.Name
		}
	}
	return report, nil
}
