package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/rebanho-api/internal/application/dto"
	"github.com/jhoicas/rebanho-api/internal/application/usecase"
	"github.com/jhoicas/rebanho-api/pkg/logger"
)

// CatalogHandler maneja propiedades, categorías y planes (protegido).
type CatalogHandler struct {
	properties *usecase.PropertyUseCase
	categories *usecase.CategoryUseCase
	plans      *usecase.PlanUseCase
	log        *logger.Logger
}

// NewCatalogHandler construye el handler.
func NewCatalogHandler(properties *usecase.PropertyUseCase, categories *usecase.CategoryUseCase, plans *usecase.PlanUseCase, log *logger.Logger) *CatalogHandler {
	return &CatalogHandler{properties: properties, categories: categories, plans: plans, log: log}
}

// CreateProperty godoc
// @Summary      Crear propiedad
// @Tags         catalog
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePropertyRequest  true  "Nombre y código"
// @Success      201   {object}  dto.PropertyResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/properties [post]
func (h *CatalogHandler) CreateProperty(c *fiber.Ctx) error {
	var in dto.CreatePropertyRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.properties.Create(c.Context(), GetCompanyID(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetProperty godoc
// @Summary      Obtener propiedad por ID
// @Tags         catalog
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la propiedad"
// @Success      200  {object}  dto.PropertyResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/properties/{id} [get]
func (h *CatalogHandler) GetProperty(c *fiber.Ctx) error {
	out, err := h.properties.GetByID(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	if out == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "propiedad no encontrada"})
	}
	return c.JSON(out)
}

// ListProperties godoc
// @Summary      Listar propiedades
// @Tags         catalog
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite"  default(20)
// @Param        offset  query  int  false  "Offset"  default(0)
// @Success      200     {object}  dto.PropertyListResponse
// @Router       /api/properties [get]
func (h *CatalogHandler) ListProperties(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	out, err := h.properties.List(c.Context(), GetCompanyID(c), limit, offset)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// CreateCategory godoc
// @Summary      Crear categoría de animales
// @Tags         catalog
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateCategoryRequest  true  "Código, nombre, sucesora y franja de edad"
// @Success      201   {object}  dto.CategoryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/categories [post]
func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	var in dto.CreateCategoryRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.categories.Create(c.Context(), GetCompanyID(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetCategory godoc
// @Summary      Obtener categoría por ID
// @Tags         catalog
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la categoría"
// @Success      200  {object}  dto.CategoryResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/categories/{id} [get]
func (h *CatalogHandler) GetCategory(c *fiber.Ctx) error {
	out, err := h.categories.GetByID(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	if out == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "categoría no encontrada"})
	}
	return c.JSON(out)
}

// ListCategories godoc
// @Summary      Listar categorías
// @Tags         catalog
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.CategoryListResponse
// @Router       /api/categories [get]
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	out, err := h.categories.List(c.Context(), GetCompanyID(c), limit, offset)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// CreatePlan godoc
// @Summary      Crear plan de escenario
// @Tags         catalog
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePlanRequest  true  "Nombre, inicio y horizonte (AAAA-MM-DD)"
// @Success      201   {object}  dto.PlanResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/plans [post]
func (h *CatalogHandler) CreatePlan(c *fiber.Ctx) error {
	var in dto.CreatePlanRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.plans.Create(c.Context(), GetCompanyID(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetPlan godoc
// @Summary      Obtener plan por ID
// @Tags         catalog
// @Security     Bearer
// @Produce      json
// @Param        planID  path  string  true  "ID del plan"
// @Success      200     {object}  dto.PlanResponse
// @Failure      404     {object}  dto.ErrorResponse
// @Router       /api/plans/{planID} [get]
func (h *CatalogHandler) GetPlan(c *fiber.Ctx) error {
	out, err := h.plans.GetByID(c.Context(), GetCompanyID(c), c.Params("planID"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	if out == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "UNKNOWN_PLAN", Message: "plan no encontrado"})
	}
	return c.JSON(out)
}

// ListPlans godoc
// @Summary      Listar planes
// @Tags         catalog
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.PlanListResponse
// @Router       /api/plans [get]
func (h *CatalogHandler) ListPlans(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	out, err := h.plans.List(c.Context(), GetCompanyID(c), limit, offset)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

func pageParams(c *fiber.Ctx) (int, int) {
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
