package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/rebanho-api/internal/application/dto"
	"github.com/jhoicas/rebanho-api/internal/domain/entity"
)

// LocalPlan key del plan resuelto por RequirePlan.
const LocalPlan = "plan"

// planOwner es el contrato mínimo que necesita el middleware para verificar planes.
// Lo implementa *usecase.PlanUseCase.
type planOwner interface {
	Owned(ctx context.Context, companyID, planID string) (*entity.Plan, error)
}

// RequirePlan verifica que el plan de la ruta (:planID) exista y sea de la empresa del token,
// y lo deja en c.Locals. Debe usarse DESPUÉS de AuthMiddleware.
//
//   - 404 si el plan no existe.
//   - 403 si es de otra empresa.
//   - 503 si falla la consulta.
func RequirePlan(owner planOwner) fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID := GetCompanyID(c)
		if companyID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Code:    "UNAUTHORIZED",
				Message: "company_id no encontrado en el token",
			})
		}
		plan, err := owner.Owned(c.Context(), companyID, c.Params("planID"))
		if err != nil {
			if status, code, ok := domainStatus(err); ok {
				return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: err.Error()})
			}
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Code:    "PLAN_CHECK_FAILED",
				Message: "no se pudo verificar el plan, intente más tarde",
			})
		}
		if plan == nil {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "UNKNOWN_PLAN", Message: "plan no encontrado"})
		}
		c.Locals(LocalPlan, plan)
		return c.Next()
	}
}

// GetPlan devuelve el plan resuelto por RequirePlan.
func GetPlan(c *fiber.Ctx) *entity.Plan {
	p, _ := c.Locals(LocalPlan).(*entity.Plan)
	return p
}
