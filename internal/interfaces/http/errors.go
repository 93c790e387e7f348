package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/rebanho-api/internal/application/dto"
	"github.com/jhoicas/rebanho-api/internal/domain"
	"github.com/jhoicas/rebanho-api/pkg/logger"
)

var domainErrors = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrNonPositiveQuantity, fiber.StatusBadRequest, "NON_POSITIVE_QUANTITY"},
	{domain.ErrInvalidMovementKind, fiber.StatusBadRequest, "INVALID_MOVEMENT_KIND"},
	{domain.ErrNotEntryMovement, fiber.StatusBadRequest, "NOT_ENTRY_MOVEMENT"},
	{domain.ErrInvalidOffset, fiber.StatusBadRequest, "INVALID_OFFSET"},
	{domain.ErrCategoryCycle, fiber.StatusBadRequest, "CATEGORY_CYCLE"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrUnknownEntity, fiber.StatusNotFound, "UNKNOWN_PROPERTY"},
	{domain.ErrUnknownCategory, fiber.StatusNotFound, "UNKNOWN_CATEGORY"},
	{domain.ErrUnknownPlan, fiber.StatusNotFound, "UNKNOWN_PLAN"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrPlanMismatch, fiber.StatusUnprocessableEntity, "PLAN_MISMATCH"},
	{domain.ErrInsufficientBalance, fiber.StatusConflict, "INSUFFICIENT_BALANCE"},
	{domain.ErrDerivedMovement, fiber.StatusConflict, "DERIVED_MOVEMENT"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
}

// domainStatus traduce un error de dominio (posiblemente envuelto) a status y código HTTP.
func domainStatus(err error) (int, string, bool) {
	for _, d := range domainErrors {
		if errors.Is(err, d.err) {
			return d.status, d.code, true
		}
	}
	return 0, "", false
}

// writeError responde con el error mapeado; los no reconocidos se registran y salen como 500.
func writeError(c *fiber.Ctx, log *logger.Logger, err error) error {
	if status, code, ok := domainStatus(err); ok {
		return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: err.Error()})
	}
	log.Error().Err(err).Str("path", c.Path()).Str("method", c.Method()).Msg("error interno")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

func badRequest(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: msg})
}
