package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/fiscal-engine/internal/application/dto"
	"github.com/jhoicas/fiscal-engine/internal/domain"
)

// errorMapping de error de dominio a status + código. El orden importa:
// InvalidRange también es ErrValidation.
var errorMapping = []struct {
	target error
	status int
	code   string
}{
	{domain.ErrInvalidRange, fiber.StatusBadRequest, "INVALID_RANGE"},
	{domain.ErrValidation, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{domain.ErrProtectedField, fiber.StatusConflict, "PROTECTED_FIELD"},
	{domain.ErrImmutableDeletion, fiber.StatusConflict, "IMMUTABLE_DELETION"},
	{domain.ErrAlreadySealed, fiber.StatusConflict, "ALREADY_SEALED"},
	{domain.ErrSequenceConflict, fiber.StatusConflict, "SEQUENCE_CONFLICT"},
	{domain.ErrChainIntegrity, fiber.StatusConflict, "CHAIN_INTEGRITY"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrInvalidState, fiber.StatusUnprocessableEntity, "INVALID_STATE"},
	{domain.ErrIneligibleForCorrection, fiber.StatusUnprocessableEntity, "INELIGIBLE_FOR_CORRECTION"},
}

// writeError responde con el status del primer error de dominio que coincida; 500 si ninguno.
func writeError(c *fiber.Ctx, err error) error {
	for _, m := range errorMapping {
		if errors.Is(err, m.target) {
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: err.Error()})
		}
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
