package middlewares

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"invoice-intake-backend/database"
)

// ErrorHandler centralizes error responses and keeps messages sanitized:
// internal error detail goes to the log, never to the caller.
func ErrorHandler(c *fiber.Ctx, err error) error {
	// Fiber errors (use their status code + message)
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}

	// Validation errors (400 + per-field info)
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make(map[string]string, len(ve))
		for _, f := range ve {
			fields[f.Field()] = f.Tag()
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "missing or invalid fields",
			"fields": fields,
		})
	}

	// Duplicate invoice numbers surface distinctly, not as a generic failure.
	if errors.Is(err, database.ErrDuplicateNumber) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "invoice number already exists",
		})
	}

	log.Error().Err(err).Str("path", c.Path()).Msg("internal error")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "internal server error",
	})
}
