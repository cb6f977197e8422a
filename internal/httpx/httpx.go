// Package httpx holds the response envelope, the central error handler and
// request body validation shared by every handler package.
package httpx

import (
	"errors"

	"telecom-erp-backend/internal/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// OK writes {"success": true, "data": data}.
func OK(c *fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{"success": true, "data": data})
}

// Created is OK with status 201.
func Created(c *fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": data})
}

// ErrorHandler renders {"success": false, "error": msg}. Errors carry no
// data payload. Anything that is not a *fiber.Error is logged and hidden
// behind a generic 500.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"success": false, "error": fe.Message})
		}
		var ve *ValidationError
		if errors.As(err, &ve) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"success": false,
				"error":   ve.Error(),
				"field":   ve.Field,
			})
		}
		log.Error("Unexpected error",
			zap.Error(err),
			zap.String("path", c.Path()),
			zap.Any("request_id", c.Locals(logger.RequestIDLocal)),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "unexpected server error",
		})
	}
}
