package handlers

import (
	"context"
	"errors"
	"insightai_backend/pkg/logging"
	"insightai_backend/services"

	"github.com/gofiber/fiber/v2"
)

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}

// respondError maps service errors to the HTTP contract. Unknown errors
// become 500 with a generic message; the detail stays in the log.
func respondError(c *fiber.Ctx, err error) error {
	var missing *services.MissingChunksError

	switch {
	case errors.As(err, &missing):
		return fail(c, fiber.StatusBadRequest, missing.Error())
	case errors.Is(err, services.ErrValidation):
		return fail(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrForbidden):
		return fail(c, fiber.StatusForbidden, "you do not own this resource")
	case errors.Is(err, services.ErrNotFound):
		return fail(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrConflict):
		return fail(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return fail(c, fiber.StatusGatewayTimeout, "processing timed out")
	default:
		logging.Logger.Error("unhandled request error", "path", c.Path(), "error", err)
		return fail(c, fiber.StatusInternalServerError, "internal server error")
	}
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

func ok(c *fiber.Ctx, payload interface{}) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    payload,
	})
}
