package handlers

import (
	"errors"

	service "scanhub/pkg/services"

	"github.com/gofiber/fiber/v2"
)

// HTTPError sends a JSON error response with consistent format
func HTTPError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// ServiceError maps service-layer sentinel errors to HTTP status codes
func ServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return HTTPError(c, 404, err.Error())
	case errors.Is(err, service.ErrValidation):
		return HTTPError(c, 400, err.Error())
	default:
		return HTTPError(c, 500, "internal error")
	}
}
