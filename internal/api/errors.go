package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/hccplan/dispo/pkg/db"
)

// fail maps a service error to an HTTP response. The error kinds carry
// through from the store layer; user-facing messages stay generic so no
// internal detail leaks.
func fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, db.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	case errors.Is(err, db.ErrUniqueness):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "already exists"})
	case errors.Is(err, db.ErrPermission):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "not allowed"})
	case errors.Is(err, db.ErrMissingStartDate):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "start date required: team has no prior plan period"})
	case errors.Is(err, db.ErrInvariant):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
