package handler

import "github.com/gofiber/fiber/v2"

// Kontrak response subsystem ini cuma dua bentuk: 200 {success, data}
// atau 400 {success, error}

func ok(c *fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"error":   msg,
	})
}

func fail(c *fiber.Ctx, err error) error {
	return badRequest(c, err.Error())
}
