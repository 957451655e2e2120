// Package app assembles the fiber application around the booking engine
package app

import (
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"

	"github.com/tolkbridge/dispatch/internal/api/v1/handlers"
	v1 "github.com/tolkbridge/dispatch/internal/api/v1/routes"
)

// NewApp builds the fiber app with middleware and the v1 routes
func NewApp(h *handlers.BookingHandler, uh *handlers.UserHandler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})

	app.Use(fiberlogger.New())

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	v1.Register(app, h, uh)

	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
