// Package routes wires the v1 API surface to the booking handlers
package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tolkbridge/dispatch/internal/api/v1/handlers"
)

// SetupRoutes configures all the v1 routes
func SetupRoutes(router fiber.Router, h *handlers.BookingHandler, uh *handlers.UserHandler) {
	users := router.Group("/users")
	users.Post("/", uh.CreateUser)
	users.Get("/translators", uh.ListTranslators)
	users.Get("/:id", uh.GetUser)

	bookings := router.Group("/bookings")

	bookings.Post("/", h.CreateBooking)
	bookings.Get("/", h.ListBookings)
	bookings.Get("/history", h.GetHistory)
	bookings.Get("/potential", h.GetPotentialBookings)
	bookings.Get("/:id", h.GetBooking)

	bookings.Post("/:id/offer", h.OfferBooking)
	bookings.Post("/:id/accept", h.AcceptBooking)
	bookings.Post("/:id/start", h.StartBooking)
	bookings.Post("/:id/cancel", h.CancelBooking)
	bookings.Post("/:id/end", h.EndBooking)
	bookings.Post("/:id/reopen", h.ReopenBooking)
	bookings.Post("/:id/no-show", h.MarkNoShow)

	bookings.Post("/:id/email", h.UpdateBookingEmail)
	bookings.Post("/:id/override", h.ApplyOverride)
	bookings.Post("/:id/notifications/resend", h.ResendNotifications)
	bookings.Post("/:id/notifications/resend-sms", h.ResendSMSNotifications)
}

// Register registers the v1 routes
func Register(app *fiber.App, h *handlers.BookingHandler, uh *handlers.UserHandler) {
	// API v1 routes
	v1Group := app.Group("/api/v1")
	SetupRoutes(v1Group, h, uh)
}
