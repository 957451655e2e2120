package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tolkbridge/dispatch/internal/services"
	"github.com/tolkbridge/dispatch/internal/types"
)

// UserHandler handles HTTP requests for the user directory
type UserHandler struct {
	users *services.UserService
}

// NewUserHandler creates a new user handler instance
func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// CreateUser handles the request to register a user
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req types.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errInvalidInput(err.Error()))
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errInvalidInput(err.Error()))
	}

	user, err := h.users.CreateUser(c.Context(), &req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(Response{Slug: SuccessSlug, Data: user})
}

// GetUser handles the request to fetch a user by id
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(errInvalidInput("invalid user id"))
	}

	user, err := h.users.GetUser(c.Context(), uint(id))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(Response{Slug: SuccessSlug, Data: user})
}

// ListTranslators handles the request to list available translators
func (h *UserHandler) ListTranslators(c *fiber.Ctx) error {
	translators, err := h.users.ListAvailableTranslators(c.Context())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(Response{Slug: SuccessSlug, Data: translators})
}
