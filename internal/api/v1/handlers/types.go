package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/tolkbridge/dispatch/internal/db/repos"
	"github.com/tolkbridge/dispatch/internal/services"
)

// Slug identifies the outcome class of a response
type Slug string

// Response slugs
const (
	SuccessSlug      Slug = "success"
	ErrorSlug        Slug = "error"
	InvalidInputSlug Slug = "invalid-input"
	ConflictSlug     Slug = "conflict"
	NotFoundSlug     Slug = "not-found"
	ServerErrorSlug  Slug = "server-error"
)

// Response is the envelope every endpoint returns
type Response struct {
	Slug  Slug        `json:"slug"`
	Error string      `json:"error,omitempty"`
	Data  interface{} `json:"data,omitempty"`
}

func errInvalidInput(msg string) Response {
	return Response{
		Slug:  InvalidInputSlug,
		Error: msg,
	}
}

func errServer(msg string) Response {
	return Response{
		Slug:  ServerErrorSlug,
		Error: msg,
	}
}

// respondServiceError maps the engine's error taxonomy onto HTTP codes.
// Every failure leaves through here so callers always get a typed slug.
func respondServiceError(c *fiber.Ctx, err error) error {
	var invalid *services.InvalidTransitionError
	switch {
	case errors.As(err, &invalid):
		return c.Status(fiber.StatusConflict).
			JSON(Response{Slug: ConflictSlug, Error: invalid.Error()})
	case errors.Is(err, services.ErrAlreadyTaken),
		errors.Is(err, services.ErrConcurrentModification):
		return c.Status(fiber.StatusConflict).
			JSON(Response{Slug: ConflictSlug, Error: err.Error()})
	case errors.Is(err, services.ErrMissingFlagComment),
		errors.Is(err, services.ErrNotAssignedTranslator):
		return c.Status(fiber.StatusBadRequest).
			JSON(errInvalidInput(err.Error()))
	case errors.Is(err, repos.ErrJobNotFound), errors.Is(err, repos.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).
			JSON(Response{Slug: NotFoundSlug, Error: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).
			JSON(errServer(err.Error()))
	}
}
