package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/tolkbridge/dispatch/internal/db/models"
	"github.com/tolkbridge/dispatch/internal/services"
	"github.com/tolkbridge/dispatch/internal/types"
)

// Actor identity headers, resolved by the upstream identity collaborator
// and trusted as given
const (
	HeaderActorID   = "X-Actor-Id"
	HeaderActorRole = "X-Actor-Role"
)

// BookingHandler handles HTTP requests for booking operations
type BookingHandler struct {
	bookings *services.BookingService
	audit    *services.AuditService
}

// NewBookingHandler creates a new booking handler instance
func NewBookingHandler(bookings *services.BookingService, audit *services.AuditService) *BookingHandler {
	return &BookingHandler{bookings: bookings, audit: audit}
}

func actorFromRequest(c *fiber.Ctx) (types.Actor, error) {
	id, err := strconv.ParseUint(c.Get(HeaderActorID), 10, 64)
	if err != nil {
		return types.Actor{}, fiber.NewError(fiber.StatusBadRequest, "missing or invalid actor id")
	}
	role, err := models.ParseUserRole(c.Get(HeaderActorRole, models.UserRoleCustomer.String()))
	if err != nil {
		return types.Actor{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return types.Actor{ID: uint(id), Role: role}, nil
}

func jobIDFromParams(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid job id")
	}
	return uint(id), nil
}

func listOptions(c *fiber.Ctx) *models.ListOptions {
	return &models.ListOptions{
		Limit:  c.QueryInt("limit", models.DefaultLimit),
		Offset: c.QueryInt("offset", 0),
	}
}

// CreateBooking handles the request to create a new booking
func (h *BookingHandler) CreateBooking(c *fiber.Ctx) error {
	actor, err := actorFromRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errInvalidInput(err.Error()))
	}

	var req types.CreateJobRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errInvalidInput(err.Error()))
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errInvalidInput(err.Error()))
	}

	result, err := h.bookings.CreateJob(c.Context(), actor.ID, &req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(Response{Slug: SuccessSlug, Data: result})
}

// GetBooking handles the request to fetch a single booking snapshot
func (h *BookingHandler) GetBooking(c *fiber.Ctx) error {
	jobID, err := jobIDFromParams(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errInvalidInput(err.Error()))
	}

	job, err := h.bookings.GetJob(c.Context(), jobID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(Response{Slug: SuccessSlug, Data: job})
}

// ListBookings lists the actor's active bookings; admins may list across
// all customers with an optional status filter
func (h *BookingHandler) ListBookings(c *fiber.Ctx) error {
	actor, err := actorFromRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errInvalidInput(err.Error()))
	}
	opts := listOptions(c)

	if actor.IsAdmin() {
		status := models.JobStatusUnknown
		if str := c.Query("status"); str != "" {
			status, err = models.ParseJobStatus(str)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(errInvalidInput(err.Error()))
			}
		}
		jobs, err := h.bookings.ListJobsByStatus(c.Context(), status, opts)
		if err != nil {
			return respondServiceError(c, err)
		}
		return c.JSON(Response{Slug: SuccessSlug, Data: jobs})
	}

	jobs, err := h.bookings.ListCustomerJobs(c.Context(), actor.ID, opts)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(Response{Slug: SuccessSlug, Data: jobs})
}

// GetHistory lists the actor's bookings in terminal states
func (h *BookingHandler) GetHistory(c *fiber.Ctx) error {
	actor, err := actorFromRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errInvalidInput(err.Error()))
	}

	jobs, err := h.bookings.ListCustomerHistory(c.Context(), actor.ID, listOptions(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(Response{Slug: SuccessSlug, Data: jobs})
}

// GetPotentialBookings lists the offered bookings the acting translator
// is eligible for
func (h *BookingHandler) GetPotentialBookings(c *fiber.Ctx) error {
	actor, err := actorFromRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errInvalidInput(err.Error()))
	}

	jobs, err := h.bookings.ListPotentialJobs(c.Context(), actor.ID, listOptions(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(Response{Slug: SuccessSlug, Data: jobs})
}

// OfferBooking triggers the offer fan-out for a created booking
func (h *BookingHandler) OfferBooking(c *fiber.Ctx) error {
	jobID, err := jobIDFromParams(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errInvalidInput(err.Error()))
	}

	result, err := h.bookings.OfferJob(c.Context(), jobID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(Response{Slug: SuccessSlug, Data: result})
}

// AcceptBooking claims the booking for the acting translator
func (h *BookingHandler) AcceptBooking(c *fiber.Ctx) error {
	actor, err := actorFromRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errInvalidInput(err.Error()))
	}
	jobID, err := jobIDFromParams(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errInvalidInput(err.Error()))
	}

	job, err := h.bookings.AcceptJob(c.Context(), jobID, actor.ID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(Response{Slug: SuccessSlug, Data: job})
}

// StartBooking begins the session for the acting translator
func (h *BookingHandler) StartBooking(c *fiber.Ctx) error {
	actor, err := actorFromRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errInvalidInput(err.Error()))
	}
	jobID, err := jobIDFromParams(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errInvalidInput(err.Error()))
	}

	job, err := h.bookings.StartJob(c.Context(), jobID, actor.ID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(Response{Slug: SuccessSlug, Data: job})
}

// CancelBooking cancels the booking on behalf of the acting user
func (h *BookingHandler) CancelBooking(c *fiber.Ctx) error {
	actor, err := actorFromRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errInvalidInput(err.Error()))
	}
	jobID, err := jobIDFromParams(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errInvalidInput(err.Error()))
	}

	job, err := h.bookings.CancelJob(c.Context(), jobID, actor)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(Response{Slug: SuccessSlug, Data: job})
}

// EndBooking completes the booking
func (h *BookingHandler) EndBooking(c *fiber.Ctx) error {
	jobID, err := jobIDFromParams(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errInvalidInput(err.Error()))
	}

	job, err := h.bookings.EndJob(c.Context(), jobID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(Response{Slug: SuccessSlug, Data: job})
}

// ReopenBooking returns a cancelled or no-show booking to created
func (h *BookingHandler) ReopenBooking(c *fiber.Ctx) error {
	jobID, err := jobIDFromParams(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errInvalidInput(err.Error()))
	}

	job, err := h.bookings.ReopenJob(c.Context(), jobID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(Response{Slug: SuccessSlug, Data: job})
}

// MarkNoShow records a customer no-show on an accepted booking
func (h *BookingHandler) MarkNoShow(c *fiber.Ctx) error {
	jobID, err := jobIDFromParams(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errInvalidInput(err.Error()))
	}

	job, err := h.bookings.MarkCustomerNoShow(c.Context(), jobID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(Response{Slug: SuccessSlug, Data: job})
}

// UpdateBookingEmail corrects the contact details on a booking
func (h *BookingHandler) UpdateBookingEmail(c *fiber.Ctx) error {
	jobID, err := jobIDFromParams(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errInvalidInput(err.Error()))
	}

	var req types.EmailRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errInvalidInput(err.Error()))
	}

	job, err := h.bookings.UpdateJobEmail(c.Context(), jobID, &req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(Response{Slug: SuccessSlug, Data: job})
}

// ApplyOverride applies the distance-feed / admin override fields
func (h *BookingHandler) ApplyOverride(c *fiber.Ctx) error {
	jobID, err := jobIDFromParams(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errInvalidInput(err.Error()))
	}

	var req types.OverrideRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errInvalidInput(err.Error()))
	}
	if req.Empty() {
		return c.Status(fiber.StatusBadRequest).JSON(errInvalidInput("no override fields supplied"))
	}

	job, err := h.audit.ApplyOverride(c.Context(), jobID, &req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(Response{Slug: SuccessSlug, Data: job})
}

// ResendNotifications re-broadcasts the offer over push
func (h *BookingHandler) ResendNotifications(c *fiber.Ctx) error {
	jobID, err := jobIDFromParams(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errInvalidInput(err.Error()))
	}

	attempts, err := h.bookings.ResendNotifications(c.Context(), jobID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(Response{Slug: SuccessSlug, Data: attempts})
}

// ResendSMSNotifications re-broadcasts the offer over SMS
func (h *BookingHandler) ResendSMSNotifications(c *fiber.Ctx) error {
	jobID, err := jobIDFromParams(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errInvalidInput(err.Error()))
	}

	attempts, err := h.bookings.ResendSMSNotifications(c.Context(), jobID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(Response{Slug: SuccessSlug, Data: attempts})
}
