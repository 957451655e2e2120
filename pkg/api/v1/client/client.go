// Package client provides the API client for interacting with the
// booking API
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/tolkbridge/dispatch/internal/db/models"
	"github.com/tolkbridge/dispatch/internal/notify"
	"github.com/tolkbridge/dispatch/internal/services"
	"github.com/tolkbridge/dispatch/internal/types"
)

// DefaultBaseURL is the default address of the booking API server
const DefaultBaseURL = "http://localhost:8080"

// DefaultTimeout is the default timeout for API requests
const DefaultTimeout = 30 * time.Second

// Client is the interface for the booking API client
type Client interface {
	HealthCheck(ctx context.Context) (map[string]string, error)

	CreateBooking(ctx context.Context, req *types.CreateJobRequest) (*services.OfferResult, error)
	GetBooking(ctx context.Context, id uint) (*models.Job, error)
	ListBookings(ctx context.Context, opts *models.ListOptions) ([]models.Job, error)
	GetHistory(ctx context.Context, opts *models.ListOptions) ([]models.Job, error)
	GetPotentialBookings(ctx context.Context, opts *models.ListOptions) ([]models.Job, error)

	OfferBooking(ctx context.Context, id uint) (*services.OfferResult, error)
	AcceptBooking(ctx context.Context, id uint) (*models.Job, error)
	StartBooking(ctx context.Context, id uint) (*models.Job, error)
	CancelBooking(ctx context.Context, id uint) (*models.Job, error)
	EndBooking(ctx context.Context, id uint) (*models.Job, error)
	ReopenBooking(ctx context.Context, id uint) (*models.Job, error)
	MarkNoShow(ctx context.Context, id uint) (*models.Job, error)

	UpdateBookingEmail(ctx context.Context, id uint, req *types.EmailRequest) (*models.Job, error)
	ApplyOverride(ctx context.Context, id uint, req *types.OverrideRequest) (*models.Job, error)
	ResendNotifications(ctx context.Context, id uint) ([]notify.Attempt, error)
	ResendSMSNotifications(ctx context.Context, id uint) ([]notify.Attempt, error)
}

var _ Client = &APIClient{}

// Options contains configuration options for the API client
type Options struct {
	// BaseURL is the base URL of the API
	BaseURL string

	// Timeout is the request timeout
	Timeout time.Duration

	// Actor identifies the calling user on every request
	Actor types.Actor
}

// DefaultOptions returns the default client options
func DefaultOptions() *Options {
	return &Options{
		BaseURL: DefaultBaseURL,
		Timeout: DefaultTimeout,
	}
}

// APIClient implements the Client interface
type APIClient struct {
	baseURL string
	timeout time.Duration
	actor   types.Actor
}

// NewClient creates a new API client with the given options
func NewClient(opts *Options) (Client, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	return &APIClient{
		baseURL: opts.BaseURL,
		timeout: opts.Timeout,
		actor:   opts.Actor,
	}, nil
}

// envelope mirrors the handler response shape with a deferred data field
type envelope struct {
	Slug  string          `json:"slug"`
	Error string          `json:"error"`
	Data  json.RawMessage `json:"data"`
}

// createAgent creates a new Fiber Agent for the given method and endpoint
func (c *APIClient) createAgent(ctx context.Context, method, endpoint string, body interface{}) (*fiber.Agent, error) {
	fullURL := c.baseURL + endpoint

	var agent *fiber.Agent
	switch method {
	case http.MethodGet:
		agent = fiber.Get(fullURL)
	case http.MethodPost:
		agent = fiber.Post(fullURL)
	default:
		return nil, fmt.Errorf("unsupported HTTP method: %s", method)
	}

	// Set timeout from context or client default
	if deadline, ok := ctx.Deadline(); ok {
		agent.Timeout(time.Until(deadline))
	} else {
		agent.Timeout(c.timeout)
	}

	agent.Set("Content-Type", "application/json")
	agent.Set("Accept", "application/json")
	agent.Set("X-Actor-Id", strconv.FormatUint(uint64(c.actor.ID), 10))
	agent.Set("X-Actor-Role", c.actor.Role.String())

	if body != nil {
		agent.JSON(body)
	}

	return agent, nil
}

// doRequest sends the HTTP request and decodes the response data into v
func (c *APIClient) doRequest(agent *fiber.Agent, v interface{}) error {
	statusCode, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("error sending request: %w", errs[0])
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("error decoding response (status %d): %w", statusCode, err)
	}
	if statusCode >= 300 || env.Error != "" {
		return fmt.Errorf("request failed (%d, %s): %s", statusCode, env.Slug, env.Error)
	}
	if v != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, v); err != nil {
			return fmt.Errorf("error decoding response data: %w", err)
		}
	}
	return nil
}

func (c *APIClient) get(ctx context.Context, endpoint string, out interface{}) error {
	agent, err := c.createAgent(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return c.doRequest(agent, out)
}

func (c *APIClient) post(ctx context.Context, endpoint string, body, out interface{}) error {
	agent, err := c.createAgent(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return err
	}
	return c.doRequest(agent, out)
}

func listQuery(opts *models.ListOptions) string {
	if opts == nil {
		return ""
	}
	return fmt.Sprintf("?limit=%d&offset=%d", opts.Limit, opts.Offset)
}

// HealthCheck verifies the server is reachable
func (c *APIClient) HealthCheck(ctx context.Context) (map[string]string, error) {
	agent, err := c.createAgent(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return nil, err
	}
	statusCode, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("error sending request: %w", errs[0])
	}
	if statusCode != http.StatusOK {
		return nil, fmt.Errorf("health check failed with status %d", statusCode)
	}
	var out map[string]string
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}
	return out, nil
}

// CreateBooking creates a new booking
func (c *APIClient) CreateBooking(ctx context.Context, req *types.CreateJobRequest) (*services.OfferResult, error) {
	var out services.OfferResult
	if err := c.post(ctx, "/api/v1/bookings", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetBooking fetches a booking snapshot
func (c *APIClient) GetBooking(ctx context.Context, id uint) (*models.Job, error) {
	var out models.Job
	if err := c.get(ctx, fmt.Sprintf("/api/v1/bookings/%d", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListBookings lists the actor's active bookings
func (c *APIClient) ListBookings(ctx context.Context, opts *models.ListOptions) ([]models.Job, error) {
	var out []models.Job
	if err := c.get(ctx, "/api/v1/bookings"+listQuery(opts), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetHistory lists the actor's terminal bookings
func (c *APIClient) GetHistory(ctx context.Context, opts *models.ListOptions) ([]models.Job, error) {
	var out []models.Job
	if err := c.get(ctx, "/api/v1/bookings/history"+listQuery(opts), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetPotentialBookings lists offered bookings the acting translator can take
func (c *APIClient) GetPotentialBookings(ctx context.Context, opts *models.ListOptions) ([]models.Job, error) {
	var out []models.Job
	if err := c.get(ctx, "/api/v1/bookings/potential"+listQuery(opts), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// OfferBooking triggers the offer fan-out
func (c *APIClient) OfferBooking(ctx context.Context, id uint) (*services.OfferResult, error) {
	var out services.OfferResult
	if err := c.post(ctx, fmt.Sprintf("/api/v1/bookings/%d/offer", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AcceptBooking accepts the booking as the acting translator
func (c *APIClient) AcceptBooking(ctx context.Context, id uint) (*models.Job, error) {
	return c.postJob(ctx, id, "accept")
}

// StartBooking starts the session as the acting translator
func (c *APIClient) StartBooking(ctx context.Context, id uint) (*models.Job, error) {
	return c.postJob(ctx, id, "start")
}

// CancelBooking cancels the booking
func (c *APIClient) CancelBooking(ctx context.Context, id uint) (*models.Job, error) {
	return c.postJob(ctx, id, "cancel")
}

// EndBooking completes the booking
func (c *APIClient) EndBooking(ctx context.Context, id uint) (*models.Job, error) {
	return c.postJob(ctx, id, "end")
}

// ReopenBooking reopens a cancelled or no-show booking
func (c *APIClient) ReopenBooking(ctx context.Context, id uint) (*models.Job, error) {
	return c.postJob(ctx, id, "reopen")
}

// MarkNoShow records a customer no-show
func (c *APIClient) MarkNoShow(ctx context.Context, id uint) (*models.Job, error) {
	return c.postJob(ctx, id, "no-show")
}

func (c *APIClient) postJob(ctx context.Context, id uint, action string) (*models.Job, error) {
	var out models.Job
	if err := c.post(ctx, fmt.Sprintf("/api/v1/bookings/%d/%s", id, action), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateBookingEmail corrects the booking's contact details
func (c *APIClient) UpdateBookingEmail(ctx context.Context, id uint, req *types.EmailRequest) (*models.Job, error) {
	var out models.Job
	if err := c.post(ctx, fmt.Sprintf("/api/v1/bookings/%d/email", id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ApplyOverride applies the distance feed / admin override fields
func (c *APIClient) ApplyOverride(ctx context.Context, id uint, req *types.OverrideRequest) (*models.Job, error) {
	var out models.Job
	if err := c.post(ctx, fmt.Sprintf("/api/v1/bookings/%d/override", id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResendNotifications re-broadcasts the offer over push
func (c *APIClient) ResendNotifications(ctx context.Context, id uint) ([]notify.Attempt, error) {
	var out []notify.Attempt
	if err := c.post(ctx, fmt.Sprintf("/api/v1/bookings/%d/notifications/resend", id), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ResendSMSNotifications re-broadcasts the offer over SMS
func (c *APIClient) ResendSMSNotifications(ctx context.Context, id uint) ([]notify.Attempt, error) {
	var out []notify.Attempt
	if err := c.post(ctx, fmt.Sprintf("/api/v1/bookings/%d/notifications/resend-sms", id), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
