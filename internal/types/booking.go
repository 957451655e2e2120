// Package types holds the validated command payloads and actor identity
// exchanged between the web tier and the booking engine. Handlers
// validate raw input; the engine only ever sees these types.
package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/tolkbridge/dispatch/internal/db/models"
)

// Actor identifies who issued a command. Identity and role are resolved
// upstream by the identity collaborator and trusted as given.
type Actor struct {
	ID   uint            `json:"id"`
	Role models.UserRole `json:"role"`
}

// IsAdmin reports whether the actor carries admin-level access
func (a Actor) IsAdmin() bool {
	return a.Role.IsAdmin()
}

// CreateJobRequest is the payload for creating a booking
type CreateJobRequest struct {
	LanguageFrom      string    `json:"language_from"`
	LanguageTo        string    `json:"language_to"`
	CertifiedRequired bool      `json:"certified_required"`
	Immediate         bool      `json:"immediate"`
	DueAt             time.Time `json:"due_at"`
	CustomerEmail     string    `json:"customer_email"`
	Reference         string    `json:"reference"`
}

// Validate checks the request for required fields
func (r *CreateJobRequest) Validate() error {
	if strings.TrimSpace(r.LanguageFrom) == "" || strings.TrimSpace(r.LanguageTo) == "" {
		return fmt.Errorf("language pair is required")
	}
	if r.LanguageFrom == r.LanguageTo {
		return fmt.Errorf("language pair must differ")
	}
	if !r.Immediate && r.DueAt.IsZero() {
		return fmt.Errorf("due_at is required for scheduled bookings")
	}
	return nil
}

// OverrideRequest is the sparse set of audit fields applied by the
// distance feed and admin corrections. Absent fields are left untouched.
type OverrideRequest struct {
	Distance        *float64 `json:"distance,omitempty"`
	TravelTime      *float64 `json:"travel_time,omitempty"`
	SessionTime     *int64   `json:"session_time,omitempty"`
	AdminComment    *string  `json:"admin_comment,omitempty"`
	Flagged         *bool    `json:"flagged,omitempty"`
	ManuallyHandled *bool    `json:"manually_handled,omitempty"`
	ByAdmin         *bool    `json:"by_admin,omitempty"`
}

// Empty reports whether the request carries no fields at all
func (r *OverrideRequest) Empty() bool {
	return r.Distance == nil && r.TravelTime == nil && r.SessionTime == nil &&
		r.AdminComment == nil && r.Flagged == nil && r.ManuallyHandled == nil &&
		r.ByAdmin == nil
}

// EmailRequest updates the contact details attached to a booking
type EmailRequest struct {
	CustomerEmail string `json:"customer_email"`
	Reference     string `json:"reference"`
}

// AcceptRequest is the payload for accepting a booking
type AcceptRequest struct {
	TranslatorID uint `json:"translator_id"`
}
