package types

import (
	"fmt"
	"strings"

	"github.com/tolkbridge/dispatch/internal/db/models"
)

// CreateUserRequest is the payload for registering a user. Translator
// registrations carry the matching profile.
type CreateUserRequest struct {
	Username     string `json:"username"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Role         string `json:"role"`
	LanguageFrom string `json:"language_from,omitempty"`
	LanguageTo   string `json:"language_to,omitempty"`
	Certified    bool   `json:"certified,omitempty"`
	Available    bool   `json:"available,omitempty"`
}

// Validate checks the request for required fields
func (r *CreateUserRequest) Validate() error {
	if strings.TrimSpace(r.Username) == "" {
		return fmt.Errorf("username is required")
	}
	role, err := models.ParseUserRole(r.Role)
	if err != nil {
		return err
	}
	if role == models.UserRoleTranslator {
		if strings.TrimSpace(r.LanguageFrom) == "" || strings.TrimSpace(r.LanguageTo) == "" {
			return fmt.Errorf("translator registrations require a language pair")
		}
	}
	return nil
}

// ToUser converts a validated request into the persistence model
func (r *CreateUserRequest) ToUser() (*models.User, error) {
	role, err := models.ParseUserRole(r.Role)
	if err != nil {
		return nil, err
	}
	return &models.User{
		Username:     r.Username,
		Email:        r.Email,
		Phone:        r.Phone,
		Role:         role,
		LanguageFrom: r.LanguageFrom,
		LanguageTo:   r.LanguageTo,
		Certified:    r.Certified,
		Available:    r.Available,
	}, nil
}
