package models

import (
	"fmt"

	"gorm.io/gorm"
)

// UserRole represents the role of a user in the system
type UserRole int

// User role constants
const (
	// UserRoleCustomer represents a customer requesting bookings
	UserRoleCustomer UserRole = iota
	// UserRoleTranslator represents a translator eligible to accept bookings
	UserRoleTranslator
	// UserRoleAdmin represents an administrator user
	UserRoleAdmin
	// UserRoleSuperadmin represents a superadmin user
	UserRoleSuperadmin
)

var userRoleNames = []string{
	"customer",
	"translator",
	"admin",
	"superadmin",
}

// User represents a customer, translator or admin. Translator rows carry
// the matching attributes consumed by the matching engine.
type User struct {
	gorm.Model
	Username string   `json:"username" gorm:"not null;unique"`
	Email    string   `json:"email" gorm:""`
	Phone    string   `json:"phone" gorm:""`
	Role     UserRole `json:"role" gorm:"index"`

	// Translator profile
	LanguageFrom string `json:"language_from,omitempty" gorm:"index"`
	LanguageTo   string `json:"language_to,omitempty" gorm:"index"`
	Certified    bool   `json:"certified"`
	Available    bool   `json:"available" gorm:"index"`
}

// IsAdmin reports whether the role carries admin-level access
func (r UserRole) IsAdmin() bool {
	return r == UserRoleAdmin || r == UserRoleSuperadmin
}

func (r UserRole) String() string {
	if int(r) < 0 || int(r) >= len(userRoleNames) {
		return userRoleNames[UserRoleCustomer]
	}
	return userRoleNames[r]
}

// ParseUserRole converts a string representation of a user role to UserRole type
func ParseUserRole(str string) (UserRole, error) {
	for i, role := range userRoleNames {
		if role == str {
			return UserRole(i), nil
		}
	}
	return UserRoleCustomer, fmt.Errorf("invalid user role: %s", str)
}
