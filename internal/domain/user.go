package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserRole is a user's role inside their company.
type UserRole string

// Roles
const (
	UserRoleAdmin   UserRole = "admin"
	UserRoleManager UserRole = "manager"
	UserRoleMember  UserRole = "member"
)

// User is a member of a company who can be assigned tasks and receive notifications.
type User struct {
	ID            uuid.UUID  `json:"id"`
	CompanyID     uuid.UUID  `json:"company_id"`
	FullName      string     `json:"full_name"`
	Email         string     `json:"email"`
	EmailVerified bool       `json:"email_verified"`
	Role          UserRole   `json:"role"`
	IsActive      bool       `json:"is_active"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// CanReceiveEmail reports whether mail may be sent to the user.
func (u *User) CanReceiveEmail() bool {
	return u.IsActive && u.DeletedAt == nil && u.EmailVerified && validateEmailFormat(u.Email)
}

// DisplayName returns the full name, falling back to the email address.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}

// validateEmailFormat is a deliberately loose check: one @ with text on both
// sides and a dot in the domain part.
func validateEmailFormat(email string) bool {
	at := -1
	for i, r := range email {
		if r == '@' {
			if at >= 0 {
				return false
			}
			at = i
		}
	}
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domainPart := email[at+1:]
	for i, r := range domainPart {
		if r == '.' && i > 0 && i < len(domainPart)-1 {
			return true
		}
	}
	return false
}
