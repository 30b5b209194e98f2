package types

import "time"

// Admin represents an operator account allowed to manage questions and
// other admins.
type Admin struct {
	// ID is the unique identifier of the admin.
	ID string `json:"id" db:"id"`

	// Email is the unique login address of the admin. Lookups are exact
	// and case-sensitive.
	Email string `json:"email" db:"email"`

	// Name is the admin's display name.
	Name string `json:"name" db:"name"`

	// PasswordHash stores the bcrypt hash of the admin's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedBy references the admin that registered this account.
	// It is nil for the seed admin.
	CreatedBy *string `json:"createdBy" db:"created_by"`

	// CreatedAt is the timestamp when the admin account was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// AdminProfile is the public projection of an Admin returned after
// registration.
type AdminProfile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Profile returns the public projection of the admin.
func (a Admin) Profile() AdminProfile {
	return AdminProfile{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Email,
		CreatedAt: a.CreatedAt,
	}
}

// Session is the authenticated identity carried by a signed token.
// Sessions are never persisted; logging out means discarding the token.
type Session struct {
	AdminID   string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// LoginRequest is the credential payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the payload for POST /auth/register.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"min=8,max=128"`
}
