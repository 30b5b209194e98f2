package services

import "errors"

var (
	// ErrUnauthorized is returned when an operation requires a session and
	// none was supplied.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidCredentials is returned by Login for an unknown email and
	// for a wrong password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailTaken is returned when registering an email that already
	// belongs to an admin.
	ErrEmailTaken = errors.New("an admin with this email already exists")
)
