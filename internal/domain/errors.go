package domain

import "errors"

// Sentinel errors shared across services, repositories, and delivery.
// All are recoverable by the caller; none are fatal to the process.
var (
	// ErrNotFound is returned when the requested user or event does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when a verified caller is not the owner of the
	// target event.
	ErrForbidden = errors.New("forbidden")

	// ErrUnauthorized is returned when no credential was presented at all.
	// Distinct from ErrInvalidCredential so clients can tell "log in" apart
	// from "your session expired".
	ErrUnauthorized = errors.New("credential missing")

	// ErrInvalidCredential is returned when a credential was presented but is
	// malformed, expired, or fails signature verification.
	ErrInvalidCredential = errors.New("invalid or expired credential")

	// ErrInvalidInput is returned when required fields are missing or an
	// invariant (such as the pricing rule) is violated.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateEmail is returned when signing up with an email that is
	// already registered.
	ErrDuplicateEmail = errors.New("email already in use")

	// ErrInvalidLogin is returned on a failed login. It deliberately does not
	// say whether the email or the password was wrong.
	ErrInvalidLogin = errors.New("invalid email or password")
)
