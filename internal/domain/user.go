package domain

import (
	"context"
	"regexp"
	"time"
)

// MinPasswordLen is the shortest password accepted at signup.
const MinPasswordLen = 8

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidEmail reports whether s is an acceptable email address. The signup
// DTO and the auth service both use this so the two layers cannot drift.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// User represents a registered user.
// swagger:model User
type User struct {
	ID           ID        `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewUser returns a new User with the given fields. ID is set by the
// repository on create. Email is expected to be lowercase-normalized by the
// caller.
func NewUser(name, email, passwordHash string, createdAt, updatedAt time.Time) *User {
	return &User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
}

// PasswordHasher hashes and verifies passwords. Implementations may use
// bcrypt, argon2, etc.
type PasswordHasher interface {
	Hash(password string) (hash string, err error)
	Compare(hash, password string) error
}

// TokenIssuer issues a signed bearer credential for an authenticated user.
type TokenIssuer interface {
	Issue(userID ID, email string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a bearer credential and returns the subject
// identifier it carries. Verification is synchronous and local; it must
// never reach out to storage.
type TokenVerifier interface {
	Verify(token string) (ID, error)
}

// UserRepository defines the interface for user storage.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id ID) (*User, error)
}

// AuthService defines signup and login.
type AuthService interface {
	SignUp(ctx context.Context, name, email, password string) (*User, error)
	Login(ctx context.Context, email, password string) (token string, user *User, err error)
}
