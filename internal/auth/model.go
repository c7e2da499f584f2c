package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Role values stored on org users.
const (
	RoleAdmin    = "organization_admin"
	RoleEmployee = "employee"
)

var (
	// ErrUserNotFound is returned when no user matches the email.
	ErrUserNotFound = errors.New("auth: user not found")
	// ErrInvalidCredentials is returned for a bad email/password pair.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
)

// User is an authenticated member of an organization. For employees the user
// ID doubles as the employee record ID.
type User struct {
	ID           int64  `json:"id"`
	OrgID        string `json:"org_id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
	Firstname    string `json:"firstname"`
	Lastname     string `json:"lastname"`
}

// UserStore looks up org users for login.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// HashPassword produces a bcrypt hash for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a candidate password against the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
