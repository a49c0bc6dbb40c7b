package user

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/servicehub-backend/internal/pkg/apperror"
)

var (
	ErrNotFound           = apperror.New(http.StatusNotFound, "UserNotFound", "user not found")
	ErrEmailAlreadyUsed   = apperror.New(http.StatusConflict, "EmailAlreadyUsed", "email already used")
	ErrInvalidCredentials = apperror.New(http.StatusUnauthorized, "InvalidCredentials", "invalid email or password")
	ErrEmailRequired      = apperror.New(http.StatusBadRequest, "InvalidInput", "email is required")
	ErrPasswordTooShort   = apperror.New(http.StatusBadRequest, "InvalidInput", "password is too short")
	ErrInvalidType        = apperror.New(http.StatusBadRequest, "InvalidInput", "user type must be customer or provider")
)

// Type separates people booking services from people offering them.
type Type string

const (
	TypeCustomer Type = "customer"
	TypeProvider Type = "provider"
)

// ParseType maps an optional type string to a Type. Empty means customer.
func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case "":
		return TypeCustomer, nil
	case TypeCustomer, TypeProvider:
		return t, nil
	}
	return "", ErrInvalidType
}

// User represents an account in the marketplace.
type User struct {
	ID           string // UUID
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Type         Type
	IsActive     bool
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}

// FullName joins first and last name.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// RegisterRequest carries the fields needed to create an account.
type RegisterRequest struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Type      string
}
