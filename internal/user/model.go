package user

import (
	"net/http"
	"time"

	"github.com/gymbook/reservation-api/internal/pkg/apperror"
)

var (
	ErrNotFound            = apperror.New(http.StatusNotFound, "user not found")
	ErrEmailAlreadyUsed    = apperror.New(http.StatusConflict, "email already used")
	ErrInvalidCredentials  = apperror.New(http.StatusUnauthorized, "invalid email or password")
	ErrEmailRequired       = apperror.New(http.StatusBadRequest, "email is required")
	ErrDisplayNameRequired = apperror.New(http.StatusBadRequest, "display name is required")
	ErrPasswordTooShort    = apperror.New(http.StatusBadRequest, "password must be at least 8 characters")
	ErrCredentialsRequired = apperror.New(http.StatusBadRequest, "email and password are required")
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 8

// User represents a gym member account.
type User struct {
	ID           string // UUID
	Email        string
	PasswordHash string
	DisplayName  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLoginAt  *time.Time
	IsActive     bool

	// Aggregates, only populated by List.
	ReservationCount int
	ServiceCount     int
}

// UserFilter defines filter options for listing users.
type UserFilter struct {
	Email       string
	DisplayName string

	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
