package user

import (
	"net/http"
	"time"

	"github.com/tutorhive/scheduling-backend/internal/pkg/apperror"
)

var (
	ErrNotFound           = apperror.New(http.StatusNotFound, "user not found")
	ErrEmailAlreadyUsed   = apperror.New(http.StatusConflict, "email already used")
	ErrInvalidCredentials = apperror.New(http.StatusUnauthorized, "invalid email or password")
	ErrInactiveUser       = apperror.New(http.StatusUnauthorized, "user is inactive")
	ErrEmailRequired      = apperror.New(http.StatusBadRequest, "email is required")
	ErrPasswordTooShort   = apperror.New(http.StatusBadRequest, "password is too short")
	ErrInvalidRole        = apperror.New(http.StatusBadRequest, "role must be teacher or student")
	ErrInvalidRate        = apperror.New(http.StatusBadRequest, "hourly rate must be positive for teachers")
	ErrNotATeacher        = apperror.New(http.StatusNotFound, "teacher not found")
)

// Role separates the two sides of the marketplace.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleTeacher || r == RoleStudent
}

// User is a teacher or student account. HourlyRate is meaningful for
// teachers only; it prices the bookings allocated against their slots.
type User struct {
	ID           string // UUID
	Email        string
	PasswordHash string
	DisplayName  *string
	Role         Role
	HourlyRate   float64
	CreatedAt    time.Time
	LastLoginAt  *time.Time
	IsActive     bool
}
