package service

import (
	"errors"
	"fmt"

	"mdmportal/internal/repository"
)

// Sentinel errors mapped to HTTP codes by the handlers.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalid      = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// Actor identifies who performs a mutation.
type Actor struct {
	EmpID uint
	Name  string
	Role  string
}

func (a Actor) String() string {
	if a.Name != "" {
		return a.Name
	}
	if a.EmpID != 0 {
		return fmt.Sprintf("emp:%d", a.EmpID)
	}
	return "system"
}

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// notFoundOr maps a missing row to ErrNotFound and wraps anything else.
func notFoundOr(err error, what string) error {
	if repository.IsNotFound(err) {
		return fmt.Errorf("%s %w", what, ErrNotFound)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}
