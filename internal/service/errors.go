package service

import (
	"errors"
	"strings"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrRoleNotFound       = errors.New("role not found")
	ErrTaskNotFound       = errors.New("task not found")
	ErrInvalidID          = errors.New("invalid id format")
	ErrSearchDisabled     = errors.New("search is not configured")
)

// ValidationError lists every rule an input broke. It matches ErrValidation.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func validation(problems ...string) error {
	return &ValidationError{Problems: problems}
}
