package models

import (
	"errors"
	"fmt"
)

// Engine errors. Callers match them with errors.Is.
var (
	ErrChallengeNotFound      = errors.New("challenge not found")
	ErrStatusNotFound         = errors.New("challenge status not found")
	ErrNotAvailable           = errors.New("challenge is not available")
	ErrAlreadyCompleted       = errors.New("challenge already completed")
	ErrAlreadyInitialized     = errors.New("challenge statuses already initialized")
	ErrForbidden              = errors.New("forbidden")
	ErrValidation             = errors.New("validation error")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrInvalidTransition      = errors.New("invalid challenge state transition")
	ErrBusy                   = errors.New("another operation is in progress for this user")
	ErrUserNotFound           = errors.New("user not found")
	ErrSkillTestNotFound      = errors.New("skill test not found")
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError creates a validation error for a field.
func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is makes every ValidationError match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
