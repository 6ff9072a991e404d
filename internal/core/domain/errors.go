package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrForbidden            = errors.New("access forbidden")
	ErrValidation           = errors.New("validation failed")
	ErrProjectNotFound      = errors.New("project not found")
	ErrStageNotFound        = errors.New("stage not found")
	ErrSubmissionNotFound   = errors.New("checklist submission not found")
	ErrDeliverableNotFound  = errors.New("deliverable not found")
	ErrRoleNotFound         = errors.New("role not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrUserExists           = errors.New("user already exists")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrUnauthenticated      = errors.New("authentication required")
	ErrNotificationNotFound = errors.New("notification not found")
)

// ValidationError reports a rejected input field. It matches ErrValidation.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
