package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a job id is absent from a document.
var ErrNotFound = errors.New("not found")

// ValidationError reports malformed input rejected before any mutation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Invalid builds a ValidationError for field.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// InvalidTransitionError reports a status change outside the transition table.
type InvalidTransitionError struct {
	Current   JobStatus
	Requested JobStatus
	Allowed   []JobStatus
}

func (e *InvalidTransitionError) Error() string {
	allowed := "none"
	if len(e.Allowed) > 0 {
		allowed = strings.Join(statusStrings(e.Allowed), ", ")
	}
	return fmt.Sprintf("invalid transition %s -> %s (allowed: %s)", e.Current, e.Requested, allowed)
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsInvalidTransition(err error) bool {
	var target *InvalidTransitionError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
