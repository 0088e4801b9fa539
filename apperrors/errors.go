package apperrors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError carries field-level detail for a rejected input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("%s (%s)", ErrValidation.Error(), strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Add records a message for a field, keeping the first one reported.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// OrNil returns nil when no field was reported.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func Validation(field, msg string) error {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// ConflictError is returned when a business rule blocks an operation.
type ConflictError struct {
	Message  string
	Blockers []string
	Warnings []string
}

func (e *ConflictError) Error() string {
	if len(e.Blockers) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Blockers, "; "))
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

func Conflict(msg string) error {
	return &ConflictError{Message: msg}
}

func NotFound(entity string) error {
	return fmt.Errorf("%s %w", entity, ErrNotFound)
}

func Forbidden(msg string) error {
	return fmt.Errorf("%w: %s", ErrForbidden, msg)
}

func Unauthorized(msg string) error {
	return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
}

// DependencyError describes a derived entity that could not be created
// during a cascade. It is logged, never returned to the caller.
type DependencyError struct {
	Entity string
	Err    error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("failed to create dependent %s: %v", e.Entity, e.Err)
}

func (e *DependencyError) Unwrap() error { return e.Err }
