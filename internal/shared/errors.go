package shared

import (
	"fmt"
	"strings"
)

// FieldError identifies a single offending input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports malformed or conflicting input. It carries one
// entry per offending field so callers can render inline messages.
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// Add appends a field error.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Empty reports whether no field errors were collected.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	if e.Empty() {
		return "validation failed"
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NotFoundError reports a reference to a nonexistent entity.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ConflictError reports a uniqueness or referential-integrity violation.
type ConflictError struct {
	Resource string
	Reason   string
}

func (e *ConflictError) Error() string {
	return e.Resource + ": " + e.Reason
}
