package domain

import (
	"errors"
	"sort"
	"strings"
)

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist (or is invisible to the caller).
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when input fails a field rule.
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrUnauthenticated is returned when an operation needs an identity and the
// request carried none. Handlers should map this to HTTP 401.
var ErrUnauthenticated = errors.New("unauthenticated")

// ErrForbidden covers both a missing capability and a failed ownership
// check. Handlers should map this to HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when current state blocks the operation, e.g. a
// listing with active reservations or a protected image.
// Handlers should map this to HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrUnavailable wraps storage failures on the read path.
// Handlers should map this to HTTP 503 without exposing the cause.
var ErrUnavailable = errors.New("storage unavailable")

// FieldErrors maps a field name (e.g. "price_per_day", "tags.1") to its
// human-readable messages.
type FieldErrors map[string][]string

// Add appends message to the messages recorded for field.
func (f FieldErrors) Add(field, message string) {
	f[field] = append(f[field], message)
}

// FieldError is a user-correctable error with a per-field message map.
// Kind is ErrValidation or ErrConflict, so callers can keep using errors.Is.
type FieldError struct {
	Kind   error
	Fields FieldErrors
}

// NewValidationError returns a FieldError of kind ErrValidation.
func NewValidationError(fields FieldErrors) *FieldError {
	return &FieldError{Kind: ErrValidation, Fields: fields}
}

// NewConflictError returns a FieldError of kind ErrConflict for a single field.
func NewConflictError(field, message string) *FieldError {
	return &FieldError{Kind: ErrConflict, Fields: FieldErrors{field: {message}}}
}

// Error renders the kind followed by the field messages in field order,
// e.g. "validation error: name: The name field is required.".
func (e *FieldError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], " "))
	}
	return e.Kind.Error() + ": " + strings.Join(parts, "; ")
}

// Unwrap exposes Kind to errors.Is.
func (e *FieldError) Unwrap() error {
	return e.Kind
}
