package application

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnauthorized is returned when an operation needs an identity and the caller has none.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrForbidden is returned when the caller is identified but does not own the resource.
	ErrForbidden = errors.New("application: forbidden")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrConflict is returned when a request collides with the current state.
	ErrConflict = errors.New("application: conflict")
	// ErrBadRequest is returned for malformed or invalid input.
	ErrBadRequest = errors.New("application: bad request")
)

// Error pairs a sentinel kind with a message meant for the API caller.
type Error struct {
	Kind    error
	Message string
}

// Error returns the caller facing message.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message == "" && e.Kind != nil {
		return e.Kind.Error()
	}
	return e.Message
}

// Unwrap exposes the kind to errors.Is.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Kind
}

func newError(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func badRequest(format string, args ...any) error { return newError(ErrBadRequest, format, args...) }
func notFound(format string, args ...any) error   { return newError(ErrNotFound, format, args...) }
func conflict(format string, args ...any) error   { return newError(ErrConflict, format, args...) }
func forbidden(format string, args ...any) error  { return newError(ErrForbidden, format, args...) }

func unauthorized() error {
	return newError(ErrUnauthorized, "Authorization required")
}

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface. A single field error is returned
// verbatim so it can be shown as the response message.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	switch len(v.FieldErrors) {
	case 0:
		return "validation failed"
	case 1:
		for _, msg := range v.FieldErrors {
			return msg
		}
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// Is makes every validation error match ErrBadRequest.
func (v *ValidationError) Is(target error) bool {
	return target == ErrBadRequest
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}
