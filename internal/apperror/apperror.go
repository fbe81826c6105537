// Package apperror defines the error kinds shared by the store, service and
// handler layers of the travel journal.
//
// Repositories and services return *AppError values wrapping one of the
// sentinel kinds below. AppError.Message is safe to show to API clients;
// anything that is not an *AppError is treated as an internal failure.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Match them with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("Validation Error")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

// MsgRequired is the client-facing text for any missing mandatory field.
const MsgRequired = "All fields are required"

type AppError struct {
	Err     error  // one of the kinds above
	Message string // shown to the client as is
	Field   string // request field at fault, if any
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound reports a missing (or not owned) record looked up by id.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// NotFoundMessage is NotFound with a caller-chosen message, for lookups that
// are not keyed by id (a user looked up by email, an image by name).
func NotFoundMessage(message string) *AppError {
	return &AppError{Err: ErrNotFound, Message: message}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Required reports a mandatory field that was missing or blank.
func Required(field string) *AppError {
	return ValidationFailed(field, MsgRequired)
}

// Conflict reports a unique key that is already taken.
func Conflict(resource, key string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s already exists: %s", resource, key),
	}
}

// Unauthorized reports bad credentials or a bad bearer token.
func Unauthorized(message string) *AppError {
	return &AppError{Err: ErrUnauthorized, Message: message}
}

// From returns the *AppError in err's chain, if there is one.
func From(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HTTPStatus maps an error kind to the status the API answers with.
// Conflict is 400 rather than 409: clients treat a duplicate email as a
// plain bad request. Untyped errors are 500.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
