// Package apperror defines the application's error taxonomy.
//
// Services return these typed errors; the HTTP layer translates them to
// status codes with errors.Is/errors.As. This keeps the service layer
// ignorant of HTTP while still giving handlers enough to build a response.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
)

type AppError struct {
	Err     error  // sentinel this error wraps (ErrNotFound, ErrValidation)
	Message string // human-readable message, safe to return to clients
	Field   string // optional: field causing a validation error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Blank is the coarse "data is blank" validation error used by feed
// creation. Several distinct checks (empty title/content, missing score,
// empty place fields) intentionally collapse into this one error with no
// field detail; callers that need per-field detail should use
// ValidationFailed directly.
func Blank() *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: "data is blank",
	}
}
