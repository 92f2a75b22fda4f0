// Package apperror defines the application's error taxonomy.
//
// Every failure a service can report to a caller is one of the sentinels
// below, wrapped in an *AppError that carries a human-readable message.
// The HTTP layer maps sentinels to status codes (see handler.writeError);
// services never know about HTTP.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation error")
	ErrConflict      = errors.New("conflict")
	ErrForbidden     = errors.New("forbidden")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrAlreadyJoined = errors.New("already joined")
	ErrUnavailable   = errors.New("unavailable")
)

// AlreadyJoinedMessage is what a runner sees when they RSVP twice.
const AlreadyJoinedMessage = "You have already RSVP'd to this event!"

type AppError struct {
	Err     error  // sentinel, matched with errors.Is
	Message string // safe to show to the user
	Field   string // optional: input field that caused the error
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

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized means the caller has to sign in first.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// AlreadyJoined reports a duplicate (event, runner) attendance row.
// It is not a Conflict: callers surface AlreadyJoinedMessage as-is.
func AlreadyJoined() *AppError {
	return &AppError{
		Err:     ErrAlreadyJoined,
		Message: AlreadyJoinedMessage,
	}
}

// Unavailable is returned when an optional integration is not configured.
func Unavailable(feature string) *AppError {
	return &AppError{
		Err:     ErrUnavailable,
		Message: fmt.Sprintf("%s is not available", feature),
	}
}
