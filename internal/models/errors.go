package models

import (
	"errors"
	"fmt"
)

// Error kinds. Delivery maps them to HTTP status codes with errors.Is.
var (
	ErrValidation         = errors.New("validation error")
	ErrNotFound           = errors.New("not found")
	ErrInvalidState       = errors.New("invalid state")
	ErrConflict           = errors.New("conflict")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
)

// Error carries a kind and a user-facing message.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validationf(format string, args ...interface{}) error {
	return newError(ErrValidation, format, args...)
}

func NotFoundf(format string, args ...interface{}) error {
	return newError(ErrNotFound, format, args...)
}

func InvalidStatef(format string, args ...interface{}) error {
	return newError(ErrInvalidState, format, args...)
}

func Conflictf(format string, args ...interface{}) error {
	return newError(ErrConflict, format, args...)
}

func Unavailablef(format string, args ...interface{}) error {
	return newError(ErrServiceUnavailable, format, args...)
}

func Unauthorizedf(format string, args ...interface{}) error {
	return newError(ErrUnauthorized, format, args...)
}

func Forbiddenf(format string, args ...interface{}) error {
	return newError(ErrForbidden, format, args...)
}
