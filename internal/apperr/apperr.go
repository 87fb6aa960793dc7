package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of failure surfaced to API callers.
type Code string

const (
	CodeUnauthenticated Code = "UNAUTHENTICATED" // 401
	CodeInvalidInput    Code = "INVALID_INPUT"   // 400
	CodeNotFound        Code = "NOT_FOUND"       // 404
	CodeConflict        Code = "CONFLICT"        // 409
	CodeInternal        Code = "INTERNAL"        // 500
)

// Error is a structured error carrying an HTTP status and a message safe to show clients.
type Error struct {
	Code    Code
	Status  int
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func Unauthenticated(msg string) *Error {
	if msg == "" {
		msg = "not authenticated"
	}
	return &Error{Code: CodeUnauthenticated, Status: http.StatusUnauthorized, Message: msg}
}

func InvalidInput(msg string) *Error {
	return &Error{Code: CodeInvalidInput, Status: http.StatusBadRequest, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Status: http.StatusNotFound, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Code: CodeConflict, Status: http.StatusConflict, Message: msg}
}

// Internal wraps an unexpected failure. The cause is kept for logs only.
func Internal(err error) *Error {
	return &Error{Code: CodeInternal, Status: http.StatusInternalServerError, Message: "internal error", cause: err}
}

// Is reports whether err is an *Error with the given code.
func Is(err error, code Code) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// From returns err as an *Error, wrapping anything unrecognised as internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}
