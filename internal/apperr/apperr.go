// Package apperr carries a small error taxonomy from the service layer to the
// HTTP boundary. A coded error has a human-readable message meant for the
// client and an optional cause meant for logs.
package apperr

import (
	"errors"
	"net/http"
)

// Code classifies an error.
type Code int

const (
	// CodeInternal is the zero value so unclassified errors never leak detail.
	CodeInternal Code = iota
	CodeInvalidArgument
	CodeUnauthenticated
	CodeNotFound
	CodeUnavailable
)

func (c Code) String() string {
	switch c {
	case CodeInvalidArgument:
		return "invalid_argument"
	case CodeUnauthenticated:
		return "unauthenticated"
	case CodeNotFound:
		return "not_found"
	case CodeUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Error is a coded error.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// New creates a coded error with a client-facing message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a coded error that keeps err as its cause.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of the first *Error in err's chain,
// or CodeInternal if there is none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// MessageOf returns the client-facing message for err.
// Errors without a code get a generic message.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}

// HTTPStatus maps a code to a response status.
// A user lookup miss is reported as 400, not 404.
func HTTPStatus(code Code) int {
	switch code {
	case CodeInvalidArgument, CodeNotFound:
		return http.StatusBadRequest
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
