package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeValidation     = "validation_error"
	CodeDuplicateEmail = "duplicate_email"
	CodeUnauthorized   = "unauthorized"
	CodeNotFound       = "not_found"
	CodeInternal       = "internal_error"
)

// Error is an error with the HTTP status and machine code it should be reported with.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Validation(err error) *Error {
	return New(http.StatusUnprocessableEntity, CodeValidation, err)
}

func DuplicateEmail(err error) *Error {
	return New(http.StatusBadRequest, CodeDuplicateEmail, err)
}

func Unauthorized(err error) *Error {
	return New(http.StatusUnauthorized, CodeUnauthorized, err)
}

func NotFound(err error) *Error {
	return New(http.StatusNotFound, CodeNotFound, err)
}

func Internal(err error) *Error {
	return New(http.StatusInternalServerError, CodeInternal, err)
}

// As extracts an *Error from err; anything else is reported as internal.
func As(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Internal(err)
}

// Public returns the message safe to send to a client. Internal errors never
// expose their cause.
func (e *Error) Public() string {
	if e.Status >= http.StatusInternalServerError {
		return "internal error"
	}
	return e.Error()
}
