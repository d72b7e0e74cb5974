package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrUnauthorized
	ErrForbidden
	ErrConflict
	ErrInternal
)

// Error constructors
func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func BadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func Unauthorized(message string, err error) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return &AppError{
		Code:    ErrUnauthorized,
		Message: message,
		Err:     err,
	}
}

func Conflict(message string, err error) *AppError {
	return &AppError{
		Code:    ErrConflict,
		Message: message,
		Err:     err,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// ValidationErrors collects every violated rule for one operation so callers
// see all of them at once instead of just the first failure.
type ValidationErrors struct {
	Violations []string `json:"violations"`
}

func (e *ValidationErrors) Error() string {
	return strings.Join(e.Violations, "; ")
}

func (e *ValidationErrors) Add(format string, args ...interface{}) {
	e.Violations = append(e.Violations, fmt.Sprintf(format, args...))
}

func (e *ValidationErrors) HasErrors() bool {
	return len(e.Violations) > 0
}

// ErrOrNil returns the collector as an error only when something was recorded.
func (e *ValidationErrors) ErrOrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

// AsValidation extracts a ValidationErrors from an error chain.
func AsValidation(err error) (*ValidationErrors, bool) {
	var ve *ValidationErrors
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// AsApp extracts an AppError from an error chain.
func AsApp(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
