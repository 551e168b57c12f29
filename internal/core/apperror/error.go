// Package apperror provides structured error handling following RFC 7807 Problem Details.
// Errors that reach an API response must be AppError; anything else is
// reported to the client as CodeInternal.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	CodeInternal     = "INTERNAL_ERROR"
	CodeDatabase     = "DATABASE_ERROR"
	CodeValidation   = "VALIDATION_ERROR"
	CodeInvalidInput = "INVALID_INPUT"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeIdempotency  = "IDEMPOTENCY_CONFLICT"
	CodeTooLarge     = "PAYLOAD_TOO_LARGE"
)

var statusByCode = map[string]int{
	CodeInternal:     http.StatusInternalServerError,
	CodeDatabase:     http.StatusInternalServerError,
	CodeValidation:   http.StatusBadRequest,
	CodeInvalidInput: http.StatusBadRequest,
	CodeUnauthorized: http.StatusUnauthorized,
	CodeForbidden:    http.StatusForbidden,
	CodeNotFound:     http.StatusNotFound,
	CodeIdempotency:  http.StatusConflict,
	CodeTooLarge:     http.StatusRequestEntityTooLarge,
}

// AppError is the standard error type of the service.
type AppError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is derived from Code.
	HTTPStatus int `json:"-"`

	// Err never leaves the server.
	Err error `json:"-"`
}

func newError(code, message string) *AppError {
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// ServerSide reports whether the error is the service's fault (5xx).
func (e *AppError) ServerSide() bool {
	return e.HTTPStatus >= http.StatusInternalServerError
}

// Problem is the body sent to API clients.
type Problem struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ToProblem converts any error to its client-facing form. Causes are dropped
// and errors that are not AppError become a generic internal error.
func ToProblem(err error) (int, Problem) {
	appErr, ok := AsAppError(err)
	if !ok {
		appErr = NewInternal(err)
	}
	return appErr.HTTPStatus, Problem{
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	}
}

// NewValidation creates a validation error (400).
func NewValidation(message string) *AppError {
	return newError(CodeValidation, message)
}

// NewInvalidInput creates an error for a malformed request field (400).
func NewInvalidInput(field string, value any) *AppError {
	return newError(CodeInvalidInput, fmt.Sprintf("invalid value for %s", field)).
		WithDetail("field", field).
		WithDetail("value", value)
}

// NewTooLarge rejects a request body above limit bytes (413).
func NewTooLarge(limit int) *AppError {
	return newError(CodeTooLarge, "request body too large").WithDetail("max_bytes", limit)
}

// NewNotFound creates a not found error (404).
func NewNotFound(entity string, id any) *AppError {
	return newError(CodeNotFound, fmt.Sprintf("%s not found", entity)).
		WithDetail("entity", entity).
		WithDetail("id", id)
}

// NewInternal creates an internal server error (hides details from client).
func NewInternal(err error) *AppError {
	return newError(CodeInternal, "Internal server error").WithCause(err)
}

// NewDatabase wraps a storage failure (500).
func NewDatabase(op string, err error) *AppError {
	return newError(CodeDatabase, fmt.Sprintf("database operation failed: %s", op)).WithCause(err)
}

// NewUnauthorized creates an authentication error (401).
func NewUnauthorized(message string) *AppError {
	return newError(CodeUnauthorized, message)
}

// NewForbidden creates an authorization error (403).
func NewForbidden(message string) *AppError {
	return newError(CodeForbidden, message)
}

// NewIdempotencyConflict is returned while the first request with key is still running.
func NewIdempotencyConflict(key string) *AppError {
	return newError(CodeIdempotency, "Operation already in progress").
		WithDetail("idempotency_key", key)
}

// NewIdempotencyMismatch is returned when key is reused for a different
// request (different user, store, route or body).
func NewIdempotencyMismatch(key string) *AppError {
	return newError(CodeIdempotency, "Idempotency key mismatch").
		WithDetail("idempotency_key", key)
}

// AsAppError extracts AppError from error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error.
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsNotFound checks if error is CodeNotFound.
func IsNotFound(err error) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == CodeNotFound
}

// IsValidation checks if error is a 400-class input error.
func IsValidation(err error) bool {
	appErr, ok := AsAppError(err)
	return ok && (appErr.Code == CodeValidation || appErr.Code == CodeInvalidInput)
}
