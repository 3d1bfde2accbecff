// Package errors defines structured application errors for the authgate
// service. Error codes map to stable API responses; callers must not leak
// the distinction between the different invalid-token causes to clients.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/turtacn/authgate/pkg/constants"
)

// AppError is a structured error carrying an API error code, an HTTP
// status and an optional cause chain.
type AppError struct {
	Code       constants.ErrorCode
	HTTPStatus int
	Message    string
	cause      error
	metadata   map[string]interface{}
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap supports errors.Is / errors.As over the cause chain.
func (e *AppError) Unwrap() error {
	return e.cause
}

// Is matches two AppErrors by code so that sentinel comparisons survive
// WithCause / WithMetadata copies.
func (e *AppError) Is(target error) bool {
	var appErr *AppError
	if stderrors.As(target, &appErr) {
		return e.Code == appErr.Code && e.Message == appErr.Message
	}
	return false
}

// WithCause returns a copy of the error with the given cause attached.
func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.cause = cause
	return &clone
}

// WithMetadata returns a copy of the error with an extra metadata entry.
func (e *AppError) WithMetadata(key string, value interface{}) *AppError {
	clone := *e
	clone.metadata = make(map[string]interface{}, len(e.metadata)+1)
	for k, v := range e.metadata {
		clone.metadata[k] = v
	}
	clone.metadata[key] = value
	return &clone
}

// Metadata returns the metadata attached to the error, if any.
func (e *AppError) Metadata() map[string]interface{} {
	return e.metadata
}

// New creates an AppError with the given code, status and message.
func New(code constants.ErrorCode, httpStatus int, message string) *AppError {
	return &AppError{Code: code, HTTPStatus: httpStatus, Message: message}
}

// Wrap attaches a cause to a new AppError.
func Wrap(err error, code constants.ErrorCode, message string) *AppError {
	return &AppError{Code: code, HTTPStatus: http.StatusInternalServerError, Message: message, cause: err}
}

// Predefined errors. ErrInvalidToken deliberately covers malformed,
// expired, revoked and unknown tokens alike: the uniform message avoids
// giving an attacker an oracle for token state.
var (
	ErrInvalidRequest     = New(constants.ErrCodeInvalidRequest, http.StatusBadRequest, "invalid request")
	ErrInvalidCredentials = New(constants.ErrCodeInvalidCredentials, http.StatusUnauthorized, "invalid credentials")
	ErrInvalidToken       = New(constants.ErrCodeInvalidToken, http.StatusUnauthorized, "invalid or expired token")

	// ErrTokenReuse and ErrTokenNotFound carry the same code as
	// ErrInvalidToken. Clients receive the uniform invalid_token response;
	// the distinct messages exist for logs and audit only and must never
	// be written to an API response body.
	ErrTokenReuse    = New(constants.ErrCodeInvalidToken, http.StatusUnauthorized, "refresh token reuse detected")
	ErrTokenNotFound = New(constants.ErrCodeInvalidToken, http.StatusUnauthorized, "token not found")

	ErrAccountInactive  = New(constants.ErrCodeAccountInactive, http.StatusForbidden, "account is inactive")
	ErrStoreUnavailable = New(constants.ErrCodeServiceUnavailable, http.StatusInternalServerError, "storage operation failed")
	ErrInternal         = New(constants.ErrCodeInternal, http.StatusInternalServerError, "internal error")
)

// Is re-exports errors.Is for callers that only import this package.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As re-exports errors.As.
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// CodeOf extracts the API error code from an error chain, defaulting to
// internal_error for unclassified failures.
func CodeOf(err error) constants.ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return constants.ErrCodeInternal
}

// HTTPStatusOf extracts the HTTP status from an error chain.
func HTTPStatusOf(err error) int {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}
