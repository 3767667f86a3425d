package apperrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
// Username, email and (provider, provider user id) collisions all map here.
var ErrDuplicate = errors.New("resource already exists")

// ErrUnauthorized indicates that the caller is not authenticated.
var ErrUnauthorized = errors.New("unauthorized")

// Authentication errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account is disabled or locked")
	ErrAssertionMismatch  = errors.New("oauth assertion does not match claimed identity")
)

// Refresh token errors
var (
	ErrInvalidToken       = errors.New("invalid refresh token")
	ErrTokenRevoked       = errors.New("refresh token has been revoked")
	ErrTokenExpired       = errors.New("refresh token has expired")
	ErrConcurrentRotation = errors.New("refresh token was rotated concurrently")
)

// AppError is an error carrying the HTTP status it should surface as.
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// NewAppError creates an AppError with an explicit status code.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func NewBadRequestError(message string) *AppError {
	return NewAppError(http.StatusBadRequest, message, ErrValidation)
}

func NewUnauthorizedError(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, message, ErrUnauthorized)
}

func NewConflictError(message string) *AppError {
	return NewAppError(http.StatusConflict, message, ErrDuplicate)
}

func NewInternalServerError(message string) *AppError {
	return NewAppError(http.StatusInternalServerError, message, nil)
}

func NewGatewayTimeoutError(message string) *AppError {
	return NewAppError(http.StatusGatewayTimeout, message, nil)
}

// FromError maps any error returned by the services to an AppError.
// Errors that are already AppErrors are returned as-is. Unknown errors are
// treated as internal failures and their message is not exposed.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return NewAppError(http.StatusUnauthorized, "Invalid username or password", err)
	case errors.Is(err, ErrAccountDisabled):
		return NewAppError(http.StatusForbidden, "Account is disabled", err)
	case errors.Is(err, ErrInvalidToken):
		return NewAppError(http.StatusUnauthorized, "Invalid refresh token", err)
	case errors.Is(err, ErrTokenRevoked):
		return NewAppError(http.StatusUnauthorized, "Refresh token has been revoked", err)
	case errors.Is(err, ErrTokenExpired):
		return NewAppError(http.StatusUnauthorized, "Refresh token has expired", err)
	case errors.Is(err, ErrConcurrentRotation):
		return NewAppError(http.StatusConflict, "Refresh token was already rotated, retry the request", err)
	case errors.Is(err, ErrAssertionMismatch):
		return NewAppError(http.StatusBadRequest, "OAuth token does not match the supplied identity", err)
	case errors.Is(err, ErrDuplicate):
		return NewConflictError(err.Error())
	case errors.Is(err, ErrValidation):
		return NewAppError(http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, ErrNotFound):
		return NewAppError(http.StatusNotFound, "Resource not found", err)
	case errors.Is(err, ErrUnauthorized):
		return NewAppError(http.StatusUnauthorized, "Unauthorized", err)
	case errors.Is(err, context.DeadlineExceeded):
		return NewGatewayTimeoutError("Upstream request timed out")
	default:
		appErr := NewInternalServerError("An unexpected error occurred")
		appErr.Err = err
		return appErr
	}
}
