package apperrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"credentials", fmt.Errorf("login: %w", ErrInvalidCredentials), http.StatusUnauthorized},
		{"disabled", ErrAccountDisabled, http.StatusForbidden},
		{"invalid token", ErrInvalidToken, http.StatusUnauthorized},
		{"revoked", ErrTokenRevoked, http.StatusUnauthorized},
		{"expired", ErrTokenExpired, http.StatusUnauthorized},
		{"rotation race", ErrConcurrentRotation, http.StatusConflict},
		{"mismatch", ErrAssertionMismatch, http.StatusBadRequest},
		{"duplicate", fmt.Errorf("email taken: %w", ErrDuplicate), http.StatusConflict},
		{"validation", ErrValidation, http.StatusBadRequest},
		{"not found", ErrNotFound, http.StatusNotFound},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := FromError(tt.err)
			assert.Equal(t, tt.code, appErr.Code)
		})
	}
}

func TestFromError_KeepsAppErrorAndHidesInternals(t *testing.T) {
	assert.Nil(t, FromError(nil))

	original := NewBadRequestError("bad")
	assert.Same(t, original, FromError(fmt.Errorf("wrapped: %w", original)))

	internal := FromError(errors.New("pq: password authentication failed"))
	assert.Equal(t, "An unexpected error occurred", internal.Message)
	assert.ErrorContains(t, internal, "password authentication failed")

	dup := FromError(fmt.Errorf("username taken: %w", ErrDuplicate))
	assert.ErrorIs(t, dup, ErrDuplicate)
	assert.Equal(t, "username taken: resource already exists", dup.Message)
}
