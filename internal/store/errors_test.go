package store_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/pantryapp/pantry-server/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	err := &store.Error{
		Code:    http.StatusNotFound,
		Message: "recipe not found",
	}

	assert.Equal(t, "recipe not found", err.Error())
}

func TestError_ErrorIncludesCause(t *testing.T) {
	cause := errors.New("sql: no rows in result set")
	err := &store.Error{
		Code:    http.StatusNotFound,
		Message: "recipe not found",
		Err:     cause,
	}

	assert.Contains(t, err.Error(), "recipe not found")
	assert.Contains(t, err.Error(), "no rows")
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("disk I/O error")
	err := store.ErrInvalidInput.WithCause(cause)

	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, cause))
}

func TestError_WithMessage(t *testing.T) {
	derived := store.ErrNotFound.WithMessage("tag not found")

	assert.Equal(t, http.StatusNotFound, derived.Code)
	assert.Equal(t, "tag not found", derived.Message)
	// The sentinel itself is untouched
	assert.Equal(t, "resource not found", store.ErrNotFound.Message)
}

func TestError_WithCause(t *testing.T) {
	cause := errors.New("constraint failed")
	derived := store.ErrAlreadyExists.WithCause(cause)

	assert.Equal(t, http.StatusConflict, derived.Code)
	assert.Equal(t, store.ErrAlreadyExists.Message, derived.Message)
	assert.Equal(t, cause, derived.Err)
}

func TestSentinelHTTPCodes(t *testing.T) {
	tests := []struct {
		name     string
		err      *store.Error
		wantCode int
	}{
		{"not found", store.ErrNotFound, http.StatusNotFound},
		{"already exists", store.ErrAlreadyExists, http.StatusConflict},
		{"invalid input", store.ErrInvalidInput, http.StatusBadRequest},
		{"unauthorized", store.ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", store.ErrForbidden, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, tt.err.HTTPCode())
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}
