package store_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/listenupapp/shelfmark/internal/store"
)

func TestError_Error(t *testing.T) {
	err := &store.Error{Code: http.StatusNotFound, Message: "not found"}
	assert.Equal(t, "not found", err.Error())
}

func TestError_ErrorWithCause(t *testing.T) {
	err := store.ErrNotFound.WithCause(errors.New("no rows"))

	assert.Contains(t, err.Error(), "resource not found")
	assert.Contains(t, err.Error(), "no rows")
}

func TestError_IsMatchesDerivedErrors(t *testing.T) {
	derived := store.ErrAlreadyExists.WithMessage("book exists")
	wrapped := fmt.Errorf("create book: %w", derived)

	assert.ErrorIs(t, wrapped, store.ErrAlreadyExists)
	assert.NotErrorIs(t, wrapped, store.ErrNotFound)
	assert.Equal(t, http.StatusConflict, derived.HTTPCode())
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := store.ErrInvalidInput.WithCause(cause)
	assert.Equal(t, cause, err.Unwrap())
	assert.ErrorIs(t, err, cause)
}

func TestSentinelErrors(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, store.ErrNotFound.HTTPCode())
	assert.Equal(t, http.StatusConflict, store.ErrAlreadyExists.HTTPCode())
	assert.Equal(t, http.StatusBadRequest, store.ErrInvalidInput.HTTPCode())
}
