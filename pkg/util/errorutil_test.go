package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRetriable(t *testing.T) {
	assert.False(t, IsRetriable(NewNotFound("ticket", nil)))
	assert.False(t, IsRetriable(NewValidationError("bad input", nil)))
	assert.False(t, IsRetriable(NewForbidden("nope")))
	assert.True(t, IsRetriable(NewInternalError(errors.New("boom"))))
	assert.True(t, IsRetriable(NewConflict("exists", nil)))
	assert.True(t, IsRetriable(errors.New("unknown failure")))
}

func TestIsRetriable_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("step failed: %w", NewNotFound("ticket", nil))
	assert.False(t, IsRetriable(wrapped))
}

func TestToDomainError(t *testing.T) {
	t.Run("nil passes through", func(t *testing.T) {
		assert.Nil(t, ToDomainError(nil))
	})

	t.Run("domain errors are preserved", func(t *testing.T) {
		de := ToDomainError(NewForbidden("admin access required"))
		require.NotNil(t, de)
		assert.Equal(t, "FORBIDDEN", de.Code)
		assert.Equal(t, http.StatusForbidden, de.HTTPStatus)
	})

	t.Run("pgx no rows maps to not found", func(t *testing.T) {
		de := ToDomainError(pgx.ErrNoRows)
		require.NotNil(t, de)
		assert.Equal(t, "NOT_FOUND", de.Code)
	})

	t.Run("unknown errors map to internal", func(t *testing.T) {
		cause := errors.New("connection reset")
		de := ToDomainError(cause)
		require.NotNil(t, de)
		assert.Equal(t, "INTERNAL_ERROR", de.Code)
		assert.True(t, de.Retriable)
		assert.ErrorIs(t, de, cause)
	})
}
