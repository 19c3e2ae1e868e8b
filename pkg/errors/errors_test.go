package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err    *AppError
		status int
	}{
		{NewValidationError("name is required"), http.StatusBadRequest},
		{NewBadRequestError("bad week"), http.StatusBadRequest},
		{NewUnauthorizedError(""), http.StatusUnauthorized},
		{NewInvalidCredentialsError(), http.StatusUnauthorized},
		{NewForbiddenError("update recipe"), http.StatusForbidden},
		{NewRecipeNotFoundError(4), http.StatusNotFound},
		{NewWeekplanNotFoundError(9), http.StatusNotFound},
		{NewNoCandidateRecipeError([]string{"vegan"}), http.StatusNotFound},
		{NewTagAlreadyExistsError("vegan"), http.StatusConflict},
		{NewEmailAlreadyExistsError("a@example.com"), http.StatusConflict},
		{NewTooManyRequestsError(), http.StatusTooManyRequests},
		{NewDatabaseError("create recipe", fmt.Errorf("boom")), http.StatusInternalServerError},
		{NewStorageError("store image", fmt.Errorf("boom")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.StatusCode())
		})
	}
}

func TestWrap(t *testing.T) {
	t.Run("Nil", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, "ignored"))
	})

	t.Run("PlainError_BecomesInternal", func(t *testing.T) {
		cause := fmt.Errorf("disk full")
		err := Wrap(cause, "write failed")

		assert.Equal(t, CodeInternal, err.Code)
		assert.Equal(t, "write failed", err.Message)
		assert.True(t, stderrors.Is(err, cause))
	})

	t.Run("AppError_IsKept", func(t *testing.T) {
		original := NewTagNotFoundError(3)
		wrapped := fmt.Errorf("lookup: %w", original)

		assert.Same(t, original, Wrap(wrapped, "ignored"))
	})
}

func TestCodeHelpers(t *testing.T) {
	err := fmt.Errorf("service: %w", NewStepNotFoundError(7))

	appErr, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, int64(7), appErr.Metadata["step_id"])
	assert.True(t, Is(err, CodeStepNotFound))
	assert.False(t, Is(err, CodeRecipeNotFound))
	assert.Equal(t, CodeStepNotFound, GetCode(err))
	assert.Equal(t, CodeInternal, GetCode(fmt.Errorf("plain")))
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "NOT_FOUND: Ingredient not found", NewNotFoundError("ingredient").Error())
	assert.Equal(t, "VALIDATION_FAILED: Validation failed (name is required)", NewValidationError("name is required").Error())
}

func TestValidationErrors(t *testing.T) {
	err := NewValidationErrors([]ValidationError{
		{Field: "name", Tag: "required", Message: "name is required"},
		{Field: "portions", Tag: "gte", Message: "portions must be at least 0"},
	})

	assert.Equal(t, CodeValidationFailed, err.Code)
	assert.Equal(t, "name is required; portions must be at least 0", err.Details)
	assert.Len(t, err.Metadata["validation_errors"], 2)
	assert.Equal(t, "validation failed", ValidationErrors(nil).Error())
}

func TestToErrorResponse(t *testing.T) {
	resp := ToErrorResponse(NewForbiddenError("delete tag"), "req-1")

	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.Equal(t, CodeForbidden, resp.ErrorCode)
	assert.Equal(t, "You don't have permission to delete tag", resp.Details)
	assert.Equal(t, "delete tag", resp.Metadata["action"])
	assert.Equal(t, "req-1", resp.RequestID)
}
